// File: database/repository/appointment/interface.go
package appointmentRepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"uplift/database"
	"uplift/models"
	"uplift/utils"
)

// Sentinel errors surfaced by the ledger.
var (
	// ErrSlotFull means the conditional insert found the slot at capacity.
	ErrSlotFull = errors.New("slot capacity exhausted")
	// ErrDuplicateSession means an appointment for the same payment session
	// already exists (unique index on paymentSessionId).
	ErrDuplicateSession = errors.New("payment session already confirmed")
)

type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Appointment, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Appointment, error)
	CountBooked(ctx context.Context, slotID string) (int, error)
	HasBookedBy(ctx context.Context, slotID, clientID string) (bool, error)
	AnyBooked(ctx context.Context, slotID string) (bool, error)
	// InsertBooked writes the appointment only while the slot's booked count
	// stays strictly below capacity; the count and the insert happen in one
	// atomic unit. Returns ErrSlotFull or ErrDuplicateSession on conflict.
	InsertBooked(ctx context.Context, appt *models.Appointment, capacity int) error
	UpdateStatus(ctx context.Context, id, status string) error
	// TransitionStatus updates the status only while the current status
	// matches from, reporting whether a document was updated.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &mongoAppointmentRepo{
		coll: database.DB().Collection("appointments"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("appointment index bootstrap failed", zap.Error(err))
	}
	return repo
}
