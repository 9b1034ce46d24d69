package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	appointmentRepo "uplift/database/repository/appointment"
	slotRepo "uplift/database/repository/slot"
	"uplift/models"
	"uplift/services/payment"
	"uplift/utils"
)

// Policy carries the configurable booking rules.
type Policy struct {
	// Currency for checkout sessions, lowercase ISO code.
	Currency string
	// ClientURL is the web client base used for checkout redirect targets.
	ClientURL string
	// CancellationLead is the minimum notice a client must give before the
	// slot starts. Providers and admins are not bound by it.
	CancellationLead time.Duration
	// Location resolves slot date+time fields to wall-clock instants.
	Location *time.Location
}

// RefundEnqueuer hands compensating refunds to a durable queue so a charge
// captured for a seat lost to a racing confirmation is always returned.
type RefundEnqueuer interface {
	EnqueueCompensation(ctx context.Context, paymentIntentID, sessionID, slotID, clientID string) error
}

// DefaultBookingService is the production BookingService implementation.
type DefaultBookingService struct {
	SlotRepo    slotRepo.SlotRepository
	ApptRepo    appointmentRepo.AppointmentRepository
	Payments    payment.Processor
	Locker      SlotLocker
	RefundQueue RefundEnqueuer
	Policy      Policy
	Logger      *zap.Logger
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

func (s *DefaultBookingService) location() *time.Location {
	if s.Policy.Location != nil {
		return s.Policy.Location
	}
	return time.Local
}

// isBookable re-derives the slot's remaining bookability from the ledger.
func (s *DefaultBookingService) isBookable(ctx context.Context, slot *models.Slot) (bool, error) {
	count, err := s.ApptRepo.CountBooked(ctx, slot.ID)
	if err != nil {
		return false, wrapError(CodeInternal, "failed to derive booked count", err)
	}
	return slot.Status == models.SlotStatusAvailable && count < slot.MaxParticipants, nil
}
