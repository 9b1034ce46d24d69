// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"uplift/database"
	"uplift/models"
	"uplift/utils"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, slotID string) (*models.Slot, error)
	Delete(ctx context.Context, slotID string) error
	FindOverlapping(ctx context.Context, providerID, date, startTime, endTime string) (*models.Slot, error)
	ListAvailableExcluding(ctx context.Context, providerID string) ([]models.Slot, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Slot, error)
	ListUpcomingByProvider(ctx context.Context, providerID, fromDate string) ([]models.Slot, error)
}

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	repo := &mongoSlotRepo{
		coll: database.DB().Collection("slots"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("slot index bootstrap failed", zap.Error(err))
	}
	return repo
}
