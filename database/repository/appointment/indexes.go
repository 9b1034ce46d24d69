// FILE: database/repository/appointment/indexes.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the appointments collection.
func (r *mongoAppointmentRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on Appointment ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One appointment per payment session, backstop for idempotent confirmation
		{
			Keys:    bson.D{{Key: "paymentSessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_payment_session"),
		},
		// Capacity counts filter by slot and status
		{
			Keys:    bson.D{{Key: "slotId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("slot_status_idx"),
		},
		// Participant listings
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("client_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("provider_status_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
