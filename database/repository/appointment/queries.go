// File: database/repository/appointment/queries.go
package appointmentRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"uplift/models"
)

func (r *mongoAppointmentRepo) ListByParticipant(ctx context.Context, userID string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"$or": []bson.M{
			{"clientId": userID},
			{"providerId": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// CountBooked re-derives the active booking count for a slot. The count is
// never persisted separately, so it cannot drift from the ledger.
func (r *mongoAppointmentRepo) CountBooked(ctx context.Context, slotID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{
		"slotId": slotID,
		"status": models.AppointmentStatusBooked,
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *mongoAppointmentRepo) HasBookedBy(ctx context.Context, slotID, clientID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{
		"slotId":   slotID,
		"clientId": clientID,
		"status":   models.AppointmentStatusBooked,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoAppointmentRepo) AnyBooked(ctx context.Context, slotID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{
		"slotId": slotID,
		"status": models.AppointmentStatusBooked,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
