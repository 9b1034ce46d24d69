// File: database/repository/appointment/transaction.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"uplift/models"
)

// InsertBooked performs the capacity check and the ledger insert inside a
// single Mongo transaction so two racing confirmations cannot both observe a
// free seat. The unique index on paymentSessionId additionally rejects a
// second insert for the same checkout session.
func (r *mongoAppointmentRepo) InsertBooked(ctx context.Context, appt *models.Appointment, capacity int) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	txnFn := func(sc mongo.SessionContext) error {
		n, err := r.coll.CountDocuments(sc, bson.M{
			"slotId": appt.SlotID,
			"status": models.AppointmentStatusBooked,
		})
		if err != nil {
			return fmt.Errorf("capacity count failed: %w", err)
		}
		if int(n) >= capacity {
			return ErrSlotFull
		}

		if _, err := r.coll.InsertOne(sc, appt); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateSession
			}
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		return nil
	}

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return fmt.Errorf("could not start transaction: %w", err)
		}
		if err := txnFn(sc); err != nil {
			_ = sess.AbortTransaction(sc)
			return err
		}
		return sess.CommitTransaction(sc)
	})
	return err
}
