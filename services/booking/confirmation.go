package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	appointmentRepo "uplift/database/repository/appointment"
	"uplift/models"
)

const roomURLBase = "https://meet.jit.si/"

// ConfirmBooking reconciles a checkout session into a booked appointment.
// Payment state is read back from the processor, never trusted from the
// caller, and the capacity check plus the ledger insert happen under the
// per-slot lock. Confirming the same session twice returns the appointment
// created by the first call.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, principal models.Principal, req models.ConfirmBookingRequest) (*models.BookingConfirmation, error) {
	// Processor round-trip happens before the lock is taken so its latency
	// never blocks other confirmations on the slot.
	sess, err := s.Payments.RetrieveSession(ctx, req.SessionID)
	if err != nil {
		return nil, wrapError(CodePayment, "failed to retrieve payment session", err)
	}
	if sess.PaymentStatus != models.PaymentStatusPaid {
		return nil, newError(CodePayment, "payment not confirmed")
	}
	if sess.PaymentIntentID == "" {
		return nil, newError(CodePayment, "payment intent not found in session")
	}
	if slotID, ok := sess.Metadata["slotId"]; ok && slotID != req.SlotID {
		return nil, newError(CodeValidation, "session does not belong to this slot")
	}
	if clientID, ok := sess.Metadata["clientId"]; ok && clientID != principal.ID {
		return nil, newError(CodeForbidden, "session belongs to another client")
	}

	if existing, err := s.ApptRepo.GetBySessionID(ctx, req.SessionID); err == nil {
		return s.confirmationFor(ctx, existing)
	} else if err != mongo.ErrNoDocuments {
		return nil, wrapError(CodeInternal, "appointment lookup failed", err)
	}

	result, err := func() (*models.BookingConfirmation, error) {
		release, err := s.Locker.Lock(ctx, req.SlotID)
		if err != nil {
			return nil, wrapError(CodeInternal, "failed to acquire slot lock", err)
		}
		defer release()
		return s.confirmLocked(ctx, principal, req, sess)
	}()

	if err != nil && CodeOf(err) == CodeSlotFull {
		// The charge was captured before capacity could be re-validated.
		// Queue a compensating refund so the client is made whole.
		s.compensateLostSeat(ctx, sess, req.SlotID, principal.ID)
	}
	return result, err
}

// confirmLocked runs the capacity re-check and the ledger insert. Caller
// holds the per-slot lock.
func (s *DefaultBookingService) confirmLocked(ctx context.Context, principal models.Principal, req models.ConfirmBookingRequest, sess *models.CheckoutSession) (*models.BookingConfirmation, error) {
	slot, err := s.SlotRepo.GetByID(ctx, req.SlotID)
	if err == mongo.ErrNoDocuments {
		return nil, newError(CodeNotFound, "slot not found")
	}
	if err != nil {
		return nil, wrapError(CodeInternal, "slot lookup failed", err)
	}
	if slot.Status != models.SlotStatusAvailable {
		return nil, newError(CodeNotFound, "slot not available")
	}

	count, err := s.ApptRepo.CountBooked(ctx, slot.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to derive booked count", err)
	}
	if count >= slot.MaxParticipants {
		return nil, newError(CodeSlotFull, "slot is full")
	}

	appt := &models.Appointment{
		ID:               uuid.New().String(),
		SlotID:           slot.ID,
		ProviderID:       slot.ProviderID,
		ClientID:         principal.ID,
		Status:           models.AppointmentStatusBooked,
		Paid:             true,
		PaymentSessionID: sess.ID,
		PaymentIntentID:  sess.PaymentIntentID,
		RoomID:           fmt.Sprintf("uplift_%s_%d", slot.ID, time.Now().UnixMilli()),
		Amount:           slot.Price,
		Currency:         s.Policy.Currency,
	}

	err = s.ApptRepo.InsertBooked(ctx, appt, slot.MaxParticipants)
	switch err {
	case nil:
	case appointmentRepo.ErrSlotFull:
		return nil, newError(CodeSlotFull, "slot is full")
	case appointmentRepo.ErrDuplicateSession:
		existing, lookupErr := s.ApptRepo.GetBySessionID(ctx, sess.ID)
		if lookupErr != nil {
			return nil, wrapError(CodeInternal, "appointment lookup failed", lookupErr)
		}
		return s.confirmationFor(ctx, existing)
	default:
		return nil, wrapError(CodeInternal, "booking transaction failed", err)
	}

	s.logger().Info("appointment booked",
		zap.String("appointment", appt.ID),
		zap.String("slot", slot.ID),
		zap.String("client", principal.ID))

	return &models.BookingConfirmation{
		Appointment: *appt,
		RoomURL:     roomURLBase + appt.RoomID,
		IsBookable:  count+1 < slot.MaxParticipants,
	}, nil
}

func (s *DefaultBookingService) confirmationFor(ctx context.Context, appt *models.Appointment) (*models.BookingConfirmation, error) {
	slot, err := s.SlotRepo.GetByID(ctx, appt.SlotID)
	if err != nil {
		return nil, wrapError(CodeInternal, "slot lookup failed", err)
	}
	bookable, err := s.isBookable(ctx, slot)
	if err != nil {
		return nil, err
	}
	return &models.BookingConfirmation{
		Appointment: *appt,
		RoomURL:     roomURLBase + appt.RoomID,
		IsBookable:  bookable,
	}, nil
}

// compensateLostSeat returns a captured charge after the seat was lost to a
// racing confirmation. The refund goes through the durable queue when one is
// configured, falling back to an inline attempt.
func (s *DefaultBookingService) compensateLostSeat(ctx context.Context, sess *models.CheckoutSession, slotID, clientID string) {
	if s.RefundQueue != nil {
		if err := s.RefundQueue.EnqueueCompensation(ctx, sess.PaymentIntentID, sess.ID, slotID, clientID); err == nil {
			s.logger().Info("compensating refund enqueued",
				zap.String("slot", slotID),
				zap.String("paymentIntent", sess.PaymentIntentID))
			return
		} else {
			s.logger().Error("failed to enqueue compensating refund, attempting inline", zap.Error(err))
		}
	}

	if _, err := s.Payments.CreateRefund(ctx, sess.PaymentIntentID); err != nil {
		s.logger().Error("compensating refund failed; manual intervention required",
			zap.String("slot", slotID),
			zap.String("client", clientID),
			zap.String("paymentIntent", sess.PaymentIntentID),
			zap.Error(err))
		return
	}
	s.logger().Info("compensating refund issued inline",
		zap.String("slot", slotID),
		zap.String("paymentIntent", sess.PaymentIntentID))
}
