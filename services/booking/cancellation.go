package booking

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"uplift/models"
)

// CancelAppointment drives the booked → cancelled/refunded transition. Only
// the two participants or an admin may request it; clients are additionally
// bound by the cancellation lead time. A paid appointment is refunded through
// the processor before its status changes: if the refund call fails the
// appointment stays booked so the attempt can be retried.
func (s *DefaultBookingService) CancelAppointment(ctx context.Context, principal models.Principal, id string) (*models.CancellationResult, error) {
	appt, err := s.ApptRepo.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, newError(CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, wrapError(CodeInternal, "appointment lookup failed", err)
	}

	if !appt.IsParticipant(principal.ID) && !principal.IsAdmin() {
		return nil, newError(CodeForbidden, "you are not authorized to cancel this appointment")
	}

	slot, err := s.SlotRepo.GetByID(ctx, appt.SlotID)
	if err != nil {
		return nil, wrapError(CodeInternal, "slot lookup failed", err)
	}

	// Clients must respect the lead-time window, computed from the slot's
	// own date and start-time fields. Providers and admins may cancel at any
	// time; a provider-initiated cancellation always makes the client whole.
	if principal.ID == appt.ClientID && !principal.IsAdmin() {
		start, err := slot.StartAt(s.location())
		if err != nil {
			return nil, wrapError(CodeInternal, "malformed slot time", err)
		}
		if time.Until(start) < s.Policy.CancellationLead {
			hours := int(s.Policy.CancellationLead / time.Hour)
			return nil, newError(CodeConflict,
				fmt.Sprintf("appointments can only be cancelled at least %dh in advance", hours))
		}
	}

	// Serialize the active-state check with confirmations targeting the
	// same slot. The lock is released before any processor round-trip.
	appt, err = s.activeUnderLock(ctx, appt.SlotID, id)
	if err != nil {
		return nil, err
	}

	var refundRec *models.RefundRecord
	nextStatus := models.AppointmentStatusCancelled
	if appt.Paid {
		// Refund first, transition after. A failed refund leaves the
		// appointment booked; never mark refunded without processor
		// confirmation.
		refundRec, err = s.Payments.CreateRefund(ctx, appt.PaymentIntentID)
		if err != nil {
			return nil, wrapError(CodePayment, "refund failed; appointment remains active", err)
		}
		nextStatus = models.AppointmentStatusRefunded
	}

	transitioned, err := s.ApptRepo.TransitionStatus(ctx, appt.ID, models.AppointmentStatusBooked, nextStatus)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to update appointment", err)
	}
	if !transitioned {
		// A racing cancellation transitioned the appointment while the
		// refund was in flight. The processor rejects a second refund for
		// the same payment intent, so no charge is returned twice.
		return nil, newError(CodeConflict, "appointment is not active")
	}
	appt.Status = nextStatus

	bookable, err := s.isBookable(ctx, slot)
	if err != nil {
		return nil, err
	}

	s.logger().Info("appointment cancelled",
		zap.String("appointment", appt.ID),
		zap.String("slot", appt.SlotID),
		zap.String("by", principal.ID),
		zap.String("status", nextStatus))

	return &models.CancellationResult{
		Appointment: *appt,
		Refund:      refundRec,
		IsBookable:  bookable,
	}, nil
}

// activeUnderLock re-reads the appointment under the per-slot lock and
// verifies it is still booked. The lock never covers a processor call; the
// final transition is guarded by a conditional status update instead.
func (s *DefaultBookingService) activeUnderLock(ctx context.Context, slotID, id string) (*models.Appointment, error) {
	release, err := s.Locker.Lock(ctx, slotID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to acquire slot lock", err)
	}
	defer release()

	appt, err := s.ApptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapError(CodeInternal, "appointment lookup failed", err)
	}
	if appt.Status != models.AppointmentStatusBooked {
		return nil, newError(CodeConflict, "appointment is not active")
	}
	return appt, nil
}
