package booking

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"uplift/models"
)

// StartCheckout creates a payment session for a slot at its current price and
// returns the processor redirect target. The session is the reservation
// intent: it holds no capacity, and capacity is re-validated at confirmation.
func (s *DefaultBookingService) StartCheckout(ctx context.Context, principal models.Principal, slotID string) (*models.CheckoutResponse, error) {
	slot, err := s.SlotRepo.GetByID(ctx, slotID)
	if err == mongo.ErrNoDocuments {
		return nil, newError(CodeNotFound, "slot not found")
	}
	if err != nil {
		return nil, wrapError(CodeInternal, "slot lookup failed", err)
	}
	if slot.Status != models.SlotStatusAvailable {
		return nil, newError(CodeNotFound, "slot not available")
	}
	if slot.ProviderID == principal.ID {
		return nil, newError(CodeForbidden, "you cannot book your own slot")
	}

	count, err := s.ApptRepo.CountBooked(ctx, slot.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to derive booked count", err)
	}
	if count >= slot.MaxParticipants {
		return nil, newError(CodeSlotFull, "slot is already full")
	}

	alreadyBooked, err := s.ApptRepo.HasBookedBy(ctx, slot.ID, principal.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "booking lookup failed", err)
	}
	if alreadyBooked {
		return nil, newError(CodeConflict, "you have already booked this slot")
	}

	sess, err := s.Payments.CreateCheckoutSession(ctx, models.CheckoutParams{
		Amount:      int64(math.Round(slot.Price * 100)),
		Currency:    s.Policy.Currency,
		ProductName: fmt.Sprintf("Session with provider (%s)", slot.Kind),
		SuccessURL:  s.Policy.ClientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}&slotId=" + slot.ID,
		CancelURL:   s.Policy.ClientURL + "/payment-cancel",
		Metadata: map[string]string{
			"slotId":     slot.ID,
			"providerId": slot.ProviderID,
			"clientId":   principal.ID,
		},
	})
	if err != nil {
		return nil, wrapError(CodePayment, "failed to create payment session", err)
	}

	s.logger().Info("checkout session started",
		zap.String("slot", slot.ID),
		zap.String("client", principal.ID),
		zap.String("session", sess.ID))
	return &models.CheckoutResponse{SessionURL: sess.URL}, nil
}
