package payment

import (
	"context"

	"uplift/models"
)

// Processor abstracts the external payment provider. The engine treats it as
// the source of truth for money movement: payment success is only ever read
// back from the processor, never inferred from client input.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, params models.CheckoutParams) (*models.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (*models.RefundRecord, error)
}
