package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"

	"uplift/models"
)

// StripeProcessor drives Stripe Checkout sessions and refunds. The global
// stripe.Key is set once at startup from configuration.
type StripeProcessor struct {
	logger *zap.Logger
}

// NewStripeProcessor constructs a Stripe-backed Processor.
func NewStripeProcessor(logger *zap.Logger) *StripeProcessor {
	return &StripeProcessor{logger: logger}
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, params models.CheckoutParams) (*models.CheckoutSession, error) {
	sessParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.ProductName),
					},
					UnitAmount: stripe.Int64(params.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessParams.Context = ctx
	for k, v := range params.Metadata {
		sessParams.AddMetadata(k, v)
	}

	s, err := session.New(sessParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create failed: %w", err)
	}

	p.logger.Info("Stripe checkout session created", zap.String("session", s.ID))
	return fromStripeSession(s), nil
}

func (p *StripeProcessor) RetrieveSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session retrieve failed: %w", err)
	}
	return fromStripeSession(s), nil
}

func (p *StripeProcessor) CreateRefund(ctx context.Context, paymentIntentID string) (*models.RefundRecord, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund create failed: %w", err)
	}

	p.logger.Info("Stripe refund issued",
		zap.String("refund", r.ID),
		zap.String("paymentIntent", paymentIntentID))

	return &models.RefundRecord{
		ID:              r.ID,
		PaymentIntentID: paymentIntentID,
		Status:          string(r.Status),
		CreatedAt:       time.Unix(r.Created, 0),
	}, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
