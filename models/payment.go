package models

import "time"

// PaymentStatusPaid is the processor-side payment status required before any
// appointment may be created.
const PaymentStatusPaid = "paid"

// CheckoutParams describes a payment session to be created with the external
// processor. Amount is in minor currency units.
type CheckoutParams struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	ProductName string            `json:"productName"`
	SuccessURL  string            `json:"successUrl"`
	CancelURL   string            `json:"cancelUrl"`
	Metadata    map[string]string `json:"metadata"`
}

// CheckoutSession mirrors the subset of the processor's session object the
// engine consumes. The engine never trusts a client-supplied payment status;
// it always re-reads the session from the processor.
type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	PaymentStatus   string            `json:"paymentStatus"`
	PaymentIntentID string            `json:"paymentIntentId"`
	AmountTotal     int64             `json:"amountTotal"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
}

// RefundRecord is the processor's acknowledgement of a refund request.
type RefundRecord struct {
	ID              string    `json:"id"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}
