package models

import "time"

// Appointment lifecycle statuses. Cancelled and refunded are terminal.
const (
	AppointmentStatusBooked    = "booked"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusRefunded  = "refunded"
)

// Appointment is the authoritative ledger record of a confirmed booking. It
// is created only after the payment processor reports the checkout session as
// paid, and for any slot the number of booked appointments never exceeds the
// slot's MaxParticipants.
type Appointment struct {
	ID               string    `bson:"id" json:"id"`
	SlotID           string    `bson:"slotId" json:"slotId"`
	ProviderID       string    `bson:"providerId" json:"providerId"`
	ClientID         string    `bson:"clientId" json:"clientId"`
	Status           string    `bson:"status" json:"status"`
	Paid             bool      `bson:"paid" json:"paid"`
	PaymentSessionID string    `bson:"paymentSessionId" json:"paymentSessionId"`
	PaymentIntentID  string    `bson:"paymentIntentId" json:"paymentIntentId"`
	RoomID           string    `bson:"roomId" json:"roomId"`
	Amount           float64   `bson:"amount" json:"amount"`
	Currency         string    `bson:"currency" json:"currency"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsParticipant reports whether the given user is the client or the provider
// on this appointment.
func (a Appointment) IsParticipant(userID string) bool {
	return a.ClientID == userID || a.ProviderID == userID
}
