package models

// CreateSlotRequest is the payload for publishing a new slot. Mode defaults
// to individual; MaxParticipants defaults to 1 for individual slots.
type CreateSlotRequest struct {
	Date            string  `json:"date" binding:"required"`
	StartTime       string  `json:"startTime" binding:"required"`
	EndTime         string  `json:"endTime" binding:"required"`
	Kind            string  `json:"kind" binding:"required"`
	Mode            string  `json:"mode"`
	MaxParticipants int     `json:"maxParticipants"`
	Price           float64 `json:"price" binding:"required"`
}

// CheckoutResponse carries the processor redirect target for a new payment
// session.
type CheckoutResponse struct {
	SessionURL string `json:"url"`
}

// ConfirmBookingRequest asks the engine to reconcile a checkout session into
// a booked appointment.
type ConfirmBookingRequest struct {
	SlotID    string `json:"slotId" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}

// BookingConfirmation is returned once a paid session has been promoted to a
// booked appointment.
type BookingConfirmation struct {
	Appointment Appointment `json:"appointment"`
	RoomURL     string      `json:"roomUrl"`
	IsBookable  bool        `json:"isBookable"`
}

// CancellationResult reports the terminal state of a cancelled or refunded
// appointment plus the slot's updated bookability.
type CancellationResult struct {
	Appointment Appointment   `json:"appointment"`
	Refund      *RefundRecord `json:"refund,omitempty"`
	IsBookable  bool          `json:"isBookable"`
}
