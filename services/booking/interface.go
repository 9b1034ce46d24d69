package booking

import (
	"context"

	"uplift/models"
)

// BookingService is the façade sequencing slot management, payment
// reconciliation and cancellation for each client request.
type BookingService interface {
	CreateSlot(ctx context.Context, principal models.Principal, req models.CreateSlotRequest) (*models.Slot, error)
	DeleteSlot(ctx context.Context, principal models.Principal, slotID string) error
	ListAvailableSlots(ctx context.Context, principal models.Principal) ([]models.SlotView, error)
	ListProviderSlots(ctx context.Context, principal models.Principal) ([]models.Slot, error)
	ProviderCalendar(ctx context.Context, providerID string) ([]models.CalendarEntry, error)

	StartCheckout(ctx context.Context, principal models.Principal, slotID string) (*models.CheckoutResponse, error)
	ConfirmBooking(ctx context.Context, principal models.Principal, req models.ConfirmBookingRequest) (*models.BookingConfirmation, error)

	ListMyAppointments(ctx context.Context, principal models.Principal, activeOnly bool) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, principal models.Principal, id string) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, principal models.Principal, id string) (*models.CancellationResult, error)
}
