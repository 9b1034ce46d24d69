package booking

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"uplift/models"
)

// ListMyAppointments returns appointments where the caller is the client or
// the provider. With activeOnly set, only booked appointments are included.
func (s *DefaultBookingService) ListMyAppointments(ctx context.Context, principal models.Principal, activeOnly bool) ([]models.Appointment, error) {
	appts, err := s.ApptRepo.ListByParticipant(ctx, principal.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to list appointments", err)
	}
	if !activeOnly {
		return appts, nil
	}

	active := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status == models.AppointmentStatusBooked {
			active = append(active, a)
		}
	}
	return active, nil
}

// GetAppointment returns a single appointment to one of its participants or
// an admin.
func (s *DefaultBookingService) GetAppointment(ctx context.Context, principal models.Principal, id string) (*models.Appointment, error) {
	appt, err := s.ApptRepo.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, newError(CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, wrapError(CodeInternal, "appointment lookup failed", err)
	}

	if !appt.IsParticipant(principal.ID) && !principal.IsAdmin() {
		return nil, newError(CodeForbidden, "you are not a participant of this appointment")
	}
	return appt, nil
}
