package booking

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"uplift/models"
)

// CreateSlot publishes a new bookable time window for the calling provider.
// All validation happens before any write; overlap with the provider's own
// available slots on the same date is a conflict.
func (s *DefaultBookingService) CreateSlot(ctx context.Context, principal models.Principal, req models.CreateSlotRequest) (*models.Slot, error) {
	if !principal.IsProvider() {
		return nil, newError(CodeForbidden, "only providers can create slots")
	}

	slot, err := buildSlot(principal.ID, req)
	if err != nil {
		return nil, err
	}

	overlap, err := s.SlotRepo.FindOverlapping(ctx, principal.ID, slot.Date, slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, wrapError(CodeInternal, "overlap lookup failed", err)
	}
	if overlap != nil {
		return nil, newError(CodeConflict, "overlapping slot exists")
	}

	if err := s.SlotRepo.Create(ctx, slot); err != nil {
		return nil, wrapError(CodeInternal, "failed to create slot", err)
	}

	s.logger().Info("slot created",
		zap.String("slot", slot.ID),
		zap.String("provider", principal.ID),
		zap.String("date", slot.Date))
	return slot, nil
}

func buildSlot(providerID string, req models.CreateSlotRequest) (*models.Slot, error) {
	date, err := time.Parse(models.SlotDateLayout, req.Date)
	if err != nil {
		return nil, newError(CodeValidation, "date must be YYYY-MM-DD")
	}
	start, err := time.Parse(models.SlotTimeLayout, req.StartTime)
	if err != nil {
		return nil, newError(CodeValidation, "startTime must be HH:MM")
	}
	end, err := time.Parse(models.SlotTimeLayout, req.EndTime)
	if err != nil {
		return nil, newError(CodeValidation, "endTime must be HH:MM")
	}
	if !start.Before(end) {
		return nil, newError(CodeValidation, "startTime must be before endTime")
	}

	if req.Kind != models.SlotKindInPerson && req.Kind != models.SlotKindVirtual {
		return nil, newError(CodeValidation, "kind must be in_person or virtual")
	}

	mode := req.Mode
	if mode == "" {
		mode = models.SlotModeIndividual
	}
	capacity := req.MaxParticipants
	switch mode {
	case models.SlotModeIndividual:
		if capacity == 0 {
			capacity = 1
		}
		if capacity != 1 {
			return nil, newError(CodeValidation, "individual slots must have maxParticipants = 1")
		}
	case models.SlotModeGroup:
		if capacity <= 1 {
			return nil, newError(CodeValidation, "group slots must have maxParticipants > 1")
		}
	default:
		return nil, newError(CodeValidation, "mode must be individual or group")
	}

	if req.Price <= 0 {
		return nil, newError(CodeValidation, "price must be positive")
	}

	return &models.Slot{
		ProviderID:      providerID,
		Date:            date.Format(models.SlotDateLayout),
		StartTime:       start.Format(models.SlotTimeLayout),
		EndTime:         end.Format(models.SlotTimeLayout),
		Kind:            req.Kind,
		Mode:            mode,
		MaxParticipants: capacity,
		Price:           req.Price,
		Status:          models.SlotStatusAvailable,
	}, nil
}

// DeleteSlot removes a slot that has no active bookings. Only the owning
// provider may delete it.
func (s *DefaultBookingService) DeleteSlot(ctx context.Context, principal models.Principal, slotID string) error {
	slot, err := s.SlotRepo.GetByID(ctx, slotID)
	if err == mongo.ErrNoDocuments {
		return newError(CodeNotFound, "slot not found")
	}
	if err != nil {
		return wrapError(CodeInternal, "slot lookup failed", err)
	}

	if slot.ProviderID != principal.ID {
		return newError(CodeForbidden, "you can only delete your own slots")
	}

	booked, err := s.ApptRepo.AnyBooked(ctx, slotID)
	if err != nil {
		return wrapError(CodeInternal, "booking lookup failed", err)
	}
	if booked {
		return newError(CodeConflict, "slot has active bookings and cannot be deleted")
	}

	if err := s.SlotRepo.Delete(ctx, slotID); err != nil {
		return wrapError(CodeInternal, "failed to delete slot", err)
	}
	s.logger().Info("slot deleted", zap.String("slot", slotID), zap.String("provider", principal.ID))
	return nil
}

// ListAvailableSlots returns available slots excluding the caller's own, each
// annotated with its re-derived booked count and a full flag.
func (s *DefaultBookingService) ListAvailableSlots(ctx context.Context, principal models.Principal) ([]models.SlotView, error) {
	slots, err := s.SlotRepo.ListAvailableExcluding(ctx, principal.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to list slots", err)
	}

	views := make([]models.SlotView, 0, len(slots))
	for _, slot := range slots {
		count, err := s.ApptRepo.CountBooked(ctx, slot.ID)
		if err != nil {
			return nil, wrapError(CodeInternal, "failed to derive booked count", err)
		}
		views = append(views, models.SlotView{
			Slot:        slot,
			BookedCount: count,
			IsFull:      count >= slot.MaxParticipants,
		})
	}
	return views, nil
}

// ListProviderSlots returns the calling provider's own slots.
func (s *DefaultBookingService) ListProviderSlots(ctx context.Context, principal models.Principal) ([]models.Slot, error) {
	if !principal.IsProvider() {
		return nil, newError(CodeForbidden, "only providers can view their slots")
	}
	slots, err := s.SlotRepo.ListByProvider(ctx, principal.ID)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to list slots", err)
	}
	return slots, nil
}

// ProviderCalendar is the public projection of a provider's upcoming slots,
// each marked booked or available from the ledger.
func (s *DefaultBookingService) ProviderCalendar(ctx context.Context, providerID string) ([]models.CalendarEntry, error) {
	today := time.Now().In(s.location()).Format(models.SlotDateLayout)
	slots, err := s.SlotRepo.ListUpcomingByProvider(ctx, providerID, today)
	if err != nil {
		return nil, wrapError(CodeInternal, "failed to list slots", err)
	}

	entries := make([]models.CalendarEntry, 0, len(slots))
	for _, slot := range slots {
		start, err := slot.StartAt(s.location())
		if err != nil {
			return nil, wrapError(CodeInternal, "malformed slot time", err)
		}
		end, err := slot.EndAt(s.location())
		if err != nil {
			return nil, wrapError(CodeInternal, "malformed slot time", err)
		}

		count, err := s.ApptRepo.CountBooked(ctx, slot.ID)
		if err != nil {
			return nil, wrapError(CodeInternal, "failed to derive booked count", err)
		}

		entry := models.CalendarEntry{
			SlotID:          slot.ID,
			Title:           "Available Slot",
			Start:           start,
			End:             end,
			Status:          models.SlotStatusAvailable,
			Kind:            slot.Kind,
			Mode:            slot.Mode,
			Price:           slot.Price,
			MaxParticipants: slot.MaxParticipants,
		}
		if count > 0 {
			entry.Title = "Booked Appointment"
			entry.Status = models.AppointmentStatusBooked
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
