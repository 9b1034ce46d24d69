package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uplift/models"
)

// seedSlotStartingIn plants a slot whose start is offset from now, bypassing
// the creation flow so boundary offsets near midnight stay representable.
func seedSlotStartingIn(t *testing.T, slots *memSlotRepo, offset time.Duration) *models.Slot {
	t.Helper()
	start := time.Now().Add(offset)
	slot := &models.Slot{
		ID:              uuid.New().String(),
		ProviderID:      provider.ID,
		Date:            start.Format(models.SlotDateLayout),
		StartTime:       start.Format(models.SlotTimeLayout),
		EndTime:         "23:59",
		Kind:            models.SlotKindVirtual,
		Mode:            models.SlotModeIndividual,
		MaxParticipants: 1,
		Price:           50,
		Status:          models.SlotStatusAvailable,
	}
	require.NoError(t, slots.Create(context.Background(), slot))
	return slot
}

func seedBooked(t *testing.T, appts *memApptRepo, slot *models.Slot, p models.Principal, sessionID string) *models.Appointment {
	t.Helper()
	appt := bookedAppointment(slot, p, sessionID)
	require.NoError(t, appts.InsertBooked(context.Background(), appt, slot.MaxParticipants))
	return appt
}

func TestCancelAppointmentByClientRefunds(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	res, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRefunded, res.Appointment.Status)
	require.NotNil(t, res.Refund)
	assert.Equal(t, appt.PaymentIntentID, res.Refund.PaymentIntentID)
	assert.Equal(t, 1, proc.refundCount())

	// The seat is released.
	assert.True(t, res.IsBookable)
}

func TestCancelAppointmentLeadTimeBoundary(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	// Just inside the 24h window: cancellation refused.
	tooLate := seedSlotStartingIn(t, slots, 23*time.Hour+59*time.Minute)
	apptLate := seedBooked(t, appts, tooLate, client1, "cs_late")
	_, err := svc.CancelAppointment(ctx, client1, apptLate.ID)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, 0, proc.refundCount())

	stored, err := appts.GetByID(ctx, apptLate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusBooked, stored.Status)

	// Just outside the window: allowed.
	early := seedSlotStartingIn(t, slots, 24*time.Hour+2*time.Minute)
	apptEarly := seedBooked(t, appts, early, client1, "cs_early")
	res, err := svc.CancelAppointment(ctx, client1, apptEarly.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRefunded, res.Appointment.Status)
}

func TestCancelAppointmentProviderAnytime(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	res, err := svc.CancelAppointment(ctx, provider, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRefunded, res.Appointment.Status)
	assert.Equal(t, 1, proc.refundCount())
}

func TestCancelAppointmentAdminAnytime(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	svc := newTestService(slots, appts, newFakeProcessor(), nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	res, err := svc.CancelAppointment(ctx, admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRefunded, res.Appointment.Status)
}

func TestCancelAppointmentNonParticipantForbidden(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	svc := newTestService(slots, appts, newFakeProcessor(), nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	_, err := svc.CancelAppointment(ctx, client2, appt.ID)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestCancelAppointmentUnknown(t *testing.T) {
	svc := newTestService(newMemSlotRepo(), newMemApptRepo(), newFakeProcessor(), nil)

	_, err := svc.CancelAppointment(context.Background(), client1, "missing")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCancelAppointmentRefundFailureLeavesBooked(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	proc.refundErr = errors.New("processor unavailable")
	_, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.Error(t, err)
	assert.Equal(t, CodePayment, CodeOf(err))

	stored, err := appts.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusBooked, stored.Status)

	// The attempt is retryable once the processor recovers.
	proc.refundErr = nil
	res, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusRefunded, res.Appointment.Status)
}

func TestCancelAppointmentTerminalStateConflicts(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	_, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.NoError(t, err)

	_, err = svc.CancelAppointment(ctx, client1, appt.ID)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, 1, proc.refundCount())
}

func TestCancelAppointmentUnpaidIsCancelledNotRefunded(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := bookedAppointment(slot, client1, "cs_1")
	appt.Paid = false
	appt.PaymentIntentID = ""
	require.NoError(t, appts.InsertBooked(ctx, appt, slot.MaxParticipants))

	res, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusCancelled, res.Appointment.Status)
	assert.Nil(t, res.Refund)
	assert.Equal(t, 0, proc.refundCount())
}

// A refund in flight must not hold the per-slot lock: while one client's
// cancellation is waiting on the processor, another client can still confirm
// a free seat on the same slot.
func TestCancelRefundDoesNotBlockConfirmations(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	proc.refundStarted = make(chan struct{}, 1)
	proc.refundGate = make(chan struct{})
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	start := time.Now().Add(48 * time.Hour)
	slot := &models.Slot{
		ID:              uuid.New().String(),
		ProviderID:      provider.ID,
		Date:            start.Format(models.SlotDateLayout),
		StartTime:       start.Format(models.SlotTimeLayout),
		EndTime:         "23:59",
		Kind:            models.SlotKindVirtual,
		Mode:            models.SlotModeGroup,
		MaxParticipants: 2,
		Price:           50,
		Status:          models.SlotStatusAvailable,
	}
	require.NoError(t, slots.Create(ctx, slot))

	appt := seedBooked(t, appts, slot, client1, "cs_1")
	proc.addPaidSession("cs_2", "pi_2", slot.ID)

	cancelDone := make(chan error, 1)
	go func() {
		_, err := svc.CancelAppointment(ctx, client1, appt.ID)
		cancelDone <- err
	}()

	// The cancellation is now blocked inside the processor call.
	select {
	case <-proc.refundStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation never reached the refund call")
	}

	confirmDone := make(chan error, 1)
	go func() {
		_, err := svc.ConfirmBooking(ctx, client2, models.ConfirmBookingRequest{
			SlotID:    slot.ID,
			SessionID: "cs_2",
		})
		confirmDone <- err
	}()

	select {
	case err := <-confirmDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation blocked while a refund was in flight")
	}

	close(proc.refundGate)
	require.NoError(t, <-cancelDone)

	count, err := appts.CountBooked(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCancelFreesSeatForRebooking(t *testing.T) {
	slots := newMemSlotRepo()
	appts := newMemApptRepo()
	proc := newFakeProcessor()
	svc := newTestService(slots, appts, proc, nil)
	ctx := context.Background()

	slot := seedSlotStartingIn(t, slots, 48*time.Hour)
	appt := seedBooked(t, appts, slot, client1, "cs_1")

	_, err := svc.StartCheckout(ctx, client2, slot.ID)
	require.Error(t, err)
	assert.Equal(t, CodeSlotFull, CodeOf(err))

	res, err := svc.CancelAppointment(ctx, client1, appt.ID)
	require.NoError(t, err)
	assert.True(t, res.IsBookable)

	_, err = svc.StartCheckout(ctx, client2, slot.ID)
	require.NoError(t, err)

	proc.markPaid("cs_test_1")
	conf, err := svc.ConfirmBooking(ctx, client2, models.ConfirmBookingRequest{
		SlotID:    slot.ID,
		SessionID: "cs_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, client2.ID, conf.Appointment.ClientID)
}
