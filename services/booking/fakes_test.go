package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	appointmentRepo "uplift/database/repository/appointment"
	"uplift/models"
)

// memSlotRepo is an in-memory SlotRepository mirroring the Mongo
// implementation's semantics, including its not-found sentinel.
type memSlotRepo struct {
	mu    sync.RWMutex
	slots map[string]models.Slot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[string]models.Slot)}
}

func (r *memSlotRepo) Create(_ context.Context, slot *models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	r.slots[slot.ID] = *slot
	return nil
}

func (r *memSlotRepo) GetByID(_ context.Context, slotID string) (*models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[slotID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &slot, nil
}

func (r *memSlotRepo) Delete(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slotID]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.slots, slotID)
	return nil
}

func (r *memSlotRepo) FindOverlapping(_ context.Context, providerID, date, startTime, endTime string) (*models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, slot := range r.slots {
		if slot.ProviderID != providerID || slot.Date != date || slot.Status != models.SlotStatusAvailable {
			continue
		}
		if slot.StartTime < endTime && slot.EndTime > startTime {
			s := slot
			return &s, nil
		}
	}
	return nil, nil
}

func (r *memSlotRepo) ListAvailableExcluding(_ context.Context, providerID string) ([]models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Slot
	for _, slot := range r.slots {
		if slot.Status == models.SlotStatusAvailable && slot.ProviderID != providerID {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out, nil
}

func (r *memSlotRepo) ListByProvider(_ context.Context, providerID string) ([]models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Slot
	for _, slot := range r.slots {
		if slot.ProviderID == providerID {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out, nil
}

func (r *memSlotRepo) ListUpcomingByProvider(_ context.Context, providerID, fromDate string) ([]models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Slot
	for _, slot := range r.slots {
		if slot.ProviderID == providerID && slot.Date >= fromDate {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out, nil
}

func sortSlots(slots []models.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// memApptRepo is an in-memory AppointmentRepository whose InsertBooked holds
// the capacity and session-uniqueness checks in one critical section, same as
// the Mongo transaction.
type memApptRepo struct {
	mu    sync.Mutex
	appts map[string]models.Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: make(map[string]models.Appointment)}
}

func (r *memApptRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &appt, nil
}

func (r *memApptRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appt := range r.appts {
		if appt.PaymentSessionID == sessionID {
			a := appt
			return &a, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memApptRepo) ListByParticipant(_ context.Context, userID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.ClientID == userID || appt.ProviderID == userID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (r *memApptRepo) CountBooked(_ context.Context, slotID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countBookedLocked(slotID), nil
}

func (r *memApptRepo) countBookedLocked(slotID string) int {
	n := 0
	for _, appt := range r.appts {
		if appt.SlotID == slotID && appt.Status == models.AppointmentStatusBooked {
			n++
		}
	}
	return n
}

func (r *memApptRepo) HasBookedBy(_ context.Context, slotID, clientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appt := range r.appts {
		if appt.SlotID == slotID && appt.ClientID == clientID && appt.Status == models.AppointmentStatusBooked {
			return true, nil
		}
	}
	return false, nil
}

func (r *memApptRepo) AnyBooked(_ context.Context, slotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countBookedLocked(slotID) > 0, nil
}

func (r *memApptRepo) InsertBooked(_ context.Context, appt *models.Appointment, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countBookedLocked(appt.SlotID) >= capacity {
		return appointmentRepo.ErrSlotFull
	}
	for _, existing := range r.appts {
		if existing.PaymentSessionID == appt.PaymentSessionID {
			return appointmentRepo.ErrDuplicateSession
		}
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	r.appts[appt.ID] = *appt
	return nil
}

func (r *memApptRepo) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok || appt.Status != from {
		return false, nil
	}
	appt.Status = to
	appt.UpdatedAt = time.Now()
	r.appts[id] = appt
	return true, nil
}

func (r *memApptRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	appt.Status = status
	appt.UpdatedAt = time.Now()
	r.appts[id] = appt
	return nil
}

// fakeProcessor simulates the payment processor. refundStarted receives a
// signal when a refund call begins; a non-nil refundGate blocks the refund
// until it is closed, letting tests hold a refund in flight.
type fakeProcessor struct {
	mu            sync.Mutex
	sessions      map[string]*models.CheckoutSession
	created       []models.CheckoutParams
	refunded      []string
	refundErr     error
	refundStarted chan struct{}
	refundGate    chan struct{}
	seq           int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: make(map[string]*models.CheckoutSession)}
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, params models.CheckoutParams) (*models.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	sess := &models.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		PaymentStatus: "unpaid",
		AmountTotal:   params.Amount,
		Currency:      params.Currency,
		Metadata:      params.Metadata,
	}
	p.sessions[id] = sess
	p.created = append(p.created, params)
	return sess, nil
}

func (p *fakeProcessor) RetrieveSession(_ context.Context, sessionID string) (*models.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	dup := *sess
	return &dup, nil
}

func (p *fakeProcessor) CreateRefund(_ context.Context, paymentIntentID string) (*models.RefundRecord, error) {
	p.mu.Lock()
	started := p.refundStarted
	gate := p.refundGate
	p.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	p.refunded = append(p.refunded, paymentIntentID)
	return &models.RefundRecord{
		ID:              fmt.Sprintf("re_test_%d", len(p.refunded)),
		PaymentIntentID: paymentIntentID,
		Status:          "succeeded",
		CreatedAt:       time.Now(),
	}, nil
}

// addPaidSession registers a session already paid on the processor side.
func (p *fakeProcessor) addPaidSession(id, paymentIntentID, slotID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id] = &models.CheckoutSession{
		ID:              id,
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentIntentID: paymentIntentID,
		Metadata:        map[string]string{"slotId": slotID},
	}
}

// addPaidSessionFor is addPaidSession with a clientId claim in the metadata.
func (p *fakeProcessor) addPaidSessionFor(id, paymentIntentID, slotID, clientID string) {
	p.addPaidSession(id, paymentIntentID, slotID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id].Metadata["clientId"] = clientID
}

// markPaid flips an existing session to paid with a fresh payment intent.
func (p *fakeProcessor) markPaid(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.sessions[id]; ok {
		sess.PaymentStatus = models.PaymentStatusPaid
		sess.PaymentIntentID = "pi_" + id
	}
}

func (p *fakeProcessor) refundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refunded)
}

// fakeRefundQueue records enqueued compensations.
type fakeRefundQueue struct {
	mu       sync.Mutex
	payloads []string
}

func (q *fakeRefundQueue) EnqueueCompensation(_ context.Context, paymentIntentID, _, _, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, paymentIntentID)
	return nil
}

func (q *fakeRefundQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.payloads)
}

// bookedAppointment builds a paid booked appointment for direct repo seeding.
func bookedAppointment(slot *models.Slot, principal models.Principal, sessionID string) *models.Appointment {
	return &models.Appointment{
		ID:               uuid.New().String(),
		SlotID:           slot.ID,
		ProviderID:       slot.ProviderID,
		ClientID:         principal.ID,
		Status:           models.AppointmentStatusBooked,
		Paid:             true,
		PaymentSessionID: sessionID,
		PaymentIntentID:  "pi_" + sessionID,
		Amount:           slot.Price,
		Currency:         "usd",
	}
}

func newTestService(slots *memSlotRepo, appts appointmentRepo.AppointmentRepository, proc *fakeProcessor, queue RefundEnqueuer) *DefaultBookingService {
	return &DefaultBookingService{
		SlotRepo:    slots,
		ApptRepo:    appts,
		Payments:    proc,
		Locker:      NewMemorySlotLocker(),
		RefundQueue: queue,
		Policy: Policy{
			Currency:         "usd",
			ClientURL:        "http://client.test",
			CancellationLead: 24 * time.Hour,
			Location:         time.Local,
		},
		Logger: zap.NewNop(),
	}
}
