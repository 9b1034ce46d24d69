package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypeRefundCompensate = "refund:compensate"

// RefundPayload describes a compensating refund for a charge whose seat was
// lost to a racing confirmation.
type RefundPayload struct {
	PaymentIntentID string `json:"paymentIntentId"`
	SessionID       string `json:"sessionId"`
	SlotID          string `json:"slotId"`
	ClientID        string `json:"clientId"`
	Reason          string `json:"reason"`
}

func NewRefundCompensationTask(payload RefundPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRefundCompensate, b)
	opts := []asynq.Option{asynq.MaxRetry(10), asynq.Queue("default")}

	return task, opts, nil
}

// Queue wraps the asynq client used to enqueue refund compensations.
type Queue struct {
	client *asynq.Client
}

// NewQueue constructs a refund queue over the given Redis instance.
func NewQueue(addr, password string, db int) *Queue {
	return &Queue{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// EnqueueCompensation schedules a durable, retried refund for the captured
// payment.
func (q *Queue) EnqueueCompensation(ctx context.Context, paymentIntentID, sessionID, slotID, clientID string) error {
	task, opts, err := NewRefundCompensationTask(RefundPayload{
		PaymentIntentID: paymentIntentID,
		SessionID:       sessionID,
		SlotID:          slotID,
		ClientID:        clientID,
		Reason:          "slot_full",
	})
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task, opts...)
	return err
}

// Close releases the underlying asynq client.
func (q *Queue) Close() error {
	return q.client.Close()
}
