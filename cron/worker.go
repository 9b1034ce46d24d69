package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"uplift/config"
	"uplift/services/payment"
	"uplift/services/tasks"
)

// InitRefundWorker runs the async refund worker in background. It drains the
// compensation queue, issuing refunds for charges captured against seats
// that were lost to racing confirmations. asynq retries failed tasks with
// backoff, so a transient processor outage never strands a charge.
func InitRefundWorker(processor payment.Processor) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisRefundQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRefundCompensate, handleRefundTask(processor))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[RefundWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[RefundWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[RefundWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleRefundTask(processor payment.Processor) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.RefundPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[RefundHandler] Invalid payload: %v", err)
			return err
		}

		log.Printf("[RefundHandler] Compensating refund for slot %s, client %s (%s)", p.SlotID, p.ClientID, p.Reason)

		rec, err := processor.CreateRefund(ctx, p.PaymentIntentID)
		if err != nil {
			// Returning the error hands the task back to asynq for retry.
			log.Printf("[RefundHandler] Refund failed for %s: %v", p.PaymentIntentID, err)
			return err
		}

		log.Printf("[RefundHandler] Refund %s issued for %s", rec.ID, p.PaymentIntentID)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisRefundQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[RefundWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
