package booking

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SlotLocker serializes confirmations and cancellations targeting one slot.
// The lock scope covers the capacity re-check and the ledger write; it never
// spans a payment-processor round-trip.
type SlotLocker interface {
	Lock(ctx context.Context, slotID string) (release func(), err error)
}

const slotLockPrefix = "slotlock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlotLocker returns a SlotLocker backed by Redis SET NX with a TTL,
// for deployments running more than one engine instance.
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) SlotLocker {
	return &redisSlotLocker{client: client, ttl: ttl}
}

func (l *redisSlotLocker) Lock(ctx context.Context, slotID string) (func(), error) {
	key := slotLockPrefix + slotID
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}

	release := func() {
		// Token-checked delete so an expired lock reacquired by another
		// caller is never released from here.
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}
	return release, nil
}

type memorySlotLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemorySlotLocker returns an in-process SlotLocker for single-node
// deployments without Redis.
func NewMemorySlotLocker() SlotLocker {
	return &memorySlotLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memorySlotLocker) Lock(ctx context.Context, slotID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[slotID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slotID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }, nil
}
