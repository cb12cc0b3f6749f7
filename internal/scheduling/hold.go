package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlotHolder serializes booking attempts on a slot across API instances. The
// hold is an optimization that turns most lost races into a fast failure; the
// store's conditional write remains the correctness guarantee.
type SlotHolder interface {
	WithSlotHold(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error
}

// RedisSlotHolder takes a short-TTL per-slot key via SETNX.
type RedisSlotHolder struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SlotHolder = (*RedisSlotHolder)(nil)

// NewRedisSlotHolder creates a holder with the given hold TTL.
func NewRedisSlotHolder(client *redis.Client, ttl time.Duration) *RedisSlotHolder {
	if client == nil {
		panic("scheduling: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSlotHolder{client: client, ttl: ttl}
}

// WithSlotHold runs fn while holding the slot. A slot already held by another
// booking attempt fails with ErrSlotTaken.
func (h *RedisSlotHolder) WithSlotHold(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	key := "hold:slot:" + slotKey
	token := uuid.NewString()

	ok, err := h.client.SetNX(ctx, key, token, h.ttl).Result()
	if err != nil {
		return fmt.Errorf("scheduling: acquire slot hold: %w", err)
	}
	if !ok {
		return ErrSlotTaken
	}
	defer func() {
		_ = h.release(ctx, key, token)
	}()

	holdCtx, cancel := context.WithTimeout(ctx, h.ttl)
	defer cancel()
	return fn(holdCtx)
}

// releaseScript deletes the hold only if we still own it, so an expired hold
// reclaimed by another booking is never released from under them.
var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (h *RedisSlotHolder) release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, h.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("scheduling: release slot hold: %w", err)
	}
	return nil
}

// NoopSlotHolder runs fn directly. Used when Redis is not configured; the
// store's conditional write still rejects double bookings.
type NoopSlotHolder struct{}

var _ SlotHolder = NoopSlotHolder{}

// WithSlotHold invokes fn without any hold.
func (NoopSlotHolder) WithSlotHold(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
