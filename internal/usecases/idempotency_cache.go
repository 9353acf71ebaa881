package usecases

import (
	"context"
	"fmt"
	"time"
)

const (
	idempotencyCachePrefix = "payment:idempotency:"
	idempotencyCacheTTL    = 24 * time.Hour
)

// IdempotencyCache is an advisory lookup cache in front of createIntent.
// It is never the source of truth: the database's unique constraint on
// idempotency_key is. A cache miss or a cold cache always falls through
// to the store.
type IdempotencyCache struct {
	get func(ctx context.Context, key string) (string, error)
	set func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

func NewIdempotencyCache(
	get func(ctx context.Context, key string) (string, error),
	set func(ctx context.Context, key string, value interface{}, expiration time.Duration) error,
) *IdempotencyCache {
	return &IdempotencyCache{get: get, set: set}
}

func (c *IdempotencyCache) Lookup(ctx context.Context, idempotencyKey string) (string, bool) {
	if c == nil || c.get == nil {
		return "", false
	}
	val, err := c.get(ctx, storageKey(idempotencyKey))
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func (c *IdempotencyCache) Store(ctx context.Context, idempotencyKey, paymentURL string) {
	if c == nil || c.set == nil {
		return
	}
	_ = c.set(ctx, storageKey(idempotencyKey), paymentURL, idempotencyCacheTTL)
}

func storageKey(idempotencyKey string) string {
	return fmt.Sprintf("%s%s", idempotencyCachePrefix, idempotencyKey)
}
