package coupons

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/forno-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/forno-backend/pkg/redis"
)

const missingMarker = "-"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CouponKey(code string) string
}

// CachedLookup memoizes registry answers in redis. Lookup failures are never cached, and a
// cache outage falls through to the registry.
type CachedLookup struct {
	next  Lookup
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedLookup decorates next with a redis cache.
func NewCachedLookup(next Lookup, store cacheStore, ttl time.Duration, logg *logger.Logger) *CachedLookup {
	return &CachedLookup{next: next, store: store, ttl: ttl, logg: logg}
}

// Fetch implements Lookup.
func (c *CachedLookup) Fetch(ctx context.Context, code string) (*Record, error) {
	code = NormalizeCode(code)
	key := c.store.CouponKey(code)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil && cached == missingMarker:
		return nil, nil
	case err == nil:
		var record Record
		if decodeErr := json.Unmarshal([]byte(cached), &record); decodeErr == nil {
			return &record, nil
		}
	case !errors.Is(err, pkgredis.ErrNil):
		c.warn(ctx, code, "coupon cache read failed", err)
	}

	record, err := c.next.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}

	payload := missingMarker
	if record != nil {
		raw, marshalErr := json.Marshal(record)
		if marshalErr != nil {
			return record, nil
		}
		payload = string(raw)
	}
	if setErr := c.store.Set(ctx, key, payload, c.ttl); setErr != nil {
		c.warn(ctx, code, "coupon cache write failed", setErr)
	}
	return record, nil
}

func (c *CachedLookup) warn(ctx context.Context, code, msg string, err error) {
	if c.logg == nil {
		return
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{"coupon_code": code, "error": err.Error()})
	c.logg.Warn(logCtx, msg)
}
