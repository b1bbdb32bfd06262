package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrLimitExceeded is returned by Check when the key used up its window
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Store counts hits per key inside a fixed window.
// Hit registers one hit and returns the count for the current window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// Limiter is a fixed-window limiter over a Store.
// It is an approximate limiter meant for abuse mitigation only.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
}

// New creates a limiter allowing limit hits per window for each key
func New(store Store, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Check registers a hit for key and returns ErrLimitExceeded once the
// window's count goes over the limit.
func (l *Limiter) Check(ctx context.Context, key string) error {
	count, err := l.store.Hit(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return err
	}
	if count > l.limit {
		return ErrLimitExceeded
	}
	return nil
}

// Limit returns the configured hits per window
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured window
func (l *Limiter) Window() time.Duration {
	return l.window
}
