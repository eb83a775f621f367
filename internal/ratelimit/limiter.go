// Package ratelimit throttles report intake per reporting entity with a
// sliding window. The window algorithm avoids the burst-at-boundary
// problem of fixed buckets.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	dErrors "fiuportal/pkg/domain-errors"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Store counts requests per key within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Limiter applies one limit/window pair to keyed callers.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

func New(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "rate limit store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "rate limit and window must be positive")
	}

	l := &Limiter{store: store, limit: limit, window: window}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow registers one request for key and reports whether it fits the
// window. Store failures allow the request: intake availability beats
// throttle precision.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := l.store.Allow(ctx, key, l.limit, l.window)
	if err != nil {
		if l.logger != nil {
			l.logger.WarnContext(ctx, "rate limit store failed open",
				"key", key,
				"error", err,
			)
		}
		return &Result{Allowed: true, Remaining: l.limit, Limit: l.limit}, nil
	}
	return res, nil
}
