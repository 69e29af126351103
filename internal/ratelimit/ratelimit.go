package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Rule configures a fixed window for one action. Actions are namespaced so
// limits for different flows never interfere.
type Rule struct {
	Action string
	Max    int
	Window time.Duration
}

// Result reports the outcome of a check-and-consume call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store performs an atomic check-and-increment for a window key. When the
// stored window has expired it is discarded and a fresh one starts at 1.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies fixed window counting per action and client key. Bursts at
// window boundaries can reach up to twice the nominal rate; that is the
// accepted tradeoff of the fixed (not sliding) window.
type Limiter struct {
	store  Store
	rules  map[string]Rule
	logger *zap.Logger
}

// New constructs a limiter over the given store.
func New(store Store, logger *zap.Logger, rules ...Rule) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Limiter{store: store, rules: make(map[string]Rule, len(rules)), logger: logger}
	for _, r := range rules {
		l.rules[r.Action] = r
	}
	return l
}

// Allow consumes one attempt for the action and client key. An unknown action
// or a store failure allows the request; the limiter protects endpoints, it
// must not take them down.
func (l *Limiter) Allow(ctx context.Context, action, clientKey string) Result {
	rule, ok := l.rules[action]
	if !ok || rule.Max <= 0 {
		return Result{Allowed: true}
	}

	key := fmt.Sprintf("%s:%s", action, clientKey)
	count, resetAt, err := l.store.Incr(ctx, key, rule.Window)
	if err != nil {
		l.logger.Warn("rate limit store failure", zap.String("action", action), zap.Error(err))
		return Result{Allowed: true, Limit: rule.Max, Remaining: rule.Max}
	}

	remaining := rule.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:   count <= int64(rule.Max),
		Limit:     rule.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = time.Until(resetAt)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}
	return res
}
