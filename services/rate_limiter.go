package services

import (
	"context"
	"log"
	"math"
	"time"
)

// Policy is a fixed-window limit: at most Limit requests per Window for each
// client key.
type Policy struct {
	Name   string
	Window time.Duration
	Limit  int
}

var (
	GeneralPolicy      = Policy{Name: "general", Window: 15 * time.Minute, Limit: 100}
	SubmissionPolicy   = Policy{Name: "submit", Window: 60 * time.Minute, Limit: 5}
	RegenerationPolicy = Policy{Name: "regenerate", Window: 15 * time.Minute, Limit: 10}
)

// Window is the counter state of one key after a Take.
type Window struct {
	Count int
	Start time.Time
}

// WindowStore holds fixed-window counters. Take must perform the whole
// read-modify-write atomically: reset when now is more than the policy window
// past Start, reject when Count has reached the limit, otherwise increment.
type WindowStore interface {
	Take(ctx context.Context, key string, p Policy, now time.Time) (Window, bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

type RateLimiter struct {
	policy Policy
	store  WindowStore
	now    func() time.Time
}

func NewRateLimiter(policy Policy, store WindowStore) *RateLimiter {
	return &RateLimiter{policy: policy, store: store, now: time.Now}
}

// WithClock replaces the limiter's time source.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

func (l *RateLimiter) Policy() Policy { return l.policy }

func (l *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		key = "unknown"
	}
	now := l.now()

	w, ok, err := l.store.Take(ctx, l.policy.Name+":"+key, l.policy, now)
	if err != nil {
		log.Printf("Rate limit store error for %s policy: %v", l.policy.Name, err)
		return Decision{Allowed: true}, err
	}
	if ok {
		return Decision{Allowed: true, Count: w.Count}, nil
	}

	retry := w.Start.Add(l.policy.Window).Sub(now)
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Allowed: false, Count: w.Count, RetryAfter: retry}, nil
}

// Sweep drops windows that can no longer reject anything.
func (l *RateLimiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}
