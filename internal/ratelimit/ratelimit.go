// Package ratelimit implements the process-wide named rate-limiter
// registry (C3): sliding-window admission control for outbound requests
// made by the search, weather, geocode, and URL-fetch clients.
//
// The pack's only rate-limiting-adjacent dependency, golang.org/x/time, is
// pulled in transitively by two example repos and implements a token
// bucket, not the sliding-window-with-bounded-admission guarantee §8
// requires ("at most M admissions in any W-second window"). A token bucket
// permits bursts beyond M within a window after idle accumulation, which
// would violate that property, so the limiter here is hand-rolled — see
// DESIGN.md.
package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Spec configures a single named limiter.
type Spec struct {
	MaxRequests int
	Window      time.Duration
}

// Limiter is a sliding-window admission gate: at most MaxRequests calls to
// Wait may return within any Window-length interval.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	admissions  *list.List // of time.Time, oldest first
	now         func() time.Time
}

// NewLimiter constructs a Limiter from spec.
func NewLimiter(spec Spec) *Limiter {
	return &Limiter{
		maxRequests: spec.MaxRequests,
		window:      spec.Window,
		admissions:  list.New(),
		now:         time.Now,
	}
}

// Wait blocks until admission is granted or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait, ok := l.tryAdmit()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAdmit attempts to admit a request now. If admitted, it records the
// admission and returns (0, true). If not, it returns the duration the
// caller should wait before retrying and false.
func (l *Limiter) tryAdmit() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxRequests <= 0 {
		return 0, true
	}

	now := l.now()
	cutoff := now.Add(-l.window)

	for e := l.admissions.Front(); e != nil; {
		next := e.Next()
		if !e.Value.(time.Time).After(cutoff) {
			l.admissions.Remove(e)
		} else {
			break
		}
		e = next
	}

	if l.admissions.Len() < l.maxRequests {
		l.admissions.PushBack(now)
		return 0, true
	}

	oldest := l.admissions.Front().Value.(time.Time)
	return oldest.Add(l.window).Sub(now), false
}
