package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Window allows Limit hits per Window. A non-positive limit disables it.
type Window struct {
	Name   string
	Limit  int
	Window time.Duration
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

// Limiter applies fixed windows to one action, keyed per user.
type Limiter struct {
	store   WindowStore
	action  string
	windows []Window
}

func NewLimiter(store WindowStore, action string, windows ...Window) *Limiter {
	active := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit > 0 && w.Window > 0 {
			active = append(active, w)
		}
	}

	return &Limiter{
		store:   store,
		action:  strings.TrimSpace(action),
		windows: active,
	}
}

// Allow counts one hit for userID and returns the wait in seconds when any window is exceeded.
func (l *Limiter) Allow(ctx context.Context, userID string) (int64, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key(w, userID), w.Window)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// Check is Allow reported as an error: nil or TooFastError.
func (l *Limiter) Check(ctx context.Context, userID string) error {
	retryAfter, allowed, err := l.Allow(ctx, userID)
	if err != nil {
		return fmt.Errorf("rate limit %s: %w", l.action, err)
	}
	if !allowed {
		return TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}

func (l *Limiter) RetryAfter(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.WindowState(ctx, l.key(w, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func (l *Limiter) key(w Window, userID string) string {
	return "rate:" + l.action + ":" + w.Name + ":" + userID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
