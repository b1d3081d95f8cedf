package memory

import (
	"context"
	"sync"
	"time"
)

type failureWindow struct {
	count   int
	resetAt time.Time
}

// LoginThrottle counts failed logins per username inside a fixed window.
type LoginThrottle struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	now      func() time.Time
	failures map[string]failureWindow
}

func NewLoginThrottle(maxFailures int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		max:      maxFailures,
		window:   window,
		now:      time.Now,
		failures: make(map[string]failureWindow),
	}
}

func (t *LoginThrottle) Allow(_ context.Context, username string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.failures[username]
	if !ok {
		return true, nil
	}
	if !t.now().Before(f.resetAt) {
		delete(t.failures, username)
		return true, nil
	}
	return f.count < t.max, nil
}

func (t *LoginThrottle) RecordFailure(_ context.Context, username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	f, ok := t.failures[username]
	if !ok || !now.Before(f.resetAt) {
		f = failureWindow{resetAt: now.Add(t.window)}
	}
	f.count++
	t.failures[username] = f
	return nil
}

func (t *LoginThrottle) Reset(_ context.Context, username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, username)
	return nil
}

// PurgeExpired drops failure windows that ended before now and returns how
// many were removed.
func (t *LoginThrottle) PurgeExpired(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for username, f := range t.failures {
		if !now.Before(f.resetAt) {
			delete(t.failures, username)
			n++
		}
	}
	return n
}
