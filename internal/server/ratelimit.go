package server

import (
	"sync"
	"time"
)

const (
	messageLimit  = 40
	messageWindow = time.Second
	baseBackoff   = time.Second
	maxBackoff    = time.Minute
)

// messageLimiter is a sliding-window limit on the messages one session may
// send. Each rejected message doubles the time the session stays refused,
// up to maxBackoff; a clean window clears the record.
type messageLimiter struct {
	max          int
	window       time.Duration
	now          func() time.Time
	timestamps   []time.Time
	violations   int
	lastRejected time.Time
	backoffUntil time.Time
	mutex        sync.Mutex
}

func newMessageLimiter(max int, window time.Duration) *messageLimiter {
	return &messageLimiter{
		max:        max,
		window:     window,
		now:        time.Now,
		timestamps: make([]time.Time, 0, max),
	}
}

// Allow records a message and reports whether it may be processed.
func (l *messageLimiter) Allow() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	if now.Before(l.backoffUntil) {
		l.reject(now)
		return false
	}

	l.expire(now)
	if len(l.timestamps) >= l.max {
		l.reject(now)
		return false
	}

	if l.violations > 0 && now.Sub(l.lastRejected) > 2*l.window {
		l.violations = 0
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// RetryAfter reports how long the session stays refused.
func (l *messageLimiter) RetryAfter() time.Duration {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if d := l.backoffUntil.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// reject must be called with the mutex held.
func (l *messageLimiter) reject(now time.Time) {
	l.violations++
	l.lastRejected = now

	backoff := baseBackoff
	for i := 1; i < l.violations && backoff < maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	l.backoffUntil = now.Add(backoff)
}

// expire drops timestamps older than the window. The mutex must be held.
func (l *messageLimiter) expire(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(l.timestamps, l.timestamps[i:])
		l.timestamps = l.timestamps[:n]
	}
}
