package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualTime struct {
	t time.Time
}

func (m *manualTime) now() time.Time { return m.t }

func (m *manualTime) advance(d time.Duration) { m.t = m.t.Add(d) }

func newTestLimiter(max int) (*messageLimiter, *manualTime) {
	clock := &manualTime{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newMessageLimiter(max, time.Second)
	l.now = clock.now
	return l, clock
}

func TestMessageLimiterWindow(t *testing.T) {
	l, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(), "message %d", i)
		clock.advance(100 * time.Millisecond)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, 1, l.violations)

	// backoff of one second outlasts the window
	clock.advance(999 * time.Millisecond)
	assert.False(t, l.Allow())

	clock.advance(3 * time.Second)
	assert.True(t, l.Allow())
}

func TestMessageLimiterRetryAfter(t *testing.T) {
	l, clock := newTestLimiter(1)

	assert.Zero(t, l.RetryAfter())
	assert.True(t, l.Allow())
	assert.Zero(t, l.RetryAfter())

	assert.False(t, l.Allow())
	assert.Equal(t, time.Second, l.RetryAfter())

	clock.advance(400 * time.Millisecond)
	assert.Equal(t, 600*time.Millisecond, l.RetryAfter())

	clock.advance(time.Second)
	assert.Zero(t, l.RetryAfter())
}

func TestMessageLimiterBackoffGrows(t *testing.T) {
	l, clock := newTestLimiter(1)

	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	first := l.backoffUntil.Sub(clock.t)
	assert.Equal(t, time.Second, first)

	assert.False(t, l.Allow())
	assert.Equal(t, 2*time.Second, l.backoffUntil.Sub(clock.t))

	for i := 0; i < 20; i++ {
		l.Allow()
	}
	assert.Equal(t, maxBackoff, l.backoffUntil.Sub(clock.t))
}

func TestMessageLimiterForgives(t *testing.T) {
	l, clock := newTestLimiter(1)

	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	clock.advance(5 * time.Second)
	assert.True(t, l.Allow())
	assert.Equal(t, 0, l.violations)
	assert.Len(t, l.timestamps, 1)
}
