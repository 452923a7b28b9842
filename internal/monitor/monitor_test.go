package monitor

import (
	"testing"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/ports"
	"github.com/gabrielcapilla/focusguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inline runs posted handlers immediately, standing in for the instance loop.
func inline(fn func()) { fn() }

func TestMonitor_Unbound(t *testing.T) {
	m := New(inline, time.Now)

	m.MarkAlive()
	_, ok := m.LastAlive()
	assert.False(t, ok)
	assert.False(t, m.IsPlaying())
	assert.False(t, m.Bound())
	require.NoError(t, m.Pause())
	m.Bind(nil)
}

func TestMonitor_BindIsIdempotent(t *testing.T) {
	m := New(inline, time.Now)
	el := testutil.NewElement(false)

	m.Bind(el)
	m.Bind(el)
	assert.Equal(t, 1, el.Listeners(), "rebinding the same element must not attach twice")

	attempts := 0
	m.OnPlayAttempt(func() { attempts++ })
	el.Play()
	assert.Equal(t, 1, attempts)
}

func TestMonitor_RebindDetachesPrevious(t *testing.T) {
	clock := testutil.NewClock()
	m := New(inline, clock.Now)
	old := testutil.NewElement(true)
	replacement := testutil.NewElement(false)

	attempts := 0
	m.OnPlayAttempt(func() { attempts++ })

	m.Bind(old)
	old.Fire(ports.EventProgress)
	_, ok := m.LastAlive()
	require.True(t, ok)

	m.Bind(replacement)
	assert.Equal(t, 0, old.Listeners())
	assert.Equal(t, 1, replacement.Listeners())

	_, ok = m.LastAlive()
	assert.False(t, ok, "liveness belongs to the previous element")

	old.Fire(ports.EventPlay)
	assert.Equal(t, 0, attempts)

	replacement.Fire(ports.EventPlaying)
	assert.Equal(t, 1, attempts)
}

func TestMonitor_DropsEventsQueuedBeforeRebind(t *testing.T) {
	var queue []func()
	m := New(func(fn func()) { queue = append(queue, fn) }, time.Now)
	old := testutil.NewElement(true)
	m.Bind(old)

	attempts := 0
	m.OnPlayAttempt(func() { attempts++ })
	old.Fire(ports.EventPlay)

	m.Bind(testutil.NewElement(false))
	for _, fn := range queue {
		fn()
	}
	assert.Equal(t, 0, attempts)
}

func TestMonitor_MarkAliveAndPause(t *testing.T) {
	clock := testutil.NewClock()
	m := New(inline, clock.Now)
	el := testutil.NewElement(true)
	m.Bind(el)

	clock.Advance(500 * time.Millisecond)
	el.Fire(ports.EventProgress)
	last, ok := m.LastAlive()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), last)

	assert.True(t, m.IsPlaying())
	require.NoError(t, m.Pause())
	assert.False(t, m.IsPlaying())
	require.NoError(t, m.Pause())
	assert.Equal(t, 1, el.Pauses(), "pausing a paused element has no effect")
}
