package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_TTL(t *testing.T) {
	clock := testutil.NewClock()
	slot := &testutil.Register{}
	l := New(slot, "self", 10*time.Second, clock.Now)

	require.NoError(t, l.Claim())
	start := clock.Now()

	clock.Set(start.Add(9 * time.Second))
	assert.True(t, l.HeldBySelf())

	clock.Set(start.Add(10 * time.Second))
	assert.False(t, l.HeldBySelf(), "an entry exactly TTL old is expired")

	clock.Set(start.Add(10900 * time.Millisecond))
	assert.False(t, l.HeldBySelf())
}

func TestLedger_OtherInstance(t *testing.T) {
	clock := testutil.NewClock()
	slot := &testutil.Register{}
	mine := New(slot, "self", 0, clock.Now)
	theirs := New(slot, "other", 0, clock.Now)

	require.NoError(t, mine.Claim())
	require.NoError(t, theirs.Claim())

	assert.False(t, mine.HeldBySelf())
	assert.True(t, theirs.HeldBySelf())
	assert.Equal(t, DefaultTTL, mine.TTL())

	current, ok := mine.Current()
	require.True(t, ok)
	assert.Equal(t, "other", current.InstanceID)
}

func TestLedger_FailuresMeanNotHeld(t *testing.T) {
	clock := testutil.NewClock()

	empty := New(&testutil.Register{}, "self", time.Second, clock.Now)
	assert.False(t, empty.HeldBySelf())

	broken := &testutil.Register{}
	l := New(broken, "self", time.Second, clock.Now)
	require.NoError(t, l.Claim())
	broken.FailGet(errors.New("unavailable"))
	assert.False(t, l.HeldBySelf())

	garbage := &testutil.Register{}
	require.NoError(t, garbage.Publish([]byte("not json")))
	assert.False(t, New(garbage, "self", time.Second, clock.Now).HeldBySelf())

	failing := &testutil.Register{}
	failing.FailPublish(errors.New("read-only"))
	assert.Error(t, New(failing, "self", time.Second, clock.Now).Claim())
}
