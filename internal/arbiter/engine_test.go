package arbiter

import (
	"errors"
	"testing"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/ledger"
	"github.com/gabrielcapilla/focusguard/internal/monitor"
	"github.com/gabrielcapilla/focusguard/internal/ports"
	"github.com/gabrielcapilla/focusguard/internal/services/register"
	"github.com/gabrielcapilla/focusguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const self = "self-id"

type fixture struct {
	clock   *testutil.Clock
	start   time.Time
	oracle  *testutil.Oracle
	element *testutil.Element
	monitor *monitor.Monitor
	claims  *testutil.Register
	focus   *testutil.Register
	engine  *Engine
}

func newFixture(t *testing.T, strategies ...string) *fixture {
	t.Helper()

	f := &fixture{
		clock:   testutil.NewClock(),
		oracle:  testutil.NewOracle(true, true),
		element: testutil.NewElement(false),
		claims:  &testutil.Register{},
		focus:   &testutil.Register{},
	}
	f.start = f.clock.Now()
	f.monitor = monitor.New(func(fn func()) { fn() }, f.clock.Now)
	f.monitor.Bind(f.element)

	built, err := BuildStrategies(strategies, StrategyDeps{
		Liveness:      f.monitor,
		SeekTolerance: 2 * time.Second,
		Ledger:        ledger.New(f.focus, self, 10*time.Second, f.clock.Now),
	})
	require.NoError(t, err)

	f.engine = New(Options{
		Self:       self,
		Oracle:     f.oracle,
		Playback:   f.monitor,
		Claims:     f.claims,
		Strategies: built,
		Now:        f.clock.Now,
	})
	return f
}

func (f *fixture) at(ms int) {
	f.clock.Set(f.start.Add(time.Duration(ms) * time.Millisecond))
}

// play marks the element playing the way a play signal would.
func (f *fixture) play() domain.Verdict {
	f.element.Play()
	return f.engine.OnPlayIntent()
}

func claimFrom(t *testing.T, sender string, at time.Time) []byte {
	t.Helper()
	data, err := register.EncodeClaim(domain.NewClaim(sender, at))
	require.NoError(t, err)
	return data
}

func TestEngine_PlayIntent_HiddenAlwaysPauses(t *testing.T) {
	f := newFixture(t, StrategySeek, StrategyLedger)
	f.oracle.SetVisible(false)

	assert.Equal(t, domain.VerdictPause, f.play())
	assert.True(t, f.element.Paused())
	assert.Empty(t, f.claims.Writes())
}

func TestEngine_PlayIntent_FocusedClaims(t *testing.T) {
	f := newFixture(t, StrategySeek)

	assert.Equal(t, domain.VerdictAllowAndClaim, f.play())
	assert.False(t, f.element.Paused())

	writes := f.claims.Writes()
	require.Len(t, writes, 1)
	claim, err := register.DecodeClaim(writes[0])
	require.NoError(t, err)
	assert.Equal(t, self, claim.Sender)
	assert.Equal(t, domain.ActionPlayStarted, claim.Action)
	assert.True(t, claim.Timestamp.Equal(f.clock.Now()))
	assert.Empty(t, f.focus.Writes(), "seek strategy does not touch the ledger")
}

func TestEngine_PlayIntent_FocusedWithLedgerRecordsFocus(t *testing.T) {
	f := newFixture(t, StrategyLedger)

	assert.Equal(t, domain.VerdictAllowAndClaim, f.play())
	require.Len(t, f.focus.Writes(), 1)
	fc, err := register.DecodeFocusClaim(f.focus.Writes()[0])
	require.NoError(t, err)
	assert.Equal(t, self, fc.InstanceID)
}

func TestEngine_PlayIntent_SeekTolerance(t *testing.T) {
	testCases := []struct {
		name       string
		playAt     int
		want       domain.Verdict
		wantPaused bool
	}{
		{name: "play signal within tolerance continues", playAt: 1800, want: domain.VerdictAllow},
		{name: "play signal after tolerance pauses", playAt: 4000, want: domain.VerdictPause, wantPaused: true},
		{name: "exactly at tolerance pauses", playAt: 3000, want: domain.VerdictPause, wantPaused: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, StrategySeek)
			f.element.Play()
			for _, ms := range []int{0, 500, 1000} {
				f.at(ms)
				f.element.Fire(ports.EventProgress)
			}
			f.at(1200)
			f.oracle.SetFocused(false)

			f.at(tc.playAt)
			assert.Equal(t, tc.want, f.engine.OnPlayIntent())
			assert.Equal(t, tc.wantPaused, f.element.Paused())
			assert.Empty(t, f.claims.Writes(), "an unfocused continuation never claims")
		})
	}
}

func TestEngine_PlayIntent_UnfocusedColdStartPauses(t *testing.T) {
	for _, strategies := range [][]string{nil, {StrategySeek}, {StrategyLedger}, {StrategySeek, StrategyLedger}} {
		f := newFixture(t, strategies...)
		f.oracle.SetFocused(false)

		assert.Equal(t, domain.VerdictPause, f.play(), "strategies %v", strategies)
		assert.True(t, f.element.Paused())
		assert.Empty(t, f.claims.Writes())
	}
}

func TestEngine_PlayIntent_LedgerTTL(t *testing.T) {
	testCases := []struct {
		name   string
		playAt int
		want   domain.Verdict
	}{
		{name: "recently focused instance may play", playAt: 9000, want: domain.VerdictAllowAndClaim},
		{name: "expired focus record pauses", playAt: 11000, want: domain.VerdictPause},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, StrategyLedger)
			f.at(0)
			require.Equal(t, domain.VerdictAllowAndClaim, f.play())
			claimsBefore := len(f.claims.Writes())

			f.at(100)
			f.oracle.SetFocused(false)

			f.at(tc.playAt)
			assert.Equal(t, tc.want, f.play())

			if tc.want == domain.VerdictAllowAndClaim {
				assert.Len(t, f.claims.Writes(), claimsBefore+1)
				assert.False(t, f.element.Paused())
			} else {
				assert.Len(t, f.claims.Writes(), claimsBefore)
				assert.True(t, f.element.Paused())
			}
		})
	}
}

func TestEngine_PlayIntent_LedgerReadFailurePauses(t *testing.T) {
	f := newFixture(t, StrategyLedger)
	require.Equal(t, domain.VerdictAllowAndClaim, f.play())

	f.oracle.SetFocused(false)
	f.focus.FailGet(errors.New("register unavailable"))
	f.at(1000)

	assert.Equal(t, domain.VerdictPause, f.play())
}

func TestEngine_PlayIntent_PublishFailureStillPlaysWhenFocused(t *testing.T) {
	f := newFixture(t, StrategySeek)
	f.claims.FailPublish(errors.New("register unavailable"))

	assert.Equal(t, domain.VerdictAllowAndClaim, f.play())
	assert.False(t, f.element.Paused())
}

func TestEngine_RemoteClaim_PausesUnfocused(t *testing.T) {
	f := newFixture(t, StrategySeek)
	f.element.Play()
	f.oracle.SetFocused(false)

	claim := claimFrom(t, "other", f.clock.Now())
	assert.Equal(t, domain.VerdictPause, f.engine.OnRemoteClaim(claim))
	assert.True(t, f.element.Paused())

	assert.Equal(t, domain.VerdictPause, f.engine.OnRemoteClaim(claim), "same claim, same verdict")
	assert.Equal(t, 1, f.element.Pauses(), "pausing a paused element has no further effect")
}

func TestEngine_RemoteClaim_Ignored(t *testing.T) {
	f := newFixture(t, StrategySeek)
	f.element.Play()
	f.oracle.SetFocused(false)
	now := f.clock.Now()

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "own claim looped back", data: claimFrom(t, self, now)},
		{name: "unknown action", data: []byte(`{"sender":"other","action":"stopped","timestamp":1}`)},
		{name: "malformed", data: []byte(`{"sender":`)},
		{name: "cleared slot", data: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, domain.VerdictIgnore, f.engine.OnRemoteClaim(tc.data))
			assert.False(t, f.element.Paused())
		})
	}
}

func TestEngine_RemoteClaim_FocusedNeverPauses(t *testing.T) {
	f := newFixture(t, StrategyLedger)
	f.element.Play()

	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.VerdictIgnore, f.engine.OnRemoteClaim(claimFrom(t, "other", f.clock.Now())))
	}
	assert.False(t, f.element.Paused())
	assert.Len(t, f.focus.Writes(), 3, "a focused instance reasserts its focus record")
	assert.Empty(t, f.claims.Writes())
}

func TestEngine_RemoteClaim_LedgerProtectsBackgroundContinuation(t *testing.T) {
	f := newFixture(t, StrategyLedger)
	require.Equal(t, domain.VerdictAllowAndClaim, f.play())

	f.at(100)
	f.oracle.SetFocused(false)

	f.at(5000)
	assert.Equal(t, domain.VerdictIgnore, f.engine.OnRemoteClaim(claimFrom(t, "other", f.clock.Now())))
	assert.False(t, f.element.Paused())

	f.at(10500)
	assert.Equal(t, domain.VerdictPause, f.engine.OnRemoteClaim(claimFrom(t, "other", f.clock.Now())))
	assert.True(t, f.element.Paused())
}

func TestEngine_RemoteClaim_UnboundIsInert(t *testing.T) {
	f := newFixture(t, StrategySeek)
	f.monitor.Bind(nil)
	f.oracle.SetFocused(false)

	assert.Equal(t, domain.VerdictPause, f.engine.OnRemoteClaim(claimFrom(t, "other", f.clock.Now())))
	assert.Equal(t, 0, f.element.Pauses())
}
