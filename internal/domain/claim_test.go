package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFresh(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		ts     time.Time
		window time.Duration
		want   bool
	}{
		{name: "inside window", ts: now.Add(-800 * time.Millisecond), window: 2 * time.Second, want: true},
		{name: "exactly at window", ts: now.Add(-2 * time.Second), window: 2 * time.Second, want: false},
		{name: "outside window", ts: now.Add(-3 * time.Second), window: 2 * time.Second, want: false},
		{name: "zero timestamp", ts: time.Time{}, window: time.Hour, want: false},
		{name: "future timestamp", ts: now.Add(time.Second), window: time.Hour, want: false},
		{name: "overflowing delta", ts: time.Unix(0, 0).AddDate(-400, 0, 0), window: time.Duration(1<<63 - 1), want: false},
		{name: "non-positive window", ts: now, window: 0, want: false},
		{name: "same instant", ts: now, window: time.Second, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Fresh(now, tc.ts, tc.window))
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "pause", VerdictPause.String())
	assert.Equal(t, "allow_and_claim", VerdictAllowAndClaim.String())
	assert.Equal(t, "ignore", Verdict(42).String())
}
