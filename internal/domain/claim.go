package domain

import "time"

const ActionPlayStarted = "play_started"

// ClaimMessage announces that Sender is now the sanctioned player.
type ClaimMessage struct {
	Sender    string
	Action    string
	Timestamp time.Time
}

func NewClaim(sender string, at time.Time) ClaimMessage {
	return ClaimMessage{Sender: sender, Action: ActionPlayStarted, Timestamp: at}
}

// FocusClaim records the last instance known to hold input focus.
type FocusClaim struct {
	InstanceID string
	Timestamp  time.Time
}

// Fresh reports whether ts lies within window before now. A zero timestamp,
// a timestamp in the future or a delta that does not fit a Duration is stale.
func Fresh(now, ts time.Time, window time.Duration) bool {
	if ts.IsZero() || window <= 0 {
		return false
	}
	if ts.After(now) {
		return false
	}
	delta := now.Sub(ts)
	if delta < 0 || delta == time.Duration(1<<63-1) {
		return false
	}
	return delta < window
}
