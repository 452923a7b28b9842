// Package ledger records which instance last held input focus. An entry is
// honoured only for a fixed TTL after it was written.
package ledger

import (
	"fmt"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"
	"github.com/gabrielcapilla/focusguard/internal/services/register"

	"github.com/rs/zerolog"
)

const DefaultTTL = 10 * time.Second

type Ledger struct {
	slot ports.Register
	self string
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

func New(slot ports.Register, self string, ttl time.Duration, now func() time.Time) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{slot: slot, self: self, ttl: ttl, now: now, log: logger.Log}
}

func (l *Ledger) SetLogger(log zerolog.Logger) { l.log = log }

func (l *Ledger) TTL() time.Duration { return l.ttl }

// Claim records this instance as the last focused one.
func (l *Ledger) Claim() error {
	data, err := register.EncodeFocusClaim(domain.FocusClaim{InstanceID: l.self, Timestamp: l.now()})
	if err != nil {
		return err
	}
	if err := l.slot.Publish(data); err != nil {
		return fmt.Errorf("ledger: claim focus: %w", err)
	}
	return nil
}

// Current returns the unexpired entry, if any.
func (l *Ledger) Current() (domain.FocusClaim, bool) {
	data, err := l.slot.Get()
	if err != nil {
		l.log.Warn().Err(err).Msg("Could not read focus ledger")
		return domain.FocusClaim{}, false
	}
	if len(data) == 0 {
		return domain.FocusClaim{}, false
	}
	claim, err := register.DecodeFocusClaim(data)
	if err != nil {
		l.log.Debug().Err(err).Msg("Ignoring malformed focus ledger entry")
		return domain.FocusClaim{}, false
	}
	if !domain.Fresh(l.now(), claim.Timestamp, l.ttl) {
		return domain.FocusClaim{}, false
	}
	return claim, true
}

func (l *Ledger) HeldBySelf() bool {
	claim, ok := l.Current()
	return ok && claim.InstanceID == l.self
}
