package arbiter

import (
	"errors"
	"fmt"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/ledger"
	"github.com/gabrielcapilla/focusguard/internal/logger"

	"github.com/rs/zerolog"
)

var ErrUnknownStrategy = errors.New("arbiter: unknown strategy")

const (
	StrategySeek   = "seek"
	StrategyLedger = "ledger"

	DefaultSeekTolerance = 2 * time.Second
)

// Allowance is a strategy's answer to an unfocused but visible play attempt.
type Allowance int

const (
	AllowanceNone Allowance = iota
	// AllowanceContinue lets playback go on without announcing it.
	AllowanceContinue
	// AllowanceClaim lets playback go on and announces it to the others.
	AllowanceClaim
)

// Strategy decides whether an instance may keep playing without focus.
type Strategy interface {
	Name() string
	// Focused runs whenever arbitration observes the instance focused.
	Focused()
	Unfocused(now time.Time) Allowance
	// Protects reports whether a remote claim should be ignored while the
	// instance is unfocused.
	Protects(playing bool) bool
}

type Liveness interface {
	LastAlive() (time.Time, bool)
}

// SeekTolerance treats a play signal shortly after the last progress signal
// as the same stream resuming (seek, ad skip) rather than a new playback.
type SeekTolerance struct {
	Liveness  Liveness
	Tolerance time.Duration
}

func (s SeekTolerance) Name() string { return StrategySeek }

func (s SeekTolerance) Focused() {}

func (s SeekTolerance) Unfocused(now time.Time) Allowance {
	last, ok := s.Liveness.LastAlive()
	if !ok {
		return AllowanceNone
	}
	if domain.Fresh(now, last, s.Tolerance) {
		return AllowanceContinue
	}
	return AllowanceNone
}

func (s SeekTolerance) Protects(bool) bool { return false }

// FocusLedger grants the most recently focused instance a grace period
// while focus is outside every instance.
type FocusLedger struct {
	Ledger *ledger.Ledger
	Log    zerolog.Logger
}

func (f FocusLedger) Name() string { return StrategyLedger }

func (f FocusLedger) Focused() {
	if err := f.Ledger.Claim(); err != nil {
		f.Log.Warn().Err(err).Msg("Could not record focus")
	}
}

func (f FocusLedger) Unfocused(time.Time) Allowance {
	if f.Ledger.HeldBySelf() {
		return AllowanceClaim
	}
	return AllowanceNone
}

func (f FocusLedger) Protects(playing bool) bool {
	return playing && f.Ledger.HeldBySelf()
}

type StrategyDeps struct {
	Liveness      Liveness
	SeekTolerance time.Duration
	Ledger        *ledger.Ledger
	// Logger defaults to the global logger.
	Logger *zerolog.Logger
}

// BuildStrategies resolves names in order. Duplicates are dropped.
func BuildStrategies(names []string, deps StrategyDeps) ([]Strategy, error) {
	var out []Strategy
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case StrategySeek:
			if deps.Liveness == nil {
				return nil, fmt.Errorf("arbiter: %q strategy needs a liveness source", name)
			}
			tolerance := deps.SeekTolerance
			if tolerance <= 0 {
				tolerance = DefaultSeekTolerance
			}
			out = append(out, SeekTolerance{Liveness: deps.Liveness, Tolerance: tolerance})
		case StrategyLedger:
			if deps.Ledger == nil {
				return nil, fmt.Errorf("arbiter: %q strategy needs a focus ledger", name)
			}
			log := logger.Log
			if deps.Logger != nil {
				log = *deps.Logger
			}
			out = append(out, FocusLedger{Ledger: deps.Ledger, Log: log})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
	}
	return out, nil
}

func Uses(names []string, strategy string) bool {
	for _, name := range names {
		if name == strategy {
			return true
		}
	}
	return false
}
