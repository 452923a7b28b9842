// Package arbiter decides, on every local play attempt and every remote
// claim, whether the local instance may keep playing.
//
// The engine holds no decision state of its own. Each call re-reads the
// oracle, the monitor and the strategies, so a missed notification is
// corrected by the next event. Every branch that lacks data resolves to a
// pause.
package arbiter

import (
	"time"

	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/metrics"
	"github.com/gabrielcapilla/focusguard/internal/ports"
	"github.com/gabrielcapilla/focusguard/internal/services/register"

	"github.com/rs/zerolog"
)

// Playback is the part of the monitor the engine drives.
type Playback interface {
	Liveness
	IsPlaying() bool
	Pause() error
}

type Options struct {
	Self       string
	Oracle     ports.FocusOracle
	Playback   Playback
	Claims     ports.Register
	Strategies []Strategy
	Now        func() time.Time
	Logger     *zerolog.Logger
}

type Engine struct {
	self       string
	oracle     ports.FocusOracle
	playback   Playback
	claims     ports.Register
	strategies []Strategy
	now        func() time.Time
	log        zerolog.Logger
}

func New(opts Options) *Engine {
	e := &Engine{
		self:       opts.Self,
		oracle:     opts.Oracle,
		playback:   opts.Playback,
		claims:     opts.Claims,
		strategies: opts.Strategies,
		now:        opts.Now,
		log:        logger.Log,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	return e
}

func (e *Engine) Strategies() []Strategy { return e.strategies }

// OnPlayIntent arbitrates a play or playing signal of the bound element and
// carries out the verdict.
func (e *Engine) OnPlayIntent() domain.Verdict {
	now := e.now()
	v := e.decidePlay(now)

	switch v {
	case domain.VerdictPause:
		e.pause("play intent")
	case domain.VerdictAllowAndClaim:
		e.publishClaim(now)
	}

	e.log.Debug().Stringer("verdict", v).Msg("Play intent arbitrated")
	metrics.ObserveVerdict(e.self, metrics.TriggerPlayIntent, v)
	return v
}

func (e *Engine) decidePlay(now time.Time) domain.Verdict {
	if !e.oracle.Visible() {
		return domain.VerdictPause
	}

	if e.oracle.Focused() {
		for _, s := range e.strategies {
			s.Focused()
		}
		return domain.VerdictAllowAndClaim
	}

	for _, s := range e.strategies {
		switch s.Unfocused(now) {
		case AllowanceContinue:
			return domain.VerdictAllow
		case AllowanceClaim:
			return domain.VerdictAllowAndClaim
		}
	}
	return domain.VerdictPause
}

// OnRemoteClaim arbitrates a change of the claim register. Records that do
// not decode, carry another action or were written by this instance are
// ignored.
func (e *Engine) OnRemoteClaim(next []byte) domain.Verdict {
	v := e.decideRemote(next)
	if v == domain.VerdictPause {
		e.pause("remote claim")
	}

	e.log.Debug().Stringer("verdict", v).Msg("Remote claim arbitrated")
	metrics.ObserveVerdict(e.self, metrics.TriggerRemoteClaim, v)
	return v
}

func (e *Engine) decideRemote(next []byte) domain.Verdict {
	if len(next) == 0 {
		return domain.VerdictIgnore
	}
	claim, err := register.DecodeClaim(next)
	if err != nil {
		e.log.Debug().Err(err).Msg("Ignoring malformed claim")
		return domain.VerdictIgnore
	}
	if claim.Sender == e.self || claim.Action != domain.ActionPlayStarted {
		return domain.VerdictIgnore
	}

	if e.oracle.Focused() {
		for _, s := range e.strategies {
			s.Focused()
		}
		return domain.VerdictIgnore
	}

	playing := e.playback.IsPlaying()
	for _, s := range e.strategies {
		if s.Protects(playing) {
			return domain.VerdictIgnore
		}
	}
	return domain.VerdictPause
}

// pause is a no-op for an element that is not playing, so repeated claims
// keep yielding the same verdict without further effect.
func (e *Engine) pause(reason string) {
	if !e.playback.IsPlaying() {
		return
	}
	if err := e.playback.Pause(); err != nil {
		e.log.Warn().Err(err).Str("reason", reason).Msg("Could not pause element")
		return
	}
	e.log.Info().Str("reason", reason).Msg("Paused element")
}

func (e *Engine) publishClaim(now time.Time) {
	data, err := register.EncodeClaim(domain.NewClaim(e.self, now))
	if err == nil {
		err = e.claims.Publish(data)
	}
	metrics.ObservePublish(e.self, "claim", err)
	if err != nil {
		e.log.Warn().Err(err).Msg("Could not publish claim")
		return
	}
	e.log.Info().Msg("Published play claim")
}
