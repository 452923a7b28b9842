// Package instance wires one running copy of focusguard together: identity,
// playback monitor, arbitration engine and the shared registers, all driven
// by a single event loop.
//
// Handlers posted to the loop run one at a time and to completion, so the
// monitor and engine need no locking of their own.
package instance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/arbiter"
	"github.com/gabrielcapilla/focusguard/internal/domain"
	"github.com/gabrielcapilla/focusguard/internal/ledger"
	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/metrics"
	"github.com/gabrielcapilla/focusguard/internal/monitor"
	"github.com/gabrielcapilla/focusguard/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultQueueSize = 64

var ErrStopped = errors.New("instance: stopped")

func NewID() string { return uuid.NewString() }

type Options struct {
	// ID defaults to a fresh random identifier.
	ID      string
	Claims  ports.Register
	Ledger  ports.Register
	Oracle  ports.FocusOracle
	Arbiter domain.ArbiterConfig
	Now     func() time.Time

	QueueSize int
	// OnStatus runs on the loop after every handled event.
	OnStatus func(Status)
	// OnBound runs on the loop once the monitor listens to a newly bound
	// element. Starting playback from here makes the start a play intent.
	OnBound func(ports.Element)
}

type Status struct {
	ID          string
	Bound       bool
	Playing     bool
	LastTrigger string
	LastVerdict domain.Verdict
	At          time.Time
}

type Instance struct {
	id       string
	now      func() time.Time
	log      zerolog.Logger
	oracle   ports.FocusOracle
	claims   ports.Register
	monitor  *monitor.Monitor
	engine   *arbiter.Engine
	ledger   *ledger.Ledger
	onStatus func(Status)
	onBound  func(ports.Element)

	events chan func()
	done   chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool

	lastTrigger string
	lastVerdict domain.Verdict
}

func New(opts Options) (*Instance, error) {
	if opts.Claims == nil {
		return nil, errors.New("instance: claim register is required")
	}
	if opts.Oracle == nil {
		return nil, errors.New("instance: focus oracle is required")
	}

	id := opts.ID
	if id == "" {
		id = NewID()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	i := &Instance{
		id:       id,
		now:      now,
		log:      logger.Log.With().Str("instance", id).Logger(),
		oracle:   opts.Oracle,
		claims:   opts.Claims,
		onStatus: opts.OnStatus,
		onBound:  opts.OnBound,
		events:   make(chan func(), size),
		done:     make(chan struct{}),
	}

	i.monitor = monitor.New(i.post, now)
	i.monitor.SetLogger(i.log)

	if arbiter.Uses(opts.Arbiter.Strategies, arbiter.StrategyLedger) {
		if opts.Ledger == nil {
			return nil, fmt.Errorf("instance: %q strategy needs a ledger register", arbiter.StrategyLedger)
		}
		i.ledger = ledger.New(opts.Ledger, id, opts.Arbiter.FocusTTL, now)
		i.ledger.SetLogger(i.log)
	}

	strategies, err := arbiter.BuildStrategies(opts.Arbiter.Strategies, arbiter.StrategyDeps{
		Liveness:      i.monitor,
		SeekTolerance: opts.Arbiter.SeekTolerance,
		Ledger:        i.ledger,
		Logger:        &i.log,
	})
	if err != nil {
		return nil, err
	}

	i.engine = arbiter.New(arbiter.Options{
		Self:       id,
		Oracle:     opts.Oracle,
		Playback:   i.monitor,
		Claims:     opts.Claims,
		Strategies: strategies,
		Now:        now,
		Logger:     &i.log,
	})

	i.monitor.OnPlayAttempt(func() {
		i.record("play_intent", i.engine.OnPlayIntent())
	})

	return i, nil
}

func (i *Instance) ID() string { return i.id }

// Run drains the event loop until ctx is done.
func (i *Instance) Run(ctx context.Context) error {
	i.mu.Lock()
	if i.running || i.stopped {
		i.mu.Unlock()
		return errors.New("instance: already started")
	}
	i.running = true
	i.mu.Unlock()

	cancel := i.claims.Subscribe(func(_, next []byte) {
		i.post(func() {
			i.record("remote_claim", i.engine.OnRemoteClaim(next))
		})
	})
	defer cancel()

	defer func() {
		i.mu.Lock()
		i.stopped = true
		i.mu.Unlock()
		close(i.done)
		i.monitor.Bind(nil)
		metrics.Forget(i.id)
	}()

	i.log.Info().Strs("strategies", strategyNames(i.engine.Strategies())).Msg("Instance started")
	if i.ledger != nil && i.oracle.Focused() {
		i.claimFocus()
	}

	for {
		select {
		case <-ctx.Done():
			i.log.Info().Msg("Instance stopped")
			return ctx.Err()
		case fn := <-i.events:
			fn()
			i.emitStatus()
		}
	}
}

// post enqueues one handler invocation. It blocks while the queue is full
// and drops the handler once the loop has stopped.
func (i *Instance) post(fn func()) {
	select {
	case i.events <- fn:
	case <-i.done:
	}
}

// Post schedules fn on the loop.
func (i *Instance) Post(fn func()) error {
	i.mu.Lock()
	stopped := i.stopped
	i.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	i.post(fn)
	return nil
}

// Bind hands a freshly discovered element to the monitor.
func (i *Instance) Bind(el ports.Element) error {
	return i.Post(func() {
		fresh := el != nil && (!i.monitor.Bound() || i.monitor.Element().ID() != el.ID())
		i.monitor.Bind(el)
		if !fresh {
			return
		}
		metrics.ObserveBinding(i.id)
		if i.onBound != nil {
			i.onBound(el)
		}
	})
}

// FocusGained records this instance in the focus ledger when the window
// gains focus. Without the ledger strategy it does nothing.
func (i *Instance) FocusGained() error {
	return i.Post(i.claimFocus)
}

// Interacted is the click equivalent of FocusGained; it only claims while
// the instance actually holds focus.
func (i *Instance) Interacted() error {
	return i.Post(func() {
		if i.oracle.Focused() {
			i.claimFocus()
		}
	})
}

func (i *Instance) claimFocus() {
	if i.ledger == nil {
		return
	}
	err := i.ledger.Claim()
	metrics.ObservePublish(i.id, "ledger", err)
	if err != nil {
		i.log.Warn().Err(err).Msg("Could not claim focus")
		return
	}
	i.log.Debug().Msg("Claimed focus")
}

func (i *Instance) record(trigger string, v domain.Verdict) {
	i.lastTrigger = trigger
	i.lastVerdict = v
}

func (i *Instance) emitStatus() {
	playing := i.monitor.IsPlaying()
	metrics.SetPlaying(i.id, playing)
	if i.onStatus == nil {
		return
	}
	i.onStatus(Status{
		ID:          i.id,
		Bound:       i.monitor.Bound(),
		Playing:     playing,
		LastTrigger: i.lastTrigger,
		LastVerdict: i.lastVerdict,
		At:          i.now(),
	})
}

func strategyNames(strategies []arbiter.Strategy) []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	return names
}
