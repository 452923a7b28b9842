package monitor

import (
	"time"

	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"

	"github.com/rs/zerolog"
)

// Monitor tracks the single playable element of an instance. Every method
// must be called from the instance loop; element callbacks are routed back
// onto that loop through post.
type Monitor struct {
	post func(func())
	now  func() time.Time
	log  zerolog.Logger

	element   ports.Element
	detach    func()
	lastAlive time.Time
	handlers  []func()
}

func New(post func(func()), now func() time.Time) *Monitor {
	if now == nil {
		now = time.Now
	}
	return &Monitor{post: post, now: now, log: logger.Log}
}

func (m *Monitor) SetLogger(l zerolog.Logger) { m.log = l }

// Bind attaches to el, detaching from the previous element first. Binding
// the element that is already bound does nothing. A nil element unbinds.
func (m *Monitor) Bind(el ports.Element) {
	if el != nil && m.element != nil && el.ID() == m.element.ID() {
		return
	}
	if el == nil && m.element == nil {
		return
	}

	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
	if m.element != nil {
		m.log.Debug().Str("element", m.element.ID()).Msg("Detached from element")
	}

	m.element = el
	m.lastAlive = time.Time{}

	if el == nil {
		return
	}

	m.detach = el.Listen(func(ev ports.ElementEvent) {
		m.post(func() { m.handle(el, ev) })
	})
	m.log.Info().Str("element", el.ID()).Msg("Bound to element")
}

func (m *Monitor) handle(from ports.Element, ev ports.ElementEvent) {
	if m.element == nil || from.ID() != m.element.ID() {
		return
	}

	switch ev.Kind {
	case ports.EventProgress:
		m.MarkAlive()
	case ports.EventPlay, ports.EventPlaying:
		for _, h := range m.handlers {
			h()
		}
	}
}

func (m *Monitor) OnPlayAttempt(handler func()) {
	m.handlers = append(m.handlers, handler)
}

func (m *Monitor) MarkAlive() {
	if m.element == nil {
		return
	}
	m.lastAlive = m.now()
}

// LastAlive returns the time of the last progress signal of the bound
// element, or false when it never produced one.
func (m *Monitor) LastAlive() (time.Time, bool) {
	return m.lastAlive, !m.lastAlive.IsZero()
}

func (m *Monitor) Pause() error {
	if m.element == nil || m.element.Paused() {
		return nil
	}
	return m.element.Pause()
}

func (m *Monitor) IsPlaying() bool {
	return m.element != nil && !m.element.Paused()
}

func (m *Monitor) Bound() bool { return m.element != nil }

func (m *Monitor) Element() ports.Element { return m.element }
