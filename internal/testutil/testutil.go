// Package testutil provides test doubles shared by focusguard tests.
package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/ports"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var elementSeq atomic.Uint64

// Element is an in-memory playable element. Fire delivers events
// synchronously to the current listeners.
type Element struct {
	id string

	mu        sync.Mutex
	paused    bool
	listeners map[int]func(ports.ElementEvent)
	next      int
	pauses    int
	pauseErr  error
	done      chan struct{}
	closeOnce sync.Once
}

var _ ports.Element = (*Element)(nil)

func NewElement(playing bool) *Element {
	return &Element{
		id:        fmt.Sprintf("element-%d", elementSeq.Add(1)),
		paused:    !playing,
		listeners: make(map[int]func(ports.ElementEvent)),
		done:      make(chan struct{}),
	}
}

func (e *Element) ID() string { return e.id }

func (e *Element) Listen(h func(ports.ElementEvent)) func() {
	e.mu.Lock()
	id := e.next
	e.next++
	e.listeners[id] = h
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Element) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

func (e *Element) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pauseErr != nil {
		return e.pauseErr
	}
	e.pauses++
	e.paused = true
	return nil
}

func (e *Element) FailPause(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseErr = err
}

func (e *Element) Pauses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Play marks the element playing and fires a play event.
func (e *Element) Play() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.Fire(ports.EventPlay)
}

func (e *Element) Fire(kind ports.ElementEventKind) {
	e.mu.Lock()
	handlers := make([]func(ports.ElementEvent), 0, len(e.listeners))
	for _, h := range e.listeners {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()
	for _, h := range handlers {
		h(ports.ElementEvent{Kind: kind})
	}
}

func (e *Element) Done() <-chan struct{} { return e.done }

func (e *Element) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

// Oracle is a settable focus oracle.
type Oracle struct {
	visible atomic.Bool
	focused atomic.Bool
}

func NewOracle(visible, focused bool) *Oracle {
	o := &Oracle{}
	o.visible.Store(visible)
	o.focused.Store(focused)
	return o
}

func (o *Oracle) Visible() bool     { return o.visible.Load() }
func (o *Oracle) Focused() bool     { return o.focused.Load() }
func (o *Oracle) SetVisible(v bool) { o.visible.Store(v) }
func (o *Oracle) SetFocused(f bool) { o.focused.Store(f) }

// Register is a synchronous single-slot register that records writes.
// Subscribers are not notified; tests drive remote changes directly.
type Register struct {
	mu         sync.Mutex
	value      []byte
	writes     [][]byte
	publishErr error
	getErr     error
}

var _ ports.Register = (*Register)(nil)

func (r *Register) Publish(v []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publishErr != nil {
		return r.publishErr
	}
	r.value = append([]byte(nil), v...)
	r.writes = append(r.writes, r.value)
	return nil
}

func (r *Register) Get() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return append([]byte(nil), r.value...), nil
}

func (r *Register) Subscribe(func(prev, next []byte)) func() { return func() {} }

func (r *Register) Close() error { return nil }

func (r *Register) Writes() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.writes...)
}

func (r *Register) FailPublish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishErr = err
}

func (r *Register) FailGet(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErr = err
}
