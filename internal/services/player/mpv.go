package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"
)

const (
	dialTimeout    = 500 * time.Millisecond
	writeDeadline  = 500 * time.Millisecond
	observeIDPause = 1
	observeIDPos   = 2
)

type MpvCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

type MpvResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int             `json:"request_id"`
	Event     string          `json:"event"`
	ID        int             `json:"id"`
	Name      string          `json:"name"`
}

var elementSeq atomic.Uint64

// MpvElement is a playable element backed by one IPC connection to mpv.
// A new connection is a new element: when mpv restarts, the old element is
// done and the locator hands out a fresh one.
type MpvElement struct {
	id   string
	conn net.Conn

	writeMu sync.Mutex
	encoder *json.Encoder

	mu        sync.Mutex
	paused    bool
	observed  bool
	listeners map[int]func(ports.ElementEvent)
	nextID    int

	closeOnce sync.Once
	done      chan struct{}
}

var _ ports.Element = (*MpvElement)(nil)

func Dial(socketPath string) (*MpvElement, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mpv socket: %w", err)
	}
	el := newMpvElement(conn, fmt.Sprintf("%s#%d", socketPath, elementSeq.Add(1)))
	if err := el.observe(); err != nil {
		_ = el.Close()
		return nil, err
	}
	return el, nil
}

func newMpvElement(conn net.Conn, id string) *MpvElement {
	el := &MpvElement{
		id:        id,
		conn:      conn,
		encoder:   json.NewEncoder(conn),
		paused:    true,
		listeners: make(map[int]func(ports.ElementEvent)),
		done:      make(chan struct{}),
	}
	go el.readLoop()
	return el
}

func (e *MpvElement) ID() string { return e.id }

func (e *MpvElement) Done() <-chan struct{} { return e.done }

func (e *MpvElement) observe() error {
	return e.send(
		MpvCommand{Command: []any{"observe_property", observeIDPause, "pause"}},
		MpvCommand{Command: []any{"observe_property", observeIDPos, "time-pos"}},
	)
}

func (e *MpvElement) send(cmds ...MpvCommand) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	_ = e.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	for _, cmd := range cmds {
		if err := e.encoder.Encode(cmd); err != nil {
			return fmt.Errorf("error sending mpv command: %w", err)
		}
	}
	return nil
}

func (e *MpvElement) Listen(handler func(ports.ElementEvent)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *MpvElement) Pause() error {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	return e.send(MpvCommand{Command: []any{"set_property", "pause", true}})
}

// Resume unpauses the player. The resulting pause change reaches listeners
// as a play event.
func (e *MpvElement) Resume() error {
	return e.send(MpvCommand{Command: []any{"set_property", "pause", false}})
}

func (e *MpvElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *MpvElement) readLoop() {
	defer e.Close()

	scanner := bufio.NewScanner(e.conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		var resp MpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			logger.Log.Warn().Str("line", string(line)).Err(err).Msg("Could not parse line from mpv")
			continue
		}
		if ev, ok := e.translate(resp); ok {
			e.emit(ev)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Log.Debug().Err(err).Str("element", e.id).Msg("mpv connection closed")
	}
}

// translate maps mpv notifications onto element events. The first pause
// observation only records the state: binding to a playing player is not a
// play attempt.
func (e *MpvElement) translate(resp MpvResponse) (ports.ElementEvent, bool) {
	switch resp.Event {
	case "property-change":
		switch resp.Name {
		case "pause":
			var paused bool
			if err := json.Unmarshal(resp.Data, &paused); err != nil {
				return ports.ElementEvent{}, false
			}
			e.mu.Lock()
			wasPaused, first := e.paused, !e.observed
			e.paused = paused
			e.observed = true
			e.mu.Unlock()
			if !first && wasPaused && !paused {
				return ports.ElementEvent{Kind: ports.EventPlay}, true
			}
		case "time-pos":
			var pos *float64
			if err := json.Unmarshal(resp.Data, &pos); err != nil || pos == nil {
				return ports.ElementEvent{}, false
			}
			if !e.Paused() {
				return ports.ElementEvent{Kind: ports.EventProgress}, true
			}
		}
	case "playback-restart":
		if !e.Paused() {
			return ports.ElementEvent{Kind: ports.EventPlaying}, true
		}
	}
	return ports.ElementEvent{}, false
}

func (e *MpvElement) emit(ev ports.ElementEvent) {
	e.mu.Lock()
	handlers := make([]func(ports.ElementEvent), 0, len(e.listeners))
	for _, h := range e.listeners {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (e *MpvElement) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.conn.Close()
		close(e.done)
	})
	return err
}
