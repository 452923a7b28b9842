package register

import (
	"bytes"
	"errors"
	"sync"

	"github.com/gabrielcapilla/focusguard/internal/ports"
)

var ErrClosed = errors.New("register: closed")

// Hub is an in-process broadcast bus holding one slot per key. Every call
// to Slot returns a new participant; a participant never observes its own
// writes.
type Hub struct {
	mu     sync.Mutex
	values map[string][]byte
	slots  map[string][]*HubSlot
}

func NewHub() *Hub {
	return &Hub{
		values: make(map[string][]byte),
		slots:  make(map[string][]*HubSlot),
	}
}

func (h *Hub) Slot(key string) *HubSlot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &HubSlot{hub: h, key: key}
	h.slots[key] = append(h.slots[key], s)
	return s
}

// publish stores and delivers under h.mu so a concurrent Subscribe either
// sees the new value as current or receives it.
func (h *Hub) publish(from *HubSlot, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.values[from.key] = bytes.Clone(value)
	for _, peer := range h.slots[from.key] {
		if peer == from {
			continue
		}
		peer.deliver(value)
	}
}

func (h *Hub) get(key string) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.values[key])
}

func (h *Hub) remove(s *HubSlot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	slots := h.slots[s.key]
	for i, candidate := range slots {
		if candidate == s {
			h.slots[s.key] = append(slots[:i:i], slots[i+1:]...)
			return
		}
	}
}

type HubSlot struct {
	hub *Hub
	key string

	mu     sync.Mutex
	subs   []*subscription
	closed bool
}

var _ ports.Register = (*HubSlot)(nil)

func (s *HubSlot) Publish(value []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	s.hub.publish(s, value)
	return nil
}

func (s *HubSlot) Get() ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return s.hub.get(s.key), nil
}

func (s *HubSlot) Subscribe(handler func(prev, next []byte)) func() {
	s.hub.mu.Lock()
	sub := newSubscription(handler, s.hub.values[s.key])
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.subs = append(s.subs, sub)
	}
	s.mu.Unlock()
	s.hub.mu.Unlock()

	if closed {
		return func() {}
	}

	go sub.run()

	return func() {
		s.mu.Lock()
		for i, candidate := range s.subs {
			if candidate == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		sub.stop()
	}
}

func (s *HubSlot) deliver(value []byte) {
	s.mu.Lock()
	subs := append([]*subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.set(value)
	}
}

func (s *HubSlot) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	s.hub.remove(s)
	for _, sub := range subs {
		sub.stop()
	}
	return nil
}
