package register

import (
	"bytes"
	"sync"
)

// subscription keeps only the latest undelivered value. A writer never
// blocks on a slow handler; values overwritten before the handler runs are
// never delivered individually.
type subscription struct {
	handler func(prev, next []byte)

	mu      sync.Mutex
	seen    []byte
	pending []byte
	dirty   bool
	stopped bool

	wake chan struct{}
	done chan struct{}
}

func newSubscription(handler func(prev, next []byte), current []byte) *subscription {
	return &subscription{
		handler: handler,
		seen:    bytes.Clone(current),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *subscription) set(value []byte) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = bytes.Clone(value)
	s.dirty = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		if !s.dirty || s.stopped {
			s.mu.Unlock()
			continue
		}
		prev, next := s.seen, s.pending
		s.seen = next
		s.pending = nil
		s.dirty = false
		s.mu.Unlock()

		s.handler(prev, next)
	}
}

func (s *subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
}
