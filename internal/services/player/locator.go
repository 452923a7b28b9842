package player

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"
)

// SocketLocator resolves the live mpv element behind a socket path. It
// keeps returning the same element until its connection ends.
type SocketLocator struct {
	path string
	dial func(string) (*MpvElement, error)

	mu      sync.Mutex
	current *MpvElement
}

func NewSocketLocator(path string) *SocketLocator {
	return &SocketLocator{path: path, dial: Dial}
}

func (l *SocketLocator) Locate(ctx context.Context) (ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		select {
		case <-l.current.Done():
			l.current = nil
		default:
			return l.current, nil
		}
	}

	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	el, err := l.dial(l.path)
	if err != nil {
		// A socket file left behind by a dead player refuses connections.
		logger.Log.Debug().Err(err).Str("socket", l.path).Msg("Player socket not ready")
		return nil, nil
	}
	l.current = el
	return el, nil
}

func (l *SocketLocator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	err := l.current.Close()
	l.current = nil
	return err
}
