package discovery

import (
	"context"
	"time"

	"github.com/gabrielcapilla/focusguard/internal/logger"
	"github.com/gabrielcapilla/focusguard/internal/ports"
)

const DefaultInterval = 500 * time.Millisecond

// Locator finds the current playable element. A nil element with a nil
// error means none exists yet.
type Locator interface {
	Locate(ctx context.Context) (ports.Element, error)
}

// Watcher keeps re-resolving the element and reports every replacement.
type Watcher struct {
	Locator  Locator
	Interval time.Duration
}

// Run calls bind with each newly located element, and with nil when the
// previously bound element disappears, until ctx is done.
func (w Watcher) Run(ctx context.Context, bind func(ports.Element)) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var current ports.Element
	for {
		el, err := w.Locator.Locate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.Warn().Err(err).Msg("Could not locate player element")
		} else if changed(current, el) {
			current = el
			bind(el)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func changed(current, next ports.Element) bool {
	switch {
	case current == nil && next == nil:
		return false
	case current == nil || next == nil:
		return true
	default:
		return current.ID() != next.ID()
	}
}
