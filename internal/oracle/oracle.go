// Package oracle answers point-in-time questions about whether the local
// instance is visible and holds input focus.
package oracle

import (
	"sync/atomic"

	"github.com/gabrielcapilla/focusguard/internal/ports"
)

// State is written by whatever observes the terminal (the status view)
// and read by the arbiter from the instance loop.
type State struct {
	visible atomic.Bool
	focused atomic.Bool
}

var _ ports.FocusOracle = (*State)(nil)

func New(visible, focused bool) *State {
	s := &State{}
	s.visible.Store(visible)
	s.focused.Store(focused)
	return s
}

func (s *State) Visible() bool { return s.visible.Load() }

// Focused implies Visible: a hidden instance cannot hold focus.
func (s *State) Focused() bool { return s.visible.Load() && s.focused.Load() }

func (s *State) SetVisible(v bool) { s.visible.Store(v) }

func (s *State) SetFocused(f bool) { s.focused.Store(f) }
