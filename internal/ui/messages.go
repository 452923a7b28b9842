package ui

import "github.com/gabrielcapilla/focusguard/internal/instance"

type statusMsg struct{ status instance.Status }
type playerExitedMsg struct{}

// StatusMsg wraps an instance status for Program.Send.
func StatusMsg(s instance.Status) any { return statusMsg{status: s} }

func PlayerExitedMsg() any { return playerExitedMsg{} }
