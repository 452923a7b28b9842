package ports

type ElementEventKind int

const (
	EventPlay ElementEventKind = iota
	EventPlaying
	EventProgress
)

func (k ElementEventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPlaying:
		return "playing"
	case EventProgress:
		return "progress"
	default:
		return "unknown"
	}
}

type ElementEvent struct {
	Kind ElementEventKind
}

// Element is a playable element bound by the playback monitor.
type Element interface {
	ID() string
	Listen(handler func(ElementEvent)) (detach func())
	Pause() error
	Paused() bool
	Done() <-chan struct{}
}
