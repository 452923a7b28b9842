package ports

// Register is a shared single-slot value with remote change notification.
// Publish replaces the slot and never fires the publisher's own
// subscriptions. Delivery is last-write-wins: intermediate writes may be
// coalesced, but the final value is always delivered at least once.
type Register interface {
	Publish(value []byte) error
	Get() ([]byte, error)
	Subscribe(handler func(prev, next []byte)) (cancel func())
	Close() error
}
