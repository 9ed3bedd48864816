package service

// Notifier pushes an event to a user's connected clients. Delivery is
// at-most-once: implementations drop events for offline users or full buffers
// and never block the caller.
type Notifier interface {
	Publish(userID, event string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, interface{}) {}

// NoopNotifier is used when no push channel is wired, e.g. in tests.
func NoopNotifier() Notifier {
	return noopNotifier{}
}
