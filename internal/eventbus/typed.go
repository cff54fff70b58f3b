package eventbus

// TypedBus wraps a Bus and filters delivered events by type, so a
// subscriber only sees the event kind it cares about.
type TypedBus[T any] struct {
	bus  *Bus
	done chan struct{}
}

// NewTyped creates a TypedBus on top of the given Bus.
func NewTyped[T any](bus *Bus) *TypedBus[T] {
	return &TypedBus[T]{bus: bus, done: make(chan struct{})}
}

// Publish places the typed event on the underlying bus.
func (t *TypedBus[T]) Publish(e T) {
	t.bus.Publish(e)
}

// Subscribe returns a channel receiving only events of type T. The
// forwarding goroutine exits when the underlying subscription or the
// typed bus is closed.
func (t *TypedBus[T]) Subscribe() <-chan T {
	raw := t.bus.Subscribe()
	out := make(chan T, subscriberBuffer)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-raw:
				if !ok {
					return
				}
				v, ok := e.(T)
				if !ok {
					continue
				}
				select {
				case out <- v:
				default:
				}
			case <-t.done:
				t.bus.Unsubscribe(raw)
				return
			}
		}
	}()
	return out
}

// Close stops all forwarding goroutines started by Subscribe.
func (t *TypedBus[T]) Close() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}
