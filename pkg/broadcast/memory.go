package broadcast

import "context"

// MemoryBroadcaster delivers messages to subscribers in the same process.
type MemoryBroadcaster[T any] struct {
	subs       *registry[T]
	bufferSize int
}

var _ Broadcaster[struct{}] = (*MemoryBroadcaster[struct{}])(nil)

func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{subs: newRegistry[T](), bufferSize: bufferSize}
}

// Subscribe registers a subscriber that lives until it is closed or ctx ends.
// Subscribing to a closed broadcaster yields an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) (Subscriber[T], error) {
	sub := newSubscriber[T](b.bufferSize)
	if !b.subs.add(sub) {
		_ = sub.Close()
		return sub, nil
	}
	sub.onClose = func() { b.subs.remove(sub) }
	sub.closeOnDone(ctx)
	return sub, nil
}

func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	if b.subs.isClosed() {
		return ErrClosed
	}
	b.subs.each(func(sub *subscriber[T]) { sub.send(msg) })
	return nil
}

func (b *MemoryBroadcaster[T]) Close() error {
	b.subs.close()
	return nil
}
