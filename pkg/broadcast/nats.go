package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBroadcaster relays messages through a NATS subject.
// The connection is owned by the caller.
type NATSBroadcaster[T any] struct {
	conn         *nats.Conn
	subject      string
	bufferSize   int
	flushTimeout time.Duration
	subs         *registry[T]
}

var _ Broadcaster[struct{}] = (*NATSBroadcaster[struct{}])(nil)

func NewNATSBroadcaster[T any](conn *nats.Conn, subject string, bufferSize int) *NATSBroadcaster[T] {
	return &NATSBroadcaster[T]{
		conn:         conn,
		subject:      subject,
		bufferSize:   bufferSize,
		flushTimeout: 2 * time.Second,
		subs:         newRegistry[T](),
	}
}

// Subscribe registers interest in the subject and flushes so the server
// knows about it before Subscribe returns.
func (b *NATSBroadcaster[T]) Subscribe(ctx context.Context) (Subscriber[T], error) {
	if b.subs.isClosed() {
		return nil, ErrClosed
	}

	sub := newSubscriber[T](b.bufferSize)
	ns, err := b.conn.Subscribe(b.subject, func(m *nats.Msg) {
		var data T
		if err := json.Unmarshal(m.Data, &data); err != nil {
			return
		}
		sub.send(Message[T]{Data: data})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}
	if err := b.conn.FlushTimeout(b.flushTimeout); err != nil {
		_ = ns.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}

	if !b.subs.add(sub) {
		_ = ns.Unsubscribe()
		return nil, ErrClosed
	}
	sub.onClose = func() {
		b.subs.remove(sub)
		_ = ns.Unsubscribe()
	}
	sub.closeOnDone(ctx)
	return sub, nil
}

// Broadcast publishes msg and flushes so it leaves the process before returning.
func (b *NATSBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	if b.subs.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.conn.Publish(b.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", b.subject, err)
	}
	if err := b.conn.FlushTimeout(b.flushTimeout); err != nil {
		return fmt.Errorf("flush %s: %w", b.subject, err)
	}
	return nil
}

// Close closes every subscriber. The NATS connection stays open.
func (b *NATSBroadcaster[T]) Close() error {
	b.subs.close()
	return nil
}
