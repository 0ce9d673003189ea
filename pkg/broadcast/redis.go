package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster relays messages through a Redis pub/sub channel.
// The client is owned by the caller.
type RedisBroadcaster[T any] struct {
	client     redis.UniversalClient
	channel    string
	bufferSize int
	subs       *registry[T]
}

var _ Broadcaster[struct{}] = (*RedisBroadcaster[struct{}])(nil)

func NewRedisBroadcaster[T any](client redis.UniversalClient, channel string, bufferSize int) *RedisBroadcaster[T] {
	return &RedisBroadcaster[T]{
		client:     client,
		channel:    channel,
		bufferSize: bufferSize,
		subs:       newRegistry[T](),
	}
}

// Subscribe opens a pub/sub connection and waits for Redis to confirm it,
// so messages published after Subscribe returns are delivered.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) (Subscriber[T], error) {
	if b.subs.isClosed() {
		return nil, ErrClosed
	}

	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	sub := newSubscriber[T](b.bufferSize)
	if !b.subs.add(sub) {
		_ = ps.Close()
		return nil, ErrClosed
	}
	sub.onClose = func() {
		b.subs.remove(sub)
		_ = ps.Close()
	}

	go func() {
		defer sub.Close()
		for m := range ps.Channel() {
			var data T
			if err := json.Unmarshal([]byte(m.Payload), &data); err != nil {
				continue
			}
			sub.send(Message[T]{Data: data})
		}
	}()
	sub.closeOnDone(ctx)
	return sub, nil
}

func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if b.subs.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Close closes every subscriber. The Redis client stays open.
func (b *RedisBroadcaster[T]) Close() error {
	b.subs.close()
	return nil
}
