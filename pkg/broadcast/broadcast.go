package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when publishing on a closed broadcaster.
var ErrClosed = errors.New("broadcast: broadcaster is closed")

// DefaultBufferSize is used when a non-positive buffer size is given.
const DefaultBufferSize = 64

type Message[T any] struct {
	Data T
}

type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the
	// subscriber is closed or its subscription context ends.
	Receive() <-chan Message[T]
	// Dropped reports how many messages were discarded for a full buffer.
	Dropped() uint64
	Close() error
}

type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) (Subscriber[T], error)
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

type subscriber[T any] struct {
	ch      chan Message[T]
	done    chan struct{}
	dropped atomic.Uint64
	closed  bool
	mu      sync.RWMutex
	onClose func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &subscriber[T]{
		ch:   make(chan Message[T], bufferSize),
		done: make(chan struct{}),
	}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

// send delivers msg without blocking.
func (s *subscriber[T]) send(msg Message[T]) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
		s.dropped.Add(1)
	}
}

// closeOnDone closes s when ctx ends, unless s is closed first.
func (s *subscriber[T]) closeOnDone(ctx context.Context) {
	if ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
}

// registry tracks live subscribers so a broadcaster can close them all.
type registry[T any] struct {
	mu     sync.RWMutex
	subs   map[*subscriber[T]]struct{}
	closed bool
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{subs: make(map[*subscriber[T]]struct{})}
}

// add registers sub. It returns false if the registry is closed.
func (r *registry[T]) add(sub *subscriber[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.subs[sub] = struct{}{}
	return true
}

func (r *registry[T]) remove(sub *subscriber[T]) {
	r.mu.Lock()
	delete(r.subs, sub)
	r.mu.Unlock()
}

func (r *registry[T]) each(fn func(*subscriber[T])) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sub := range r.subs {
		fn(sub)
	}
}

func (r *registry[T]) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// close marks the registry closed and closes every subscriber.
func (r *registry[T]) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	subs := make([]*subscriber[T], 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	clear(r.subs)
	r.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
}
