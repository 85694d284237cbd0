package events

import (
	"context"
	"sync"
)

// ChannelPublisher delivers events to an in-process subscriber over a
// buffered channel. It is the delivery mechanism the in-process orchestrator
// and tests consume; Publish blocks when the buffer is full rather than drop,
// bounded by the caller's context.
type ChannelPublisher struct {
	ch     chan Event
	once   sync.Once
	closed chan struct{}
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelPublisher{
		ch:     make(chan Event, buffer),
		closed: make(chan struct{}),
	}
}

// Publish enqueues the event, blocking until there is buffer space, the
// context is cancelled, or the publisher is closed.
func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	select {
	case <-p.closed:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.ch <- event:
		return nil
	case <-p.closed:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns the receive side of the event stream.
func (p *ChannelPublisher) Subscribe() <-chan Event {
	return p.ch
}

// Close stops the publisher. Pending events already in the buffer remain
// readable by the subscriber.
func (p *ChannelPublisher) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
