// Package eventbus provides an in-process, channel-backed EventPublisher.
// Notification consumers (the restaurant channel today) read from the bus's
// channel; the process boundary is the extension point for a real broker.
package eventbus

import (
	"context"
	"errors"

	"fooddelivery/internal/core/ports"
)

// ErrBusClosed is returned when publishing after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Event is one published domain event.
type Event struct {
	Name    string
	Payload any
}

// ChannelEventBus implements ports.EventPublisher over a buffered channel.
// Publish blocks when the buffer is full until a consumer catches up or the
// caller's context expires, so a stalled consumer surfaces as a step failure
// instead of silent loss.
type ChannelEventBus struct {
	ch     chan Event
	closed chan struct{}
}

// NewChannelEventBus creates a bus with the given buffer size.
func NewChannelEventBus(buffer int) *ChannelEventBus {
	return &ChannelEventBus{
		ch:     make(chan Event, buffer),
		closed: make(chan struct{}),
	}
}

// Publish delivers the event to the bus.
// Returns the context's error if it expires first, or ErrBusClosed after Close.
func (b *ChannelEventBus) Publish(ctx context.Context, eventName string, payload any) error {
	select {
	case <-b.closed:
		return ErrBusClosed
	default:
	}

	select {
	case b.ch <- Event{Name: eventName, Payload: payload}:
		return nil
	case <-b.closed:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Channel exposes the consumer side of the bus.
func (b *ChannelEventBus) Channel() <-chan Event {
	return b.ch
}

// Close stops the bus. Pending events already in the buffer remain readable;
// subsequent publishes fail with ErrBusClosed. Safe to call once.
func (b *ChannelEventBus) Close() {
	close(b.closed)
}

var _ ports.EventPublisher = (*ChannelEventBus)(nil)
