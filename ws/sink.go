package ws

import (
	"context"

	"github.com/Bitcomethub/Somnus/domain/event"
	"github.com/Bitcomethub/Somnus/errors"
)

// Sink is the per-connection delivery channel. One writer goroutine
// drains it onto the websocket, so events consumed in sequence reach
// the client in that order.
type Sink struct {
	events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the hub's fan-out.
// Redirect the event through the concerned owner of the channel;
// the write pump will take it from now. A full buffer means the client
// is not keeping up: the delivery deadline carried by ctx bounds how
// long the fan-out waits for a slot, then the event is dropped for
// this recipient only.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return errors.ErrSinkFull
	}
}

// Events returns the ordered outbound channel, read by the write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
