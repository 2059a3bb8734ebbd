package events

import "context"

// Publisher dispatches domain events to the messaging collaborator.
type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
}

// Buffer collects events raised during an atomic scope. The processor
// flushes it only after a successful commit; a rolled-back scope drops the
// buffer on the floor.
type Buffer struct {
	pending []Event
}

func (b *Buffer) Add(evts ...Event) {
	b.pending = append(b.pending, evts...)
}

func (b *Buffer) Flush(ctx context.Context, pub Publisher) error {
	if len(b.pending) == 0 {
		return nil
	}
	err := pub.Publish(ctx, b.pending...)
	b.pending = nil
	return err
}

// NopPublisher discards everything; used where messaging is not wired.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
