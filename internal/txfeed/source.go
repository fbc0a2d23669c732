package txfeed

import (
	"context"

	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
)

// SourceEvent is one delivery from an EventSource: an event, or a fault
// of the source's transport.
type SourceEvent struct {
	Event ingest.Event
	Err   error
}

// EventSource delivers observed transactions at least once.
type EventSource interface {
	// Events starts delivery. The returned channel is closed once ctx is
	// done. Transport faults arrive as SourceEvent.Err and do not end the
	// stream.
	Events(ctx context.Context) (<-chan SourceEvent, error)
}
