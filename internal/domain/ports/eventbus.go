package ports

import "revaer/internal/domain"

// Subscription is a live handle to an Event Bus subscriber (spec §4.7).
type Subscription interface {
	Events() <-chan domain.Event
	Close()
}

// EventBus is the coalescing, at-most-once-delivery broadcast fan-out that
// feeds SSE, FsOps, and the Runtime Catalogue (spec §4.7, §6.2).
type EventBus interface {
	Publish(evt domain.Event)
	// Subscribe returns a Subscription that first replays every event newer
	// than lastEventID the bus still holds (0 means "no replay, live only"),
	// then switches to live delivery.
	Subscribe(lastEventID uint64) Subscription
}
