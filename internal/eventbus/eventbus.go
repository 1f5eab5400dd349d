// Package eventbus implements the Event Bus (C7): a monotonic, replayable
// broadcast fan-out over domain.Event (spec §4.7). Grounded on
// autobrr-qui's internal/api/sse StreamManager — an atomic sequence counter
// feeding a bounded per-subscriber channel, with go-sse handling wire
// framing and Last-Event-ID replay — generalized here from a per-instance
// qBittorrent sync stream to a single process-wide torrent event stream.
package eventbus

import (
	"sync"
	"time"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

const (
	// subscriberBuffer is the per-subscriber channel depth. A subscriber
	// slower than this falls behind and receives a single terminal
	// lagged_behind event instead of silently missing updates.
	subscriberBuffer = 256

	// replayMinEvents and replayWindow bound the ring buffer: it holds at
	// least replayMinEvents entries, and at least replayWindow worth of
	// history, whichever is larger at current publish rate.
	replayMinEvents = 1024
	replayWindow    = 60 * time.Second
)

type ringEntry struct {
	evt domain.Event
	at  time.Time
}

// Bus is the process-wide event broadcaster. It owns a replay ring keyed by
// EventID and a set of live subscriber channels; Publish fans out to both.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	ring   []ringEntry

	subs map[*sub]struct{}

	now func() time.Time
}

type sub struct {
	ch     chan domain.Event
	closed bool
}

func New() *Bus {
	return &Bus{
		subs: make(map[*sub]struct{}),
		now:  time.Now,
	}
}

// Publish assigns the next monotonic EventID, appends to the replay ring,
// trims entries older than the replay window once past replayMinEvents, and
// fans out to every live subscriber without blocking the caller.
func (b *Bus) Publish(evt domain.Event) {
	b.mu.Lock()
	b.nextID++
	evt.EventID = b.nextID
	if evt.At.IsZero() {
		evt.At = b.now()
	}
	b.ring = append(b.ring, ringEntry{evt: evt, at: b.now()})
	b.trimRingLocked()

	subs := make([]*sub, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, evt)
	}
}

func (b *Bus) trimRingLocked() {
	cutoff := b.now().Add(-replayWindow)
	for len(b.ring) > replayMinEvents && b.ring[0].at.Before(cutoff) {
		b.ring = b.ring[1:]
	}
}

// deliver sends evt to s's channel, coalescing into a terminal
// lagged_behind event and closing the channel if the subscriber cannot keep
// up (spec §4.7 "at-most-once, never blocks the publisher").
//
// The closed check, the send, and the close itself all happen under b.mu,
// the same lock Subscription.Close takes. Releasing the lock between
// checking s.closed and sending on s.ch would let a concurrent Close close
// s.ch in that window, panicking this send; holding the lock across the
// whole operation makes delivery and close mutually exclusive instead. The
// send is still non-blocking (select/default), so this never stalls Publish
// on a slow subscriber.
func (b *Bus) deliver(s *sub, evt domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- evt:
	default:
		s.closed = true
		delete(b.subs, s)
		// The buffer is full: drop the oldest buffered event so the
		// terminal lagged_behind event always fits.
		select {
		case <-s.ch:
		default:
		}
		lagged := domain.Event{EventID: evt.EventID, Kind: domain.EventLaggedBehind, At: b.now()}
		select {
		case s.ch <- lagged:
		default:
		}
		close(s.ch)
	}
}

// Subscribe replays every buffered event with EventID > lastEventID, then
// attaches the subscriber for live delivery. lastEventID of 0 means
// live-only: no replay.
func (b *Bus) Subscribe(lastEventID uint64) ports.Subscription {
	b.mu.Lock()
	s := &sub{ch: make(chan domain.Event, subscriberBuffer)}

	var backlog []domain.Event
	if lastEventID > 0 {
		for _, entry := range b.ring {
			if entry.evt.EventID > lastEventID {
				backlog = append(backlog, entry.evt)
			}
		}
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

replay:
	for _, evt := range backlog {
		select {
		case s.ch <- evt:
		default:
			// Subscriber buffer is smaller than the replay backlog; stop
			// replaying, drop the subscriber and end its channel with a
			// terminal lagged_behind event in place of one buffered event.
			b.mu.Lock()
			if !s.closed {
				s.closed = true
				delete(b.subs, s)
				lagged := domain.Event{Kind: domain.EventLaggedBehind, At: b.now()}
				select {
				case <-s.ch:
				default:
				}
				select {
				case s.ch <- lagged:
				default:
				}
				close(s.ch)
			}
			b.mu.Unlock()
			break replay
		}
	}

	return &Subscription{bus: b, s: s}
}

// Subscription is a live handle returned by Bus.Subscribe, implementing
// ports.Subscription.
type Subscription struct {
	bus *Bus
	s   *sub
}

func (sub *Subscription) Events() <-chan domain.Event {
	return sub.s.ch
}

func (sub *Subscription) Close() {
	sub.bus.mu.Lock()
	defer sub.bus.mu.Unlock()
	if sub.s.closed {
		return
	}
	sub.s.closed = true
	delete(sub.bus.subs, sub.s)
	close(sub.s.ch)
}
