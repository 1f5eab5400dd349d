package eventbus

import (
	"testing"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

func TestBusImplementsPortsEventBus(t *testing.T) {
	var _ ports.EventBus = (*Bus)(nil)
}

func TestPublishAssignsMonotonicEventID(t *testing.T) {
	b := New()
	b.Publish(domain.Event{Kind: domain.EventProgress})
	b.Publish(domain.Event{Kind: domain.EventProgress})

	sub := b.Subscribe(0)
	defer sub.Close()

	b.Publish(domain.Event{Kind: domain.EventCompleted})
	evt := <-sub.Events()
	if evt.EventID != 3 {
		t.Fatalf("expected EventID 3, got %d", evt.EventID)
	}
}

func TestSubscribeReplaysEventsNewerThanLastEventID(t *testing.T) {
	b := New()
	b.Publish(domain.Event{Kind: domain.EventProgress})
	b.Publish(domain.Event{Kind: domain.EventStateChanged})
	b.Publish(domain.Event{Kind: domain.EventCompleted})

	sub := b.Subscribe(1)
	defer sub.Close()

	first := <-sub.Events()
	if first.Kind != domain.EventStateChanged {
		t.Fatalf("expected replay to start after EventID 1, got %v", first.Kind)
	}
	second := <-sub.Events()
	if second.Kind != domain.EventCompleted {
		t.Fatalf("expected completed next, got %v", second.Kind)
	}
}

func TestSubscribeZeroMeansLiveOnly(t *testing.T) {
	b := New()
	b.Publish(domain.Event{Kind: domain.EventProgress})

	sub := b.Subscribe(0)
	defer sub.Close()

	b.Publish(domain.Event{Kind: domain.EventCompleted})
	evt := <-sub.Events()
	if evt.Kind != domain.EventCompleted {
		t.Fatalf("expected only the post-subscribe event, got %v", evt.Kind)
	}
}

func TestOverflowEmitsLaggedBehindAndCloses(t *testing.T) {
	b := New()
	sub := b.Subscribe(0)

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(domain.Event{Kind: domain.EventProgress})
	}

	var lastKind domain.EventKind
	count := 0
	for evt := range sub.Events() {
		lastKind = evt.Kind
		count++
	}
	if count == 0 {
		t.Fatal("expected at least the lagged_behind terminal event")
	}
	if lastKind != domain.EventLaggedBehind {
		t.Fatalf("expected channel to end with lagged_behind, got %v", lastKind)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(0)
	sub.Close()

	b.Publish(domain.Event{Kind: domain.EventProgress})

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected channel closed after Close")
	}
}

func TestMultipleSubscribersEachReceiveEvents(t *testing.T) {
	b := New()
	sub1 := b.Subscribe(0)
	sub2 := b.Subscribe(0)
	defer sub1.Close()
	defer sub2.Close()

	b.Publish(domain.Event{Kind: domain.EventProgress, TorrentID: "t1"})

	e1 := <-sub1.Events()
	e2 := <-sub2.Events()
	if e1.TorrentID != "t1" || e2.TorrentID != "t1" {
		t.Fatalf("expected both subscribers to receive the event, got %+v %+v", e1, e2)
	}
}
