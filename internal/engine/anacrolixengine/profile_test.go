package anacrolixengine

import (
	"context"
	"testing"

	"revaer/internal/domain"
)

func TestApplyProfileIdempotentOnIdenticalSettings(t *testing.T) {
	e := &Engine{}
	profile := domain.EngineProfile{Revision: 1, DHT: true, DownloadBps: 1000}

	if err := e.ApplyProfile(context.Background(), profile); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	firstLimiterBurst := e.downLimiter.Burst()

	profile.Revision = 2 // revision bump alone must not count as a settings change
	if err := e.ApplyProfile(context.Background(), profile); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if e.downLimiter.Burst() != firstLimiterBurst {
		t.Errorf("expected no re-adjustment on fingerprint-equal reapply")
	}
}

func TestApplyProfileRejectsImmutableChange(t *testing.T) {
	e := &Engine{}
	p1 := domain.EngineProfile{Revision: 1, DHT: true}
	if err := e.ApplyProfile(context.Background(), p1); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	p2 := domain.EngineProfile{Revision: 2, DHT: false}
	err := e.ApplyProfile(context.Background(), p2)
	ce, ok := domain.AsCommandError(err)
	if !ok || ce.Kind != domain.KindUnsupported {
		t.Fatalf("expected Unsupported CommandError, got %v", err)
	}
}

func TestDedupHostPortCaseInsensitive(t *testing.T) {
	nodes := []string{"Router.Example.Com:6881", "router.example.com:6881", "other.example.com:6881"}
	got := dedupHostPort(nodes)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduped nodes, got %v", got)
	}
	if got[0] != "Router.Example.Com:6881" {
		t.Errorf("expected first-seen casing preserved, got %q", got[0])
	}
}
