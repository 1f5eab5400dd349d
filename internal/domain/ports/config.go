package ports

import (
	"context"

	"revaer/internal/domain"
)

// AppProfile carries only the fields the orchestrator cares about from the
// larger (out-of-scope) application configuration document (spec §6.3).
type AppProfile struct {
	Mode          string
	ImmutableKeys []string
	TelemetryOn   bool
}

// ConfigSnapshot is one revision of configuration delivered by the
// out-of-scope Postgres-backed config store (spec §6.3).
type ConfigSnapshot struct {
	Revision uint64
	Engine   domain.EngineProfile
	Fs       domain.FsPolicy
	App      AppProfile
}

// ConfigWatcher is the collaborator contract the orchestrator consumes
// configuration snapshots through. The orchestrator applies engine and fs
// policy diffs synchronously in delivery order; intermediate snapshots may
// be coalesced under backpressure, but the final snapshot is always applied
// (spec §6.3).
type ConfigWatcher interface {
	Subscribe(ctx context.Context) (<-chan ConfigSnapshot, error)
}
