// Package reconcile implements Reconciliation (C9): on startup it re-admits
// every persisted resume blob through the Session Orchestrator, re-installs
// the corresponding selection rules, and replays tags/category (spec
// §4.9). Grounded on starsinc1708-TorrX's engine-session bootstrap (which
// re-registers previously known torrents before opening the control
// plane), generalized from a native-session-only bootstrap into a
// persistence-driven one across the Resume Store and Runtime Catalogue.
package reconcile

import (
	"context"

	"github.com/rs/zerolog/log"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/orchestrator"
)

// Reconciler replays persisted state into a freshly started Orchestrator.
type Reconciler struct {
	orch    *orchestrator.Orchestrator
	resume  ports.ResumeStore
	catalog ports.Catalogue
	bus     ports.EventBus
}

func New(orch *orchestrator.Orchestrator, resume ports.ResumeStore, catalog ports.Catalogue, bus ports.EventBus) *Reconciler {
	return &Reconciler{orch: orch, resume: resume, catalog: catalog, bus: bus}
}

// Result summarizes one reconciliation pass, for the caller to log or
// surface to an operator.
type Result struct {
	Reinstated []domain.TorrentID
	Quarantined []domain.TorrentID
}

// Run enumerates every persisted resume blob and re-admits it (spec §4.9).
// It is intended to run once, before the control plane starts accepting
// commands.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	blobs, err := r.resume.List()
	if err != nil {
		return Result{}, err
	}

	var result Result
	for id, blob := range blobs {
		record, ok := r.catalog.Get(id)
		if !ok {
			log.Warn().Str("torrentId", string(id)).Msg("reconcile: resume blob has no catalogue record, quarantining")
			result.Quarantined = append(result.Quarantined, id)
			continue
		}

		if err := r.reinstate(ctx, id, blob, record); err != nil {
			log.Warn().Err(err).Str("torrentId", string(id)).Msg("reconcile: re-admission failed, quarantining")
			r.quarantine(record, err)
			result.Quarantined = append(result.Quarantined, id)
			continue
		}
		result.Reinstated = append(result.Reinstated, id)
	}
	return result, nil
}

func (r *Reconciler) reinstate(ctx context.Context, id domain.TorrentID, blob []byte, record domain.TorrentRecord) error {
	if err := r.orch.LoadFastresume(ctx, id, blob); err != nil {
		return err
	}

	_, err := r.orch.AddTorrent(ctx, orchestrator.AddTorrentRequest{
		ID:              id,
		Source:          record.Source,
		SavePath:        record.SavePath,
		Selection:       record.Selection,
		Limits:          record.Limits,
		Flags:           record.Flags,
		Tags:            record.Tags,
		Category:        record.Category,
		Trackers:        record.Trackers,
		ReplaceTrackers: true,
	})
	if err != nil {
		return err
	}

	// Re-installing selection explicitly (rather than relying on the
	// priorities add_torrent applied at admission) lets UpdateSelection's
	// divergence check emit selection_reconciled if the engine's restored
	// priority vector differs from the persisted intent (spec §4.9).
	if err := r.orch.UpdateSelection(ctx, id, record.Selection); err != nil {
		log.Warn().Err(err).Str("torrentId", string(id)).Msg("reconcile: selection re-install failed")
	}
	return nil
}

func (r *Reconciler) quarantine(record domain.TorrentRecord, cause error) {
	record.State = domain.Failed
	r.catalog.Upsert(record)
	if r.bus == nil {
		return
	}
	r.bus.Publish(domain.Event{
		TorrentID: record.ID,
		Kind:      domain.EventStateChanged,
		Payload:   domain.StateChangedPayload{State: domain.Failed},
	})
	r.bus.Publish(domain.Event{
		TorrentID: record.ID,
		Kind:      domain.EventError,
		Payload:   domain.ErrorPayload{Message: cause.Error()},
	})
}
