package orchestrator

import (
	"context"
	"fmt"
	"os"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/selection"
)

// ApplyEngineProfile implements spec §4.4 apply_engine_profile: it pushes
// the profile to the native engine (idempotent diff application, spec
// property 5) and updates the cached defaults the rest of the orchestrator
// reads (trackers, auth, resume directory, ...).
func (o *Orchestrator) ApplyEngineProfile(ctx context.Context, profile domain.EngineProfile) error {
	_, err := o.submit(ctx, func() (any, error) {
		if profile.ResumeDir != "" {
			if err := os.MkdirAll(profile.ResumeDir, 0o755); err != nil {
				return nil, domain.WrapCommandError(domain.KindInternal, "create resume dir", err)
			}
		}
		if err := o.engine.ApplyProfile(ctx, profile); err != nil {
			return nil, err
		}
		o.profile = profile
		o.publish(domain.Event{Kind: domain.EventSettingsChanged, Payload: domain.SettingsChangedPayload{Revision: profile.Revision}})
		return nil, nil
	})
	return err
}

// ApplyFsPolicy installs a new FsPolicy snapshot, consumed by FsOps (C8) and
// by add_torrent's allow-path validation (spec §6.3 "applies engine and fs
// policy diffs synchronously in the order received").
func (o *Orchestrator) ApplyFsPolicy(ctx context.Context, policy domain.FsPolicy) error {
	_, err := o.submit(ctx, func() (any, error) {
		o.fsPolicy = policy
		return nil, nil
	})
	return err
}

func (o *Orchestrator) withHandle(ctx context.Context, id domain.TorrentID, fn func(ports.Handle) error) error {
	_, err := o.submit(ctx, func() (any, error) {
		h, ok := o.reg.Get(id)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		return nil, fn(h)
	})
	return err
}

// Remove implements spec §4.4 remove(id, with_data).
func (o *Orchestrator) Remove(ctx context.Context, id domain.TorrentID, withData bool) error {
	_, err := o.submit(ctx, func() (any, error) {
		if _, ok := o.reg.Get(id); !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		if err := o.engine.Remove(id, withData); err != nil {
			return nil, domain.WrapCommandError(domain.KindInternal, "remove torrent", err)
		}
		o.reg.Remove(id)
		delete(o.selections, id)
		delete(o.pendingResume, id)
		o.alerts.Forget(id)
		if o.catalog != nil {
			o.catalog.Remove(id)
		}
		if o.resume != nil {
			_ = o.resume.Delete(id)
		}
		o.publish(domain.Event{TorrentID: id, Kind: domain.EventTorrentRemoved})
		return nil, nil
	})
	return err
}

// Pause implements spec §4.4 pause(id).
func (o *Orchestrator) Pause(ctx context.Context, id domain.TorrentID) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.Pause() })
}

// Resume implements spec §4.4 resume(id).
func (o *Orchestrator) Resume(ctx context.Context, id domain.TorrentID) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.Resume() })
}

// SetSequential implements spec §4.4 set_sequential(id, bool).
func (o *Orchestrator) SetSequential(ctx context.Context, id domain.TorrentID, sequential bool) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.SetSequential(sequential) })
}

// Reannounce implements spec §4.4 reannounce(id).
func (o *Orchestrator) Reannounce(ctx context.Context, id domain.TorrentID) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.Reannounce() })
}

// Recheck implements spec §4.4 recheck(id). It resets the Alert Adapter's
// completed_emitted guard so a subsequent completion re-fires (spec I6,
// "at most one completed between any two recheck commands").
func (o *Orchestrator) Recheck(ctx context.Context, id domain.TorrentID) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error {
		if err := h.Recheck(); err != nil {
			return err
		}
		o.alerts.ResetCompletion(id)
		return nil
	})
}

// SetPieceDeadline implements spec §4.4 set_piece_deadline(id, piece,
// deadline_ms|none).
func (o *Orchestrator) SetPieceDeadline(ctx context.Context, id domain.TorrentID, piece int, deadlineMS *int) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.SetPiecePriority(piece, deadlineMS) })
}

// MoveTorrent implements spec §4.4 move_torrent(id, new_dir). The
// destination is subject to the same allow-path check as add_torrent
// (spec §4.8 step 4 "Destination path is subject to I2").
func (o *Orchestrator) MoveTorrent(ctx context.Context, id domain.TorrentID, newDir string) error {
	_, err := o.submit(ctx, func() (any, error) {
		if !pathAllowed(newDir, o.fsPolicy.AllowPaths) {
			return nil, domain.NewCommandError(domain.KindAllowPathViolation, fmt.Sprintf("destination %q is outside allow_paths", newDir))
		}
		h, ok := o.reg.Get(id)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		if err := h.MoveStorage(newDir); err != nil {
			return nil, err
		}
		if record, ok := o.catalog.Get(id); ok {
			record.SavePath = newDir
			o.catalog.Upsert(record)
		}
		return nil, nil
	})
	return err
}

// UpdateLimitsRequest is spec §4.4 update_limits's payload: global if
// ApplyGlobally, else scoped to TorrentID.
type UpdateLimitsRequest struct {
	TorrentID     domain.TorrentID
	ApplyGlobally bool
	DownloadBps   *int64
	UploadBps     *int64
}

// UpdateLimits implements spec §4.4 update_limits.
func (o *Orchestrator) UpdateLimits(ctx context.Context, req UpdateLimitsRequest) error {
	_, err := o.submit(ctx, func() (any, error) {
		if req.ApplyGlobally {
			profile := o.profile
			if req.DownloadBps != nil {
				profile.DownloadBps = *req.DownloadBps
			}
			if req.UploadBps != nil {
				profile.UploadBps = *req.UploadBps
			}
			if err := o.engine.ApplyProfile(ctx, profile); err != nil {
				return nil, err
			}
			o.profile = profile
			return nil, nil
		}
		h, ok := o.reg.Get(req.TorrentID)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		if req.DownloadBps != nil {
			if err := h.SetDownloadLimit(*req.DownloadBps); err != nil {
				return nil, err
			}
		}
		if req.UploadBps != nil {
			if err := h.SetUploadLimit(*req.UploadBps); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// UpdateSelection implements spec §4.4 update_selection(id, rules): it
// recompiles the selection engine and re-applies the resulting priority
// vector, emitting selection_reconciled if the applied vector diverges from
// what was previously installed.
func (o *Orchestrator) UpdateSelection(ctx context.Context, id domain.TorrentID, rules domain.SelectionRules) error {
	_, err := o.submit(ctx, func() (any, error) {
		h, ok := o.reg.Get(id)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		eng, err := selection.Compile(rules)
		if err != nil {
			return nil, domain.WrapCommandError(domain.KindValidation, "compile selection rules", err)
		}
		next := eng.Priorities(h.Files())
		prevEng, hadPrev := o.selections[id]
		diverged := !hadPrev
		if hadPrev {
			prev := prevEng.Priorities(h.Files())
			diverged = !priorityMapsEqual(prev, next)
		}
		if err := h.SetFilePriorities(next); err != nil {
			return nil, err
		}
		o.selections[id] = eng
		if record, ok := o.catalog.Get(id); ok {
			record.Selection = rules
			o.catalog.Upsert(record)
		}
		if diverged {
			o.publish(domain.Event{TorrentID: id, Kind: domain.EventSelectionReconciled, Payload: domain.SelectionReconciledPayload{Diverged: diverged}})
		}
		return nil, nil
	})
	return err
}

func priorityMapsEqual(a, b map[int]domain.Priority) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// UpdateOptionsRequest is spec §4.4 update_options's payload.
type UpdateOptionsRequest struct {
	MaxConns      *int
	PEX           *bool
	SuperSeed     *bool
	AutoManaged   *bool
	QueuePosition *int
}

// UpdateOptions implements spec §4.4 update_options(id, ...).
func (o *Orchestrator) UpdateOptions(ctx context.Context, id domain.TorrentID, req UpdateOptionsRequest) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error {
		return h.SetOptions(req.MaxConns, req.PEX, req.SuperSeed, req.AutoManaged, req.QueuePosition)
	})
}

// UpdateTrackers implements spec §4.4 update_trackers(id, {trackers, replace}).
func (o *Orchestrator) UpdateTrackers(ctx context.Context, id domain.TorrentID, trackers []string, replace bool) error {
	_, err := o.submit(ctx, func() (any, error) {
		h, ok := o.reg.Get(id)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		if err := h.SetTrackers(trackers, replace); err != nil {
			return nil, err
		}
		if record, ok := o.catalog.Get(id); ok {
			record.Trackers = mergeTrackers(nil, record.Trackers, trackers, replace)
			o.catalog.Upsert(record)
		}
		return nil, nil
	})
	return err
}

// UpdateWebSeeds implements spec §4.4 update_web_seeds(id, {seeds, replace}).
func (o *Orchestrator) UpdateWebSeeds(ctx context.Context, id domain.TorrentID, seeds []string, replace bool) error {
	return o.withHandle(ctx, id, func(h ports.Handle) error { return h.SetWebSeeds(seeds, replace) })
}

// LoadFastresume implements spec §4.4 load_fastresume(id, blob): the blob is
// staged for the next admission of id rather than applied immediately.
func (o *Orchestrator) LoadFastresume(ctx context.Context, id domain.TorrentID, blob []byte) error {
	_, err := o.submit(ctx, func() (any, error) {
		if len(blob) == 0 {
			return nil, domain.NewCommandError(domain.KindMalformedPayload, "empty resume blob")
		}
		o.pendingResume[id] = blob
		return nil, nil
	})
	return err
}

// ListPeers implements spec §4.4 list_peers(id).
func (o *Orchestrator) ListPeers(ctx context.Context, id domain.TorrentID) ([]ports.PeerInfo, error) {
	val, err := o.submit(ctx, func() (any, error) {
		h, ok := o.reg.Get(id)
		if !ok {
			return nil, domain.NewCommandError(domain.KindNotFound, "torrent not found")
		}
		return h.Peers()
	})
	if err != nil {
		return nil, err
	}
	return val.([]ports.PeerInfo), nil
}

// Subscribe implements spec §4.4 poll_events() / §4.7: the control plane
// subscribes to the event bus directly rather than polling through the
// command queue, since the bus already serializes delivery per subscriber.
func (o *Orchestrator) Subscribe(lastEventID uint64) ports.Subscription {
	return o.bus.Subscribe(lastEventID)
}

// StorageState is the spec §4.4 inspect_storage_state() result.
type StorageState struct {
	ResumeDir       string
	StorageMode     string
	UsePartfile     bool
	DiskCacheMB     int
	HashVerifyOnAdd bool
}

// InspectStorageState implements spec §4.4 inspect_storage_state().
func (o *Orchestrator) InspectStorageState(ctx context.Context) (StorageState, error) {
	val, err := o.submit(ctx, func() (any, error) {
		return StorageState{
			ResumeDir:       o.profile.ResumeDir,
			StorageMode:     o.profile.StorageMode,
			UsePartfile:     o.profile.UsePartfile,
			DiskCacheMB:     o.profile.DiskCacheMB,
			HashVerifyOnAdd: o.profile.HashVerifyOnAdd,
		}, nil
	})
	if err != nil {
		return StorageState{}, err
	}
	return val.(StorageState), nil
}

// PeerClassState is the spec §4.4 inspect_peer_class_state() result.
type PeerClassState struct {
	PeerClasses        []domain.PeerClass
	DefaultPeerClass   string
	MaxConnsGlobal     int
	MaxConnsPerTorrent int
	MaxUploadSlots     int
}

// InspectPeerClassState implements spec §4.4 inspect_peer_class_state().
func (o *Orchestrator) InspectPeerClassState(ctx context.Context) (PeerClassState, error) {
	val, err := o.submit(ctx, func() (any, error) {
		return PeerClassState{
			PeerClasses:        append([]domain.PeerClass{}, o.profile.PeerClasses...),
			DefaultPeerClass:   o.profile.DefaultPeerClass,
			MaxConnsGlobal:     o.profile.MaxConnsGlobal,
			MaxConnsPerTorrent: o.profile.MaxConnsPerTorrent,
			MaxUploadSlots:     o.profile.MaxUploadSlots,
		}, nil
	})
	if err != nil {
		return PeerClassState{}, err
	}
	return val.(PeerClassState), nil
}
