// Package alertadapter implements the Alert Adapter (C1): it translates
// native session alerts and periodic status sweeps into the coalesced
// domain event stream (spec §4.1).
//
// Grounded on starsinc1708-TorrX's anacrolix Engine.GetSessionState (the
// high-water-mark diffing against a cached snapshot) and autobrr/qui's
// internal/usecase-equivalent sync loop (torrentstream's
// internal/usecase/sync_state.go), generalized from a DB-sync loop into a
// pure alert/event translator decoupled from persistence.
package alertadapter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/registry"
)

// progressRateLimit is the 10 Hz token bucket from spec §4.1/I5: progress
// and metadata_updated emission is capped at one event per 100ms per torrent.
const progressRateLimit = 100 * time.Millisecond

// Adapter owns no torrent state of its own beyond its rate limiters; the
// snapshot cache it diffs against lives in the Handle Registry (spec §9).
type Adapter struct {
	reg *registry.Registry

	mu       sync.Mutex
	limiters map[domain.TorrentID]*rate.Limiter
	now      func() time.Time
}

func New(reg *registry.Registry) *Adapter {
	return &Adapter{
		reg:      reg,
		limiters: make(map[domain.TorrentID]*rate.Limiter),
		now:      time.Now,
	}
}

func (a *Adapter) limiterFor(id domain.TorrentID) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(progressRateLimit), 1)
		a.limiters[id] = l
	}
	return l
}

func (a *Adapter) forgetLimiter(id domain.TorrentID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.limiters, id)
}

// TranslateAlert maps one native alert into zero or more domain events
// (spec §4.1 enumeration).
func (a *Adapter) TranslateAlert(alert ports.Alert) []domain.Event {
	now := a.now()
	switch alert.Kind {
	case ports.AlertTorrentError, ports.AlertFileError:
		if snap, ok := a.reg.Snapshot(alert.TorrentID); ok {
			snap.State = domain.Failed
		}
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventError,
			At:        now,
			Payload:   domain.ErrorPayload{Message: alert.Message},
		}}

	case ports.AlertTrackerError, ports.AlertTrackerWarning:
		status := domain.TrackerWarning
		if alert.Kind == ports.AlertTrackerError {
			status = domain.TrackerError
		}
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventTrackerUpdate,
			At:        now,
			Payload: domain.TrackerUpdatePayload{Trackers: []domain.TrackerEntry{
				{URL: alert.URL, Status: status, Message: alert.Message},
			}},
		}}

	case ports.AlertListenFailed, ports.AlertPortmapError, ports.AlertPeerError:
		component := componentFor(alert.Kind)
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventSessionError,
			At:        now,
			Payload:   domain.SessionErrorPayload{Component: component, Message: alert.Message},
		}}

	case ports.AlertStorageMoved:
		snap, ok := a.reg.Snapshot(alert.TorrentID)
		if ok {
			snap.LastDownloadDir = alert.NewPath
		}
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventMetadataUpdated,
			At:        now,
			Payload:   domain.MetadataUpdatedPayload{DownloadDir: alert.NewPath},
		}}

	case ports.AlertSaveResumeData:
		if snap, ok := a.reg.Snapshot(alert.TorrentID); ok {
			snap.ResumeRequested = false
		}
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventResumeData,
			At:        now,
			Payload:   domain.ResumeDataPayload{Blob: alert.Blob},
		}}

	case ports.AlertSaveResumeDataFailed:
		if snap, ok := a.reg.Snapshot(alert.TorrentID); ok {
			snap.ResumeRequested = false
		}
		return []domain.Event{{
			TorrentID: alert.TorrentID,
			Kind:      domain.EventError,
			At:        now,
			Payload:   domain.ErrorPayload{Message: alert.Message},
		}}
	}
	return nil
}

func componentFor(kind ports.AlertKind) string {
	switch kind {
	case ports.AlertListenFailed:
		return "network"
	case ports.AlertPortmapError:
		return "portmap"
	case ports.AlertPeerError:
		return "peer"
	default:
		return "storage"
	}
}

// Sweep performs the periodic per-handle status sweep (spec §4.1), diffing
// the handle's live NativeSnapshot against the cached TorrentSnapshot and
// emitting StateChanged / Progress / Completed / MetadataUpdated /
// FilesDiscovered events as they diverge.
func (a *Adapter) Sweep(id domain.TorrentID, h ports.Handle) []domain.Event {
	snap, ok := a.reg.Snapshot(id)
	if !ok {
		return nil
	}
	live := h.Snapshot()
	now := a.now()
	var events []domain.Event

	// FilesDiscovered fires exactly once, when metadata first becomes
	// available (spec §4.1).
	if live.MetadataReady && !snap.MetadataEmitted {
		snap.MetadataEmitted = true
		files := make([]domain.FileDiscovered, 0, len(live.Files))
		for _, f := range live.Files {
			files = append(files, domain.FileDiscovered{Index: f.Index, Path: f.Path, SizeBytes: f.Size})
		}
		events = append(events, domain.Event{
			TorrentID: id, Kind: domain.EventFilesDiscovered, At: now,
			Payload: domain.FilesDiscoveredPayload{Files: files},
		})
	}

	// MetadataUpdated: coalesced on (name, save_path) unchanged, rate-limited.
	if live.Name != snap.LastName || live.SavePath != snap.LastDownloadDir {
		if a.limiterFor(id).AllowN(now, 1) {
			snap.LastName = live.Name
			snap.LastDownloadDir = live.SavePath
			events = append(events, domain.Event{
				TorrentID: id, Kind: domain.EventMetadataUpdated, At: now,
				Payload: domain.MetadataUpdatedPayload{Name: live.Name, DownloadDir: live.SavePath},
			})
		}
	}

	newState := MapState(live.Status)
	if newState != snap.State && domain.CanTransition(snap.State, newState) {
		snap.State = newState
		events = append(events, domain.Event{
			TorrentID: id, Kind: domain.EventStateChanged, At: now,
			Payload: domain.StateChangedPayload{State: newState},
		})
	}

	// Progress: coalesced on (bytes_done, bytes_total) unchanged, capped at
	// 10 Hz (I5).
	if live.BytesDone != snap.BytesDone || live.BytesTotal != snap.BytesTotal {
		if a.limiterFor(id).AllowN(now, 1) {
			snap.BytesDone = live.BytesDone
			snap.BytesTotal = live.BytesTotal
			ratio := 0.0
			if live.BytesTotal > 0 {
				ratio = float64(live.BytesDone) / float64(live.BytesTotal)
			}
			events = append(events, domain.Event{
				TorrentID: id, Kind: domain.EventProgress, At: now,
				Payload: domain.ProgressPayload{
					BytesDownloaded: live.BytesDone,
					BytesTotal:      live.BytesTotal,
					DownloadBps:     live.DownloadBps,
					UploadBps:       live.UploadBps,
					Ratio:           ratio,
				},
			})
		}
	}

	// Completed fires exactly once per logical completion (I6); reset by recheck.
	isComplete := live.BytesTotal > 0 && live.BytesDone >= live.BytesTotal
	if isComplete && !snap.CompletedEmitted {
		snap.CompletedEmitted = true
		events = append(events, domain.Event{
			TorrentID: id, Kind: domain.EventCompleted, At: now,
			Payload: domain.CompletedPayload{},
		})
	}

	// Resume requests are guarded by resume_requested to avoid duplicates.
	if live.NeedsResume && !snap.ResumeRequested {
		snap.ResumeRequested = true
		_ = h.RequestSaveResumeData()
	}

	return events
}

// ResetCompletion clears the completed_emitted guard, invoked by the
// orchestrator's recheck command (spec I6).
func (a *Adapter) ResetCompletion(id domain.TorrentID) {
	if snap, ok := a.reg.Snapshot(id); ok {
		snap.CompletedEmitted = false
	}
}

// Forget releases all adapter-owned state for a removed torrent.
func (a *Adapter) Forget(id domain.TorrentID) {
	a.forgetLimiter(id)
}
