// Package registry implements the Handle Registry (C2): the sole
// (TorrentId <-> NativeHandle) map plus the per-torrent snapshot cache used
// by the Alert Adapter to diff event emission (spec §4.2).
//
// Grounded on starsinc1708-TorrX's anacrolix Engine, which keeps an
// equivalent sessions/modes/lastAccess map family under a single mutex; we
// generalize that pattern into a standalone registry so the orchestrator,
// not the native-engine adapter, owns it (spec §9: "TorrentId is the sole
// cross-component reference").
package registry

import (
	"sync"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// TorrentSnapshot is the sole source of truth for event diffing (spec §4.2).
type TorrentSnapshot struct {
	State            domain.State
	BytesDone        int64
	BytesTotal       int64
	LastName         string
	LastDownloadDir  string
	MetadataEmitted  bool
	CompletedEmitted bool
	ResumeRequested  bool
}

// Registry is the only component permitted to hold live handle references
// (spec §9). All other components identify torrents by domain.TorrentID.
type Registry struct {
	mu        sync.RWMutex
	handles   map[domain.TorrentID]ports.Handle
	snapshots map[domain.TorrentID]*TorrentSnapshot
	byInfoHash map[domain.InfoHash]domain.TorrentID
}

func New() *Registry {
	return &Registry{
		handles:    make(map[domain.TorrentID]ports.Handle),
		snapshots:  make(map[domain.TorrentID]*TorrentSnapshot),
		byInfoHash: make(map[domain.InfoHash]domain.TorrentID),
	}
}

// Put installs a handle, enforcing I1 (exactly one handle per TorrentID).
func (r *Registry) Put(id domain.TorrentID, h ports.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = h
	if _, ok := r.snapshots[id]; !ok {
		r.snapshots[id] = &TorrentSnapshot{State: domain.Queued}
	}
	if ih := h.InfoHash(); ih != "" {
		r.byInfoHash[ih] = id
	}
}

func (r *Registry) Get(id domain.TorrentID) (ports.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) ResolveByInfoHash(ih domain.InfoHash) (domain.TorrentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byInfoHash[ih]
	return id, ok
}

// Snapshot returns the live snapshot pointer for in-place diffing by the
// Alert Adapter. Callers must not retain it past the current poll tick
// without copying: the Alert Adapter is the single writer.
func (r *Registry) Snapshot(id domain.TorrentID) (*TorrentSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[id]
	return s, ok
}

// Remove drops the handle and snapshot for id (enforced by the orchestrator
// on the `remove` command).
func (r *Registry) Remove(id domain.TorrentID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[id]; ok {
		if ih := h.InfoHash(); ih != "" {
			delete(r.byInfoHash, ih)
		}
	}
	delete(r.handles, id)
	delete(r.snapshots, id)
}

// IDs returns every currently registered TorrentID.
func (r *Registry) IDs() []domain.TorrentID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.TorrentID, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	return ids
}
