// Package ports declares the narrow interfaces the orchestrator depends on.
// A second implementation (a test stub) is explicitly anticipated by spec
// §9 design notes for the property tests in spec §8.
package ports

import (
	"context"
	"time"

	"revaer/internal/domain"
)

// AddTorrentRequest is the native-engine-facing admission request, already
// validated and pre-processed by the orchestrator (metainfo overrides,
// tracker merge/auth, flags applied per spec §4.4).
type AddTorrentRequest struct {
	Source       domain.TorrentSource
	SavePath     string
	Trackers     []string
	Flags        domain.Flags
	QueuePosition *int
}

// Handle is the native-session-facing resource the Engine returns for an
// admitted torrent. It is privately held by the Handle Registry (C2); no
// other component may alias it (spec §9 "forbid aliasing of native handles
// outside the registry").
type Handle interface {
	ID() domain.TorrentID
	InfoHash() domain.InfoHash
	Files() []domain.FileEntry
	MetadataReady() bool

	Pause() error
	Resume() error
	SetSequential(bool) error
	Reannounce() error
	Recheck() error
	SetPiecePriority(pieceIndex int, deadlineMS *int) error
	MoveStorage(newDir string) error
	SetFilePriorities(priorities map[int]domain.Priority) error
	SetTrackers(trackers []string, replace bool) error
	SetWebSeeds(seeds []string, replace bool) error
	SetOptions(maxConns *int, pex, superSeed, autoManaged *bool, queuePosition *int) error
	SetDownloadLimit(bps int64) error
	SetUploadLimit(bps int64) error
	RequestSaveResumeData() error
	Peers() ([]PeerInfo, error)

	// Snapshot returns the current native-session view used by the Alert
	// Adapter (C1) to diff against the cached TorrentSnapshot.
	Snapshot() NativeSnapshot

	Drop() error
}

// PeerInfo is a minimal peer descriptor returned by list_peers.
type PeerInfo struct {
	Addr        string
	Client      string
	DownloadBps int64
	UploadBps   int64
	Progress    float64
}

// NativeStatus is the raw native-session status string, mapped to
// domain.State by the Alert Adapter's authoritative state table (spec §4.1).
type NativeStatus string

const (
	NativeCheckingResumeData NativeStatus = "checking_resume_data"
	NativeCheckingFiles      NativeStatus = "checking_files"
	NativeDownloadingMetadata NativeStatus = "downloading_metadata"
	NativeDownloading       NativeStatus = "downloading"
	NativeFinished          NativeStatus = "finished"
	NativeSeeding           NativeStatus = "seeding"
	NativeStopped           NativeStatus = "stopped"
)

// NativeSnapshot is the subset of native-session state the Alert Adapter
// diffs against the cached TorrentSnapshot to derive domain events.
type NativeSnapshot struct {
	Status        NativeStatus
	Name          string
	SavePath      string
	BytesDone     int64
	BytesTotal    int64
	DownloadBps   int64
	UploadBps     int64
	Peers         int
	InfoHash      domain.InfoHash
	Files         []domain.FileEntry
	NeedsResume   bool // session reports resume data should be saved
	MetadataReady bool
}

// Engine is the narrow-value-typed interface to the native BitTorrent
// session (spec §9 "Native session ownership"). All commands are
// synchronous and fail-fast with domain.CommandError (spec §4.4).
type Engine interface {
	AddTorrent(ctx context.Context, req AddTorrentRequest) (Handle, error)
	Handle(id domain.TorrentID) (Handle, bool)
	Remove(id domain.TorrentID, withData bool) error

	ApplyProfile(ctx context.Context, profile domain.EngineProfile) error

	// PollAlerts drains the native alert queue (or equivalent polling
	// surface) and returns zero or more raw alerts for the Alert Adapter
	// to translate. Called on every tick of the orchestrator loop (spec §5).
	PollAlerts(ctx context.Context) ([]Alert, error)

	TotalPieces(id domain.TorrentID) (int, error)
	PieceHash(id domain.TorrentID, piece int) ([20]byte, error)
	ReadPieceData(id domain.TorrentID, piece int) ([]byte, error)

	Close() error
}

// Alert is a native-session event, loosely typed the way spec §4.1
// enumerates alert families. NativeEngine implementations translate their
// library-specific alert type into this shape before returning from
// PollAlerts.
type Alert struct {
	Kind      AlertKind
	TorrentID domain.TorrentID
	Message   string
	URL       string // tracker_error/tracker_warning
	NewPath   string // storage_moved
	Blob      []byte // save_resume_data
	Component string // session-level errors (network, portmap, storage, peer, ssl, tracker)
}

type AlertKind string

const (
	AlertTorrentError        AlertKind = "torrent_error"
	AlertFileError           AlertKind = "file_error"
	AlertTrackerError        AlertKind = "tracker_error"
	AlertTrackerWarning      AlertKind = "tracker_warning"
	AlertListenFailed        AlertKind = "listen_failed"
	AlertPortmapError        AlertKind = "portmap_error"
	AlertPeerError           AlertKind = "peer_error"
	AlertStorageMoved        AlertKind = "storage_moved"
	AlertSaveResumeData      AlertKind = "save_resume_data"
	AlertSaveResumeDataFailed AlertKind = "save_resume_data_failed"
)

// PollTick is the default alert/status-sweep cadence (spec §4.1, §5).
const PollTick = 100 * time.Millisecond
