package domain

import "time"

// EventKind is a wire-stable event discriminator (spec §4.7, §6.2).
type EventKind string

const (
	EventTorrentAdded       EventKind = "torrent_added"
	EventFilesDiscovered    EventKind = "files_discovered"
	EventProgress           EventKind = "progress"
	EventStateChanged       EventKind = "state_changed"
	EventCompleted          EventKind = "completed"
	EventMetadataUpdated    EventKind = "metadata_updated"
	EventTorrentRemoved     EventKind = "torrent_removed"
	EventTrackerUpdate      EventKind = "tracker_update"
	EventSessionError       EventKind = "session_error"
	EventFsopsStarted       EventKind = "fsops_started"
	EventFsopsProgress      EventKind = "fsops_progress"
	EventFsopsCompleted     EventKind = "fsops_completed"
	EventFsopsFailed        EventKind = "fsops_failed"
	EventSettingsChanged    EventKind = "settings_changed"
	EventHealthChanged      EventKind = "health_changed"
	EventSelectionReconciled EventKind = "selection_reconciled"
	EventResumeData         EventKind = "resume_data"
	EventLaggedBehind       EventKind = "lagged_behind"
	EventError              EventKind = "error"
)

// Event is the envelope every domain event travels in (spec §6.2). EventID
// is assigned by the Event Bus (C7) and is monotonic across all torrents;
// per-TorrentID ordering is FIFO, cross-torrent ordering is best-effort.
type Event struct {
	EventID   uint64    `json:"eventId"`
	TorrentID TorrentID `json:"torrentId,omitempty"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload,omitempty"`
}

// --- kind-specific payloads (spec §6.2) ---

type ProgressPayload struct {
	BytesDownloaded int64   `json:"bytesDownloaded"`
	BytesTotal      int64   `json:"bytesTotal"`
	DownloadBps     int64   `json:"downloadBps"`
	UploadBps       int64   `json:"uploadBps"`
	Ratio           float64 `json:"ratio"`
}

type StateChangedPayload struct {
	State State `json:"state"`
}

type CompletedPayload struct {
	LibraryPath string `json:"libraryPath,omitempty"`
}

type FileDiscovered struct {
	Index     int    `json:"index"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

type FilesDiscoveredPayload struct {
	Files []FileDiscovered `json:"files"`
}

type MetadataUpdatedPayload struct {
	Name        string `json:"name"`
	DownloadDir string `json:"downloadDir"`
	Comment     string `json:"comment,omitempty"`
	Source      string `json:"source,omitempty"`
	PrivateFlag *bool  `json:"privateFlag,omitempty"`
}

type TrackerEntry struct {
	URL     string        `json:"url"`
	Status  TrackerStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

type TrackerUpdatePayload struct {
	Trackers []TrackerEntry `json:"trackers"`
}

type SessionErrorPayload struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// FsopsStage names a stage of the FsOps pipeline (spec §4.8).
type FsopsStage string

const (
	StageSelectionReconcile FsopsStage = "selection"
	StageExtract            FsopsStage = "extract"
	StageFlatten            FsopsStage = "flatten"
	StageMove               FsopsStage = "move"
	StagePar2               FsopsStage = "par2"
	StagePermissions        FsopsStage = "perms"
	StageCleanup            FsopsStage = "cleanup"
	StageMetadataWriteback  FsopsStage = "metadata"
)

type FsopsPayload struct {
	Step     FsopsStage `json:"step"`
	Detail   string     `json:"detail,omitempty"`
	Message  string     `json:"message,omitempty"`
	Degraded bool       `json:"degraded,omitempty"`
	Fallback string     `json:"fallback,omitempty"`
}

type SettingsChangedPayload struct {
	Revision uint64 `json:"revision"`
}

type HealthChangedPayload struct {
	Component string `json:"component"`
	Degraded  bool   `json:"degraded"`
	Reason    string `json:"reason,omitempty"`
}

type SelectionReconciledPayload struct {
	Diverged bool `json:"diverged"`
}

type ResumeDataPayload struct {
	Blob []byte `json:"blob"`
}
