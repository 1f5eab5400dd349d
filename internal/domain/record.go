package domain

import "time"

// Limits holds per-torrent rate caps (spec §3). A nil pointer means
// "inherit the global EngineProfile default".
type Limits struct {
	DownloadBps *int64
	UploadBps   *int64
}

// Flags are the per-torrent boolean toggles from spec §3.
type Flags struct {
	Sequential   bool
	AutoManaged  bool
	Paused       bool
	SeedMode     bool
	SuperSeeding bool
	PEX          bool
}

// Metadata holds the metainfo overrides applied at admission (spec §4.4).
type Metadata struct {
	Comment     string
	Source      string
	PrivateFlag bool
}

// TorrentRecord is the authoritative per-torrent record (spec §3).
type TorrentRecord struct {
	ID         TorrentID
	Source     TorrentSource
	InfoHash   InfoHash
	Name       string
	SavePath   string
	State      State
	Selection  SelectionRules
	Limits     Limits
	Flags      Flags
	Trackers   []string // ordered, deduplicated, insertion order preserved
	ResumeBlob []byte
	Metadata   Metadata
	Tags       []string
	Category   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileRef describes one file within a torrent's content layout, including
// live progress (spec §6.2 files_discovered / progress payload fields).
type FileRef struct {
	Index          int
	Path           string
	SizeBytes      int64
	BytesCompleted int64
	Priority       Priority
}

// TrackerStatus is the per-tracker status carried by tracker_update events.
type TrackerStatus string

const (
	TrackerOK      TrackerStatus = "ok"
	TrackerWarning TrackerStatus = "warning"
	TrackerError   TrackerStatus = "error"
)
