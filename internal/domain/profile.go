package domain

// PeerClass is a named policy group applied to peers by socket type,
// controlling unchoke slots and priority (spec Glossary).
type PeerClass struct {
	Name           string
	UploadSlots    int
	DownloadSlots  int
	ConnectionType string // e.g. "tcp", "utp", "lan"
}

// TrackerAuth carries optional HTTP basic-auth credentials applied to
// http(s) trackers at apply time (spec §4.4 tracker basic-auth).
type TrackerAuth struct {
	User string
	Pass string
}

// EngineProfile is an immutable configuration snapshot consumed (not owned)
// by the Session Orchestrator (spec §3 EngineProfile, §4.4 apply_engine_profile).
// Application is diff-based and must be idempotent (spec property 5).
type EngineProfile struct {
	Revision uint64

	// Network toggles.
	DHT         bool
	LSD         bool
	UPnP        bool
	NATPMP      bool
	UTP         bool
	Encryption  EncryptionPolicy
	Anonymous   bool
	ProxyURL    string
	PortRangeLo int
	PortRangeHi int
	ListenAddrs []string
	IPFilter    []string // CIDR rules

	// Rate and slot limits (global defaults; per-torrent limits override).
	DownloadBps       int64
	UploadBps         int64
	MaxConnsGlobal    int
	MaxConnsPerTorrent int
	MaxUploadSlots    int

	// Choking algorithms.
	ChokingAlgorithm     string
	SeedChokingAlgorithm string

	// Storage directives.
	StorageMode     string // e.g. "sparse", "allocate"
	UsePartfile     bool
	DiskCacheMB     int
	HashVerifyOnAdd bool

	// Tracker defaults.
	DefaultTrackers []string
	ExtraTrackers   []string
	ReplaceTrackers bool
	TrackerAuth     *TrackerAuth
	TrackerCookie   string

	// DHT bootstrap/router nodes, deduplicated case-insensitively by host:port.
	DHTBootstrapNodes []string
	DHTRouterNodes    []string

	PeerClasses       []PeerClass
	DefaultPeerClass  string
	AutoManaged       bool
	PEX               bool
	SuperSeeding      bool
	MaxConnsPerTorrentOverride int

	ResumeDir string // created if missing on apply

	StatsIntervalMS int // poll cadence, default 100ms (spec §5)
}

// EncryptionPolicy mirrors common BitTorrent client encryption modes.
type EncryptionPolicy string

const (
	EncryptionDisabled EncryptionPolicy = "disabled"
	EncryptionEnabled  EncryptionPolicy = "enabled"
	EncryptionForced   EncryptionPolicy = "forced"
)

// Fingerprint returns a value equal for two profiles that would produce an
// identical settings application (used to test idempotency, spec property 5).
// It intentionally excludes Revision, which is a bookkeeping field only.
func (p EngineProfile) Fingerprint() EngineProfile {
	clone := p
	clone.Revision = 0
	return clone
}
