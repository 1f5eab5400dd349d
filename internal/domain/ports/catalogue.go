package ports

import "revaer/internal/domain"

// ListQuery is the cursor-paginated, filterable listing request honored by
// the Runtime Catalogue (spec §4.6).
type ListQuery struct {
	Cursor        string
	Limit         int
	State         *domain.State
	Tracker       string
	FileExtension string
	Tags          []string
	NameContains  string // case-insensitive substring
}

type ListPage struct {
	Records    []domain.TorrentRecord
	NextCursor string // empty when exhausted
}

// Catalogue holds the last-known TorrentRecord snapshot for every admitted
// torrent (spec §4.6). Mutated only by the Alert Adapter and the
// orchestrator; listing uses copy-on-read snapshots (spec §5).
type Catalogue interface {
	Upsert(record domain.TorrentRecord)
	Get(id domain.TorrentID) (domain.TorrentRecord, bool)
	Remove(id domain.TorrentID)
	List(query ListQuery) (ListPage, error)
}
