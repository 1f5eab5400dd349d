// Package catalogue implements the Runtime Catalogue (C6): the last-known
// TorrentRecord snapshot for every admitted torrent, cursor-paginated and
// filterable (spec §4.6). Grounded on starsinc1708-TorrX's in-memory
// repository pattern (a mutex-guarded map with copy-on-read accessors)
// generalized from session-lookup to a filtered, paginated listing.
package catalogue

import (
	"encoding/base64"
	"sort"
	"strings"
	"sync"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

const defaultLimit = 50

type Catalogue struct {
	mu      sync.RWMutex
	records map[domain.TorrentID]domain.TorrentRecord
	order   []domain.TorrentID // insertion order; List pages over a copy sorted by ID
}

func New() *Catalogue {
	return &Catalogue{records: make(map[domain.TorrentID]domain.TorrentRecord)}
}

func (c *Catalogue) Upsert(record domain.TorrentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[record.ID]; !exists {
		c.order = append(c.order, record.ID)
	}
	c.records[record.ID] = record
}

func (c *Catalogue) Get(id domain.TorrentID) (domain.TorrentRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	return r, ok
}

func (c *Catalogue) Remove(id domain.TorrentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// List applies filters over the records in ascending TorrentID order and
// returns a page starting after the opaque cursor (the base64 of the last TorrentID
// returned). Every returned record is a value copy (spec §5 "copy-on-read").
func (c *Catalogue) List(query ports.ListQuery) (ports.ListPage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	startAfter := ""
	if query.Cursor != "" {
		decoded, err := base64.URLEncoding.DecodeString(query.Cursor)
		if err != nil {
			return ports.ListPage{}, domain.NewCommandError(domain.KindMalformedPayload, "invalid cursor")
		}
		startAfter = string(decoded)
	}

	ordered := make([]domain.TorrentID, len(c.order))
	copy(ordered, c.order)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var page []domain.TorrentRecord
	passedCursor := startAfter == ""
	var nextCursor string

	for _, id := range ordered {
		if !passedCursor {
			if string(id) == startAfter {
				passedCursor = true
			}
			continue
		}
		record, ok := c.records[id]
		if !ok || !matches(record, query) {
			continue
		}
		if len(page) == limit {
			nextCursor = base64.URLEncoding.EncodeToString([]byte(page[len(page)-1].ID))
			break
		}
		page = append(page, record)
	}

	return ports.ListPage{Records: page, NextCursor: nextCursor}, nil
}

func matches(r domain.TorrentRecord, q ports.ListQuery) bool {
	if q.State != nil && r.State != *q.State {
		return false
	}
	if q.Tracker != "" {
		found := false
		for _, t := range r.Trackers {
			if strings.Contains(strings.ToLower(t), strings.ToLower(q.Tracker)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.FileExtension != "" {
		ext := "." + strings.ToLower(strings.TrimPrefix(q.FileExtension, "."))
		if !strings.HasSuffix(strings.ToLower(r.Name), ext) {
			return false
		}
	}
	if len(q.Tags) > 0 {
		for _, want := range q.Tags {
			if !containsFold(r.Tags, want) {
				return false
			}
		}
	}
	if q.NameContains != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(q.NameContains)) {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
