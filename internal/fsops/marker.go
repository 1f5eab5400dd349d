package fsops

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"revaer/internal/domain"
)

const markerVersion = 1
const markerFileName = ".revaer.meta"

// metaRecord is the versioned, structured record persisted to
// <dir>/.revaer.meta that makes every stage restart-safe (spec §4.8): each
// stage checks StagesDone before running.
type metaRecord struct {
	Version        int               `json:"version"`
	TorrentID      domain.TorrentID  `json:"torrentId"`
	CompletionTime time.Time         `json:"completionTime,omitempty"`
	SourceHashes   map[string]string `json:"sourceHashes,omitempty"`
	LibraryPath    string            `json:"libraryPath,omitempty"`
	StagesDone     []string          `json:"stagesDone"`
}

func newMetaRecord(id domain.TorrentID) metaRecord {
	return metaRecord{Version: markerVersion, TorrentID: id, StagesDone: []string{}}
}

func (r metaRecord) hasStage(stage domain.FsopsStage) bool {
	for _, s := range r.StagesDone {
		if s == string(stage) {
			return true
		}
	}
	return false
}

func (r *metaRecord) markStage(stage domain.FsopsStage) {
	if r.hasStage(stage) {
		return
	}
	r.StagesDone = append(r.StagesDone, string(stage))
}

func markerPath(dir string) string { return filepath.Join(dir, markerFileName) }

// loadMeta reads the marker at dir, returning a fresh zero-stage record if
// none exists yet.
func loadMeta(dir string, id domain.TorrentID) (metaRecord, error) {
	data, err := os.ReadFile(markerPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return newMetaRecord(id), nil
	}
	if err != nil {
		return metaRecord{}, err
	}
	var rec metaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return metaRecord{}, err
	}
	return rec, nil
}

// saveMeta writes rec atomically: create-temp in the same directory, then
// rename over the marker (spec §6.4 persistence contract applied to the
// pipeline's own restart state).
func saveMeta(dir string, rec metaRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".revaer.meta.*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, markerPath(dir))
}
