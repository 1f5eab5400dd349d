// Package resume implements the Resume Store (C5): atomic, file-backed
// persistence of opaque per-torrent resume blobs (spec §4.5). Grounded on
// starsinc1708-TorrX's preference for filesystem-backed state in its
// internal/usecase/session_restore.go collaborators, generalized from a
// single-blob-per-process model to one file per TorrentID.
package resume

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"revaer/internal/domain"
)

const resumeFileExt = ".resume"

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id domain.TorrentID) string {
	return filepath.Join(s.dir, string(id)+resumeFileExt)
}

// Save writes blob atomically: create-temp in the same directory, fsync,
// then rename over the target path. This guarantees a reader never observes
// a partially-written resume blob, even across a crash mid-write.
func (s *Store) Save(id domain.TorrentID, blob []byte) error {
	target := s.path(id)
	tmp, err := os.CreateTemp(s.dir, "."+string(id)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(blob); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	tmp = nil

	if err := os.Rename(tmpName, target); err != nil {
		return err
	}

	dir, err := os.Open(s.dir)
	if err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}

func (s *Store) Load(id domain.TorrentID) ([]byte, error) {
	return os.ReadFile(s.path(id))
}

func (s *Store) Delete(id domain.TorrentID) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List enumerates every persisted resume blob, used by Reconciliation (C9)
// on startup. Files without the .resume extension are ignored, and a blob
// that cannot be read is skipped with a warning rather than failing the
// whole scan.
func (s *Store) List() (map[domain.TorrentID][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TorrentID][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), resumeFileExt) {
			continue
		}
		id := domain.TorrentID(strings.TrimSuffix(e.Name(), resumeFileExt))
		blob, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.Warn().Err(err).Str("torrentId", string(id)).Msg("resume: skipping unreadable blob")
			continue
		}
		out[id] = blob
	}
	return out, nil
}
