package fsops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// cleanup removes files matching fs_policy.cleanup_drop unless they also
// match cleanup_keep, then deletes resulting empty directories bottom-up
// (spec §4.8 stage 6).
func cleanup(_ context.Context, req Request, dir string) stageResult {
	keep, err := compileGlobs(req.Policy.CleanupKeep)
	if err != nil {
		return stageResult{err: err}
	}
	drop, err := compileGlobs(req.Policy.CleanupDrop)
	if err != nil {
		return stageResult{err: err}
	}

	removed := 0
	if len(drop) > 0 {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() == markerFileName {
				return nil
			}
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}
			rel = strings.ToLower(filepath.ToSlash(rel))
			if !matchesAny(drop, rel) || matchesAny(keep, rel) {
				return nil
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			removed++
			return nil
		})
		if err != nil {
			return stageResult{degraded: true, detail: err.Error()}
		}
	}

	if err := removeEmptyDirs(dir); err != nil {
		return stageResult{degraded: true, detail: err.Error(), fallback: "empty directories left in place"}
	}

	return stageResult{detail: "cleanup complete"}
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p), '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// removeEmptyDirs deletes directories under root that contain nothing but
// other now-empty directories, bottom-up, leaving root itself in place.
func removeEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			_ = os.Remove(dirs[i])
		}
	}
	return nil
}
