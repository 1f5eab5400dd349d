package fsops

import (
	"context"
	"os"
	"path/filepath"
)

// flatten collapses a single top-level directory one level, if fs_policy
// requests it and the staging tree is shaped that way (spec §4.8 stage 3).
func flatten(_ context.Context, req Request, dir string) stageResult {
	if !req.Policy.Flatten {
		return stageResult{detail: "flatten disabled"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stageResult{err: err}
	}

	visible := entries[:0:0]
	for _, e := range entries {
		if e.Name() == markerFileName {
			continue
		}
		visible = append(visible, e)
	}
	if len(visible) != 1 || !visible[0].IsDir() {
		return stageResult{detail: "no single top-level directory"}
	}

	sub := filepath.Join(dir, visible[0].Name())
	subEntries, err := os.ReadDir(sub)
	if err != nil {
		return stageResult{degraded: true, detail: err.Error()}
	}
	for _, e := range subEntries {
		if err := os.Rename(filepath.Join(sub, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			return stageResult{degraded: true, detail: err.Error(), fallback: "left nested under " + visible[0].Name()}
		}
	}
	if err := os.Remove(sub); err != nil {
		return stageResult{degraded: true, detail: err.Error()}
	}
	return stageResult{detail: "flattened " + visible[0].Name()}
}
