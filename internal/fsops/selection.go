package fsops

import (
	"context"
	"os"
	"path/filepath"

	"revaer/internal/domain"
)

// reconcileSelection removes files carrying domain.PrioritySkip from the
// staging tree (spec §4.8 stage 1). Missing files are not an error: the
// engine may never have allocated them.
func reconcileSelection(_ context.Context, req Request, dir string) stageResult {
	for _, f := range req.Files {
		if req.Priorities[f.Index] != domain.PrioritySkip {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return stageResult{degraded: true, detail: err.Error(), fallback: "left in place"}
		}
	}
	return stageResult{detail: "unselected files removed"}
}
