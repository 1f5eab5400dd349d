package fsops

import (
	"path/filepath"
	"strings"
)

// pathAllowed mirrors the orchestrator's allow-path check (spec §8
// invariant 1): a destination must be, or fall under, a canonical
// absolute prefix in allowPaths. Duplicated rather than imported from
// internal/orchestrator to keep FsOps decoupled from the orchestrator
// package (spec §5: FsOps "never holds orchestrator state").
func pathAllowed(path string, allowPaths []string) bool {
	if len(allowPaths) == 0 {
		return true
	}
	clean := filepath.Clean(path)
	for _, prefix := range allowPaths {
		p := filepath.Clean(prefix)
		if clean == p || strings.HasPrefix(clean, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
