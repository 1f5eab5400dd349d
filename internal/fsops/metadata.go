package fsops

import (
	"context"
	"time"
)

// writebackMetadata records the completion time and library path in
// .revaer.meta in the library target (spec §4.8 stage 7). The marker holds
// one record, so these fields are overwritten rather than appended, and
// SourceHashes is left unset. The pipeline's stage loop then marks the stage
// done and saves the marker again, keeping these fields.
func writebackMetadata(_ context.Context, req Request, dir string) stageResult {
	rec, err := loadMeta(dir, req.TorrentID)
	if err != nil {
		return stageResult{err: err}
	}
	rec.CompletionTime = time.Now()
	rec.LibraryPath = dir
	if err := saveMeta(dir, rec); err != nil {
		return stageResult{err: err}
	}
	return stageResult{detail: "metadata written to " + markerFileName}
}
