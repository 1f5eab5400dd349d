// Package fsops implements the FsOps Pipeline (C8): the eight-stage,
// restart-safe post-processing pipeline that runs once a torrent reaches
// Completed (spec §4.8).
//
// Grounded on autobrr-qui's internal/services/filesmanager (stage-shaped,
// idempotent service methods over cached state) and its pkg/fsutil +
// pkg/hardlink packages (same-device detection and a comparable (dev, ino)
// FileID used to decide between a real hardlink and an EXDEV copy
// fallback), generalized here from a qBittorrent file-cache sync into a
// disk-mutating pipeline with its own restart marker file.
package fsops

import (
	"context"

	"github.com/rs/zerolog/log"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// Request is one torrent's post-processing job (spec §4.8). Policy is a
// frozen snapshot captured at submission time, per spec §5 "FsOps holds no
// shared state apart from the fs_policy snapshot it captured at stage 1".
type Request struct {
	TorrentID  domain.TorrentID
	Name       string
	StagingDir string // where the engine wrote the torrent's files
	Files      []domain.FileEntry
	Priorities map[int]domain.Priority
	Policy     domain.FsPolicy
}

// Par2Runner is the narrow interface to an external PAR2 collaborator
// (spec §4.8, Open Question a). A missing binary degrades health without
// failing completion.
type Par2Runner interface {
	Verify(ctx context.Context, dir string) (ok bool, err error)
	Repair(ctx context.Context, dir string) (repaired bool, err error)
	Available() bool
}

type stage struct {
	name domain.FsopsStage
	run  func(ctx context.Context, req Request, dir string) stageResult
}

// stageResult is a stage's outcome. A non-nil err is a precondition failure
// that aborts the remaining pipeline (spec §4.8 "does not abort ... unless
// it is a precondition failure"); Degraded is a non-fatal failure that is
// reported but does not stop later stages. WarnOnly marks a degraded result
// whose work still completed via a fallback path (e.g. move stage §4.8/S5:
// hardlink unavailable cross-device, copied instead) — it is reported as a
// progress event carrying the fallback detail rather than a failed one,
// while still raising health_changed since the fallback is worth noting.
type stageResult struct {
	degraded bool
	warnOnly bool
	detail   string
	fallback string
	newDir   string // set when the stage relocates the working directory
	err      error
}

// Pipeline runs the eight FsOps stages in a bounded worker pool with
// per-torrent serialization (spec §4.8, §5).
type Pipeline struct {
	bus    ports.EventBus
	par2   Par2Runner
	pool   *workerPool
	stages []stage
}

// New builds a Pipeline with the given worker pool size; a size of zero or
// less selects 4 workers (spec §4.8).
func New(bus ports.EventBus, par2 Par2Runner, workers int) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	if par2 == nil {
		par2 = noopPar2Runner{}
	}
	p := &Pipeline{bus: bus, par2: par2, pool: newWorkerPool(workers)}
	p.stages = []stage{
		{domain.StageSelectionReconcile, reconcileSelection},
		{domain.StageExtract, p.extract},
		{domain.StageFlatten, flatten},
		{domain.StageMove, move},
		{domain.StagePar2, p.par2Stage},
		{domain.StagePermissions, applyPermissions},
		{domain.StageCleanup, cleanup},
		{domain.StageMetadataWriteback, writebackMetadata},
	}
	return p
}

// Submit enqueues req on the worker pool. It returns immediately; progress
// is observable via the event bus.
func (p *Pipeline) Submit(ctx context.Context, req Request) {
	p.pool.run(req.TorrentID, func() {
		p.runPipeline(ctx, req)
	})
}

// Wait blocks until every submitted job has finished running, used by
// shutdown to drain in-flight pipelines to their current stage boundary
// (spec §5 "drains in-flight fsops to a safe point").
func (p *Pipeline) Wait() { p.pool.wait() }

func (p *Pipeline) runPipeline(ctx context.Context, req Request) {
	dir := req.StagingDir
	rec, err := loadMeta(dir, req.TorrentID)
	if err != nil {
		log.Warn().Err(err).Str("torrentId", string(req.TorrentID)).Msg("fsops: reading marker failed, starting fresh")
		rec = newMetaRecord(req.TorrentID)
	}

	for _, st := range p.stages {
		select {
		case <-ctx.Done():
			return // shutdown: stop at a stage boundary
		default:
		}

		if rec.hasStage(st.name) {
			continue
		}

		p.publish(domain.Event{TorrentID: req.TorrentID, Kind: domain.EventFsopsStarted, Payload: domain.FsopsPayload{Step: st.name}})

		result := st.run(ctx, req, dir)
		if result.err != nil {
			p.publish(domain.Event{
				TorrentID: req.TorrentID,
				Kind:      domain.EventFsopsFailed,
				Payload:   domain.FsopsPayload{Step: st.name, Message: result.err.Error()},
			})
			return
		}

		if result.newDir != "" {
			dir = result.newDir
		}

		if result.degraded && result.warnOnly {
			p.publish(domain.Event{
				TorrentID: req.TorrentID,
				Kind:      domain.EventFsopsProgress,
				Payload:   domain.FsopsPayload{Step: st.name, Detail: result.detail, Fallback: result.fallback},
			})
			p.publish(domain.Event{Kind: domain.EventHealthChanged, Payload: domain.HealthChangedPayload{Component: "fsops", Degraded: true, Reason: result.detail}})
		} else if result.degraded {
			p.publish(domain.Event{
				TorrentID: req.TorrentID,
				Kind:      domain.EventFsopsFailed,
				Payload:   domain.FsopsPayload{Step: st.name, Message: result.detail, Degraded: true, Fallback: result.fallback},
			})
			p.publish(domain.Event{Kind: domain.EventHealthChanged, Payload: domain.HealthChangedPayload{Component: "fsops", Degraded: true, Reason: result.detail}})
		} else {
			p.publish(domain.Event{
				TorrentID: req.TorrentID,
				Kind:      domain.EventFsopsProgress,
				Payload:   domain.FsopsPayload{Step: st.name, Detail: result.detail},
			})
		}

		if st.name == domain.StageMetadataWriteback {
			// writebackMetadata stores the completion fields in the marker
			// itself; carry them over so the save below keeps them.
			if onDisk, err := loadMeta(dir, req.TorrentID); err == nil {
				rec.CompletionTime = onDisk.CompletionTime
				rec.LibraryPath = onDisk.LibraryPath
			}
		}
		rec.markStage(st.name)
		if err := saveMeta(dir, rec); err != nil {
			log.Warn().Err(err).Str("torrentId", string(req.TorrentID)).Msg("fsops: writing marker failed")
		}
	}

	p.publish(domain.Event{
		TorrentID: req.TorrentID,
		Kind:      domain.EventFsopsCompleted,
		Payload:   domain.FsopsPayload{Step: domain.StageMetadataWriteback, Detail: dir},
	})
}

func (p *Pipeline) publish(evt domain.Event) {
	if p.bus != nil {
		p.bus.Publish(evt)
	}
}
