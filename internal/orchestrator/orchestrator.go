// Package orchestrator implements the Session Orchestrator (C4): the
// single-writer owner of the handle registry, snapshot cache, selection map
// and pending-resume map (spec §5 "shared state ... private to the
// orchestrator"). Grounded on starsinc1708-TorrX's anacrolix Engine (whose
// exported methods already serialize access to its session/mode maps
// through a goroutine-confined lock discipline) and TorrX's internal/usecase
// package (command-shaped use cases returning typed errors), generalized
// here into a single actor goroutine fed by a command channel instead of a
// shared mutex, so commands for a given TorrentId are trivially FIFO
// (spec §5 "Ordering").
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"revaer/internal/alertadapter"
	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/fsops"
	"revaer/internal/registry"
	"revaer/internal/selection"
)

// FsOpsSubmitter is the narrow slice of fsops.Pipeline the orchestrator needs
// to kick off post-processing on completion; any type with this Submit
// method, such as a test double, can stand in for *fsops.Pipeline.
type FsOpsSubmitter interface {
	Submit(ctx context.Context, req fsops.Request)
}

type job struct {
	fn   func() (any, error)
	resp chan jobResult
}

type jobResult struct {
	val any
	err error
}

// Orchestrator drives the native engine from a single loop goroutine
// (started by Run), polling alerts and sweeping handle status at a fixed
// cadence and interleaving synchronous command execution between ticks.
type Orchestrator struct {
	engine  ports.Engine
	reg     *registry.Registry
	alerts  *alertadapter.Adapter
	resume  ports.ResumeStore
	catalog ports.Catalogue
	bus     ports.EventBus
	fsops   FsOpsSubmitter

	cmdCh chan job
	done  chan struct{}
	ctx   context.Context
	cancel context.CancelFunc

	tick time.Duration

	// The following fields are touched only from the loop goroutine
	// (inside job closures), so they need no lock of their own.
	profile       domain.EngineProfile
	fsPolicy      domain.FsPolicy
	selections    map[domain.TorrentID]*selection.Engine
	pendingResume map[domain.TorrentID][]byte
}

// New wires the orchestrator's collaborators. engine/resume/catalog/bus are
// narrow ports so the same orchestrator logic runs against the native
// anacrolix-backed engine or a test double (spec §9 design notes).
func New(engine ports.Engine, reg *registry.Registry, alerts *alertadapter.Adapter, resume ports.ResumeStore, catalog ports.Catalogue, bus ports.EventBus) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		engine:        engine,
		reg:           reg,
		alerts:        alerts,
		resume:        resume,
		catalog:       catalog,
		bus:           bus,
		cmdCh:         make(chan job),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		tick:          ports.PollTick,
		selections:    make(map[domain.TorrentID]*selection.Engine),
		pendingResume: make(map[domain.TorrentID][]byte),
	}
}

// SetFsOps wires the FsOps Pipeline (C8) that Completed transitions submit
// to. It is optional; an orchestrator with no pipeline set simply never
// triggers post-processing, so orchestrator_test.go's stub harness runs
// without one.
func (o *Orchestrator) SetFsOps(p FsOpsSubmitter) {
	o.fsops = p
}

// Run is the orchestrator's event-loop thread (spec §5 "dedicated
// event-loop thread"). It must be started exactly once, typically in its own
// goroutine; it returns when Shutdown cancels the orchestrator's context.
func (o *Orchestrator) Run() {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()
	for {
		select {
		case <-o.ctx.Done():
			close(o.done)
			return
		case j := <-o.cmdCh:
			val, err := j.fn()
			j.resp <- jobResult{val: val, err: err}
		case <-ticker.C:
			o.pump()
		}
	}
}

// submit hands fn to the loop goroutine and blocks for its result, giving
// every exported command synchronous, serialized semantics (spec §4.4
// "synchronous, fail-fast").
func (o *Orchestrator) submit(ctx context.Context, fn func() (any, error)) (any, error) {
	j := job{fn: fn, resp: make(chan jobResult, 1)}
	select {
	case o.cmdCh <- j:
	case <-o.done:
		return nil, domain.NewCommandError(domain.KindInternal, "orchestrator is shut down")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-j.resp:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pump polls native alerts, translates them to domain events, sweeps every
// registered handle's status, and publishes the resulting events (spec §4.1,
// §5 "polls alerts at a fixed cadence"). It always runs on the loop
// goroutine, so it never competes with a command handler for state.
func (o *Orchestrator) pump() {
	alerts, err := o.engine.PollAlerts(o.ctx)
	if err != nil {
		log.Warn().Err(err).Msg("orchestrator: poll alerts failed")
	}
	for _, a := range alerts {
		for _, evt := range o.alerts.TranslateAlert(a) {
			o.publish(evt)
		}
	}

	for _, id := range o.reg.IDs() {
		h, ok := o.reg.Get(id)
		if !ok {
			continue
		}
		for _, evt := range o.alerts.Sweep(id, h) {
			o.publish(evt)
		}
	}
}

// publish fans an event out to the bus and applies its side effects on the
// resume store and runtime catalogue (spec §4.5/§4.6 "mutated ... by the
// Alert Adapter").
func (o *Orchestrator) publish(evt domain.Event) {
	if o.bus != nil {
		o.bus.Publish(evt)
	}

	switch evt.Kind {
	case domain.EventResumeData:
		if p, ok := evt.Payload.(domain.ResumeDataPayload); ok && o.resume != nil {
			if err := o.resume.Save(evt.TorrentID, p.Blob); err != nil {
				log.Warn().Err(err).Str("torrentId", string(evt.TorrentID)).Msg("orchestrator: resume save failed")
			}
		}
	case domain.EventStateChanged, domain.EventProgress, domain.EventMetadataUpdated,
		domain.EventFilesDiscovered, domain.EventCompleted:
		o.syncCatalogue(evt.TorrentID)
	}

	if evt.Kind == domain.EventCompleted {
		o.triggerFsOps(evt.TorrentID)
	}
}

// triggerFsOps submits the FsOps Pipeline (C8) job for a torrent that just
// reached Completed (spec §4.8 "runs once a torrent reaches Completed").
// It is a no-op when no pipeline has been wired via SetFsOps.
func (o *Orchestrator) triggerFsOps(id domain.TorrentID) {
	if o.fsops == nil {
		return
	}
	h, ok := o.reg.Get(id)
	if !ok {
		return
	}
	snap, ok := o.reg.Snapshot(id)
	if !ok {
		return
	}
	files := h.Files()
	var priorities map[int]domain.Priority
	if eng, ok := o.selections[id]; ok {
		priorities = eng.Priorities(files)
	}
	o.fsops.Submit(o.ctx, fsops.Request{
		TorrentID:  id,
		Name:       snap.LastName,
		StagingDir: snap.LastDownloadDir,
		Files:      files,
		Priorities: priorities,
		Policy:     o.fsPolicy,
	})
}

// syncCatalogue refreshes the runtime catalogue's cached record for id from
// the registry snapshot and live handle (spec §4.6).
func (o *Orchestrator) syncCatalogue(id domain.TorrentID) {
	if o.catalog == nil {
		return
	}
	snap, ok := o.reg.Snapshot(id)
	if !ok {
		return
	}
	record, existed := o.catalog.Get(id)
	if !existed {
		record = domain.TorrentRecord{ID: id, CreatedAt: time.Now()}
	}
	record.State = snap.State
	record.Name = snap.LastName
	record.SavePath = snap.LastDownloadDir
	record.UpdatedAt = time.Now()
	if h, ok := o.reg.Get(id); ok {
		record.InfoHash = h.InfoHash()
	}
	o.catalog.Upsert(record)
}

// Shutdown stops accepting new commands after flushing resume data for
// every registered handle, draining the resulting resume_data events, and
// closing the native engine (spec §5 "flushes resume data for all handles
// and closes the session").
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	_, err := o.submit(ctx, func() (any, error) {
		for _, id := range o.reg.IDs() {
			if h, ok := o.reg.Get(id); ok {
				_ = h.RequestSaveResumeData()
			}
		}
		o.pump()
		return nil, nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("orchestrator: shutdown flush failed")
	}

	o.cancel()
	<-o.done
	return o.engine.Close()
}
