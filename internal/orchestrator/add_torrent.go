package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/engine/anacrolixengine"
	"revaer/internal/selection"
)

// AddTorrentRequest is the control-plane-facing add_torrent payload (spec
// §4.4). The orchestrator validates and pre-processes it (metainfo
// overrides, tracker merge/auth, sampled verify) before handing a narrower
// ports.AddTorrentRequest to the native engine.
type AddTorrentRequest struct {
	ID       domain.TorrentID // optional; a uuidv4 is generated if empty
	Source   domain.TorrentSource
	SavePath string

	Selection domain.SelectionRules
	Limits    domain.Limits
	Flags     domain.Flags
	Tags      []string
	Category  string

	Trackers        []string
	ReplaceTrackers bool
	TrackerAuth     *domain.TrackerAuth

	MetainfoComment string
	MetainfoSource  string
	MetainfoPrivate *bool // nil means no override

	HashCheckSamplePct float64 // (0,100]; 0 disables sampled verify
	QueuePosition      *int
}

// AddTorrent implements spec §4.4 add_torrent.
func (o *Orchestrator) AddTorrent(ctx context.Context, req AddTorrentRequest) (domain.TorrentID, error) {
	val, err := o.submit(ctx, func() (any, error) { return o.addTorrent(ctx, req) })
	if err != nil {
		return "", err
	}
	return val.(domain.TorrentID), nil
}

func (o *Orchestrator) addTorrent(ctx context.Context, req AddTorrentRequest) (domain.TorrentID, error) {
	if !req.Source.Valid() {
		return "", domain.NewCommandError(domain.KindValidation, "exactly one of magnet or metainfo must be set")
	}

	id := req.ID
	if id == "" {
		id = domain.TorrentID(uuid.NewString())
	}
	if !id.Valid() {
		return "", domain.NewCommandError(domain.KindValidation, "torrent id must not be blank")
	}
	if _, exists := o.reg.Get(id); exists {
		return "", domain.NewCommandError(domain.KindValidation, "torrent id already admitted")
	}

	if req.Flags.SeedMode && !req.Source.IsMetainfo() {
		return "", domain.NewCommandError(domain.KindValidation, "seed_mode requires metainfo; magnets are rejected")
	}

	if req.SavePath != "" && !pathAllowed(req.SavePath, o.fsPolicy.AllowPaths) {
		return "", domain.NewCommandError(domain.KindAllowPathViolation, fmt.Sprintf("save path %q is outside allow_paths", req.SavePath))
	}

	selEngine, serr := selection.Compile(req.Selection)
	if serr != nil {
		return "", domain.WrapCommandError(domain.KindValidation, "compile selection rules", serr)
	}

	source := req.Source
	var embeddedTrackers []string
	embeddedPrivate, embeddedHasPrivate := false, false

	if source.IsMetainfo() {
		var err error
		embeddedTrackers, embeddedPrivate, embeddedHasPrivate, err = metainfoPeek(source.Metainfo)
		if err != nil {
			return "", domain.WrapCommandError(domain.KindMalformedPayload, "parse metainfo", err)
		}

		if req.MetainfoComment != "" || req.MetainfoSource != "" || req.MetainfoPrivate != nil {
			overridden, err := anacrolixengine.ApplyMetainfoOverrides(source.Metainfo, anacrolixengine.MetainfoOverrides{
				Comment:     req.MetainfoComment,
				Source:      req.MetainfoSource,
				PrivateFlag: req.MetainfoPrivate != nil && *req.MetainfoPrivate,
				HasPrivate:  req.MetainfoPrivate != nil,
			})
			if err != nil {
				return "", domain.WrapCommandError(domain.KindMalformedPayload, "apply metainfo overrides", err)
			}
			source.Metainfo = overridden
			if req.MetainfoPrivate != nil {
				embeddedPrivate = *req.MetainfoPrivate
				embeddedHasPrivate = true
			}
		}
	}

	trackers := mergeTrackers(o.profile.DefaultTrackers, append(append([]string{}, o.profile.ExtraTrackers...), embeddedTrackers...), req.Trackers, req.ReplaceTrackers)

	effectivePrivate := embeddedHasPrivate && embeddedPrivate
	if effectivePrivate && len(trackers) == 0 {
		return "", domain.NewCommandError(domain.KindInvalidPrivateConfiguration, "private torrents require at least one tracker")
	}

	auth := req.TrackerAuth
	if auth == nil {
		auth = o.profile.TrackerAuth
	}
	trackers = anacrolixengine.ApplyTrackerAuth(trackers, auth)

	skipVerify := false
	if _, staged := o.pendingResume[id]; staged {
		// A staged resume blob overrides the admission path (spec §4.4):
		// trust the persisted state instead of re-verifying from scratch.
		delete(o.pendingResume, id)
		skipVerify = true
	}

	h, err := o.engine.AddTorrent(ctx, ports.AddTorrentRequest{
		Source:        source,
		SavePath:      req.SavePath,
		Trackers:      trackers,
		Flags:         req.Flags,
		QueuePosition: req.QueuePosition,
	})
	if err != nil {
		return "", err
	}

	o.reg.Put(id, h)
	o.selections[id] = selEngine
	if h.MetadataReady() {
		_ = h.SetFilePriorities(selEngine.Priorities(h.Files()))
	}

	if !skipVerify && req.HashCheckSamplePct > 0 {
		ok, bad, verr := anacrolixengine.SampledVerify(o.engine, id, int(math.Ceil(req.HashCheckSamplePct)))
		if verr != nil {
			o.reg.Remove(id)
			delete(o.selections, id)
			_ = o.engine.Remove(id, true)
			return "", domain.WrapCommandError(domain.KindInternal, "sampled verify", verr)
		}
		if !ok {
			o.reg.Remove(id)
			delete(o.selections, id)
			_ = o.engine.Remove(id, true)
			return "", domain.NewCommandError(domain.KindVerificationFailed, fmt.Sprintf("sampled verify failed at piece %d", bad))
		}
	}

	now := time.Now()
	record := domain.TorrentRecord{
		ID:        id,
		Source:    source,
		InfoHash:  h.InfoHash(),
		SavePath:  req.SavePath,
		State:     domain.Queued,
		Selection: req.Selection,
		Limits:    req.Limits,
		Flags:     req.Flags,
		Trackers:  trackers,
		Tags:      req.Tags,
		Category:  req.Category,
		Metadata: domain.Metadata{
			Comment:     req.MetainfoComment,
			Source:      req.MetainfoSource,
			PrivateFlag: effectivePrivate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if o.catalog != nil {
		o.catalog.Upsert(record)
	}
	o.publish(domain.Event{TorrentID: id, Kind: domain.EventTorrentAdded, At: now})

	return id, nil
}
