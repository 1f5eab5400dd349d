package reconcile

import (
	"context"
	"testing"
	"time"

	"revaer/internal/alertadapter"
	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/orchestrator"
	"revaer/internal/registry"
)

type stubHandle struct {
	id     domain.TorrentID
	metaOK bool
}

func (h *stubHandle) ID() domain.TorrentID                            { return h.id }
func (h *stubHandle) InfoHash() domain.InfoHash                       { return "ih" }
func (h *stubHandle) Files() []domain.FileEntry                       { return nil }
func (h *stubHandle) MetadataReady() bool                             { return h.metaOK }
func (h *stubHandle) Pause() error                                    { return nil }
func (h *stubHandle) Resume() error                                   { return nil }
func (h *stubHandle) SetSequential(bool) error                        { return nil }
func (h *stubHandle) Reannounce() error                               { return nil }
func (h *stubHandle) Recheck() error                                  { return nil }
func (h *stubHandle) SetPiecePriority(int, *int) error                { return nil }
func (h *stubHandle) MoveStorage(string) error                        { return nil }
func (h *stubHandle) SetFilePriorities(map[int]domain.Priority) error { return nil }
func (h *stubHandle) SetTrackers([]string, bool) error                { return nil }
func (h *stubHandle) SetWebSeeds([]string, bool) error                { return nil }
func (h *stubHandle) SetOptions(*int, *bool, *bool, *bool, *int) error { return nil }
func (h *stubHandle) SetDownloadLimit(int64) error                    { return nil }
func (h *stubHandle) SetUploadLimit(int64) error                      { return nil }
func (h *stubHandle) RequestSaveResumeData() error                    { return nil }
func (h *stubHandle) Peers() ([]ports.PeerInfo, error)                { return nil, nil }
func (h *stubHandle) Snapshot() ports.NativeSnapshot                  { return ports.NativeSnapshot{} }
func (h *stubHandle) Drop() error                                     { return nil }

type stubEngine struct {
	failFor map[domain.TorrentID]bool
}

func (e *stubEngine) AddTorrent(_ context.Context, req ports.AddTorrentRequest) (ports.Handle, error) {
	return &stubHandle{id: "placeholder", metaOK: true}, nil
}
func (e *stubEngine) Handle(domain.TorrentID) (ports.Handle, bool) { return nil, false }
func (e *stubEngine) Remove(domain.TorrentID, bool) error          { return nil }
func (e *stubEngine) ApplyProfile(context.Context, domain.EngineProfile) error { return nil }
func (e *stubEngine) PollAlerts(context.Context) ([]ports.Alert, error)        { return nil, nil }
func (e *stubEngine) TotalPieces(domain.TorrentID) (int, error)                { return 0, nil }
func (e *stubEngine) PieceHash(domain.TorrentID, int) ([20]byte, error)        { return [20]byte{}, nil }
func (e *stubEngine) ReadPieceData(domain.TorrentID, int) ([]byte, error)      { return nil, nil }
func (e *stubEngine) Close() error                                            { return nil }

type stubResumeStore struct {
	blobs map[domain.TorrentID][]byte
}

func (s *stubResumeStore) Save(domain.TorrentID, []byte) error { return nil }
func (s *stubResumeStore) Load(domain.TorrentID) ([]byte, error) { return nil, nil }
func (s *stubResumeStore) Delete(domain.TorrentID) error         { return nil }
func (s *stubResumeStore) List() (map[domain.TorrentID][]byte, error) {
	return s.blobs, nil
}

type stubCatalogue struct {
	records map[domain.TorrentID]domain.TorrentRecord
}

func newStubCatalogue() *stubCatalogue {
	return &stubCatalogue{records: make(map[domain.TorrentID]domain.TorrentRecord)}
}
func (c *stubCatalogue) Upsert(r domain.TorrentRecord) { c.records[r.ID] = r }
func (c *stubCatalogue) Get(id domain.TorrentID) (domain.TorrentRecord, bool) {
	r, ok := c.records[id]
	return r, ok
}
func (c *stubCatalogue) Remove(id domain.TorrentID) { delete(c.records, id) }
func (c *stubCatalogue) List(ports.ListQuery) (ports.ListPage, error) {
	return ports.ListPage{}, nil
}

type stubBus struct{ events []domain.Event }

func (b *stubBus) Publish(evt domain.Event) { b.events = append(b.events, evt) }
func (b *stubBus) Subscribe(uint64) ports.Subscription {
	ch := make(chan domain.Event)
	close(ch)
	return &stubSubscription{ch: ch}
}

type stubSubscription struct{ ch chan domain.Event }

func (s *stubSubscription) Events() <-chan domain.Event { return s.ch }
func (s *stubSubscription) Close()                      {}

func newTestOrchestrator(t *testing.T, engine ports.Engine, catalog ports.Catalogue, resume ports.ResumeStore, bus ports.EventBus) *orchestrator.Orchestrator {
	t.Helper()
	reg := registry.New()
	alerts := alertadapter.New(reg)
	o := orchestrator.New(engine, reg, alerts, resume, catalog, bus)
	go o.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})
	return o
}

func TestReconcileReinstatesKnownTorrents(t *testing.T) {
	cat := newStubCatalogue()
	cat.Upsert(domain.TorrentRecord{
		ID:     "t1",
		Source: domain.TorrentSource{Magnet: "magnet:?xt=urn:btih:abc"},
		Tags:   []string{"tv"},
	})
	resume := &stubResumeStore{blobs: map[domain.TorrentID][]byte{"t1": []byte("blob")}}
	bus := &stubBus{}
	o := newTestOrchestrator(t, &stubEngine{}, cat, resume, bus)

	r := New(o, resume, cat, bus)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Reinstated) != 1 || result.Reinstated[0] != "t1" {
		t.Fatalf("expected t1 reinstated, got %+v", result)
	}
	if len(result.Quarantined) != 0 {
		t.Fatalf("expected no quarantined torrents, got %+v", result.Quarantined)
	}
}

func TestReconcileQuarantinesBlobWithoutCatalogueRecord(t *testing.T) {
	cat := newStubCatalogue()
	resume := &stubResumeStore{blobs: map[domain.TorrentID][]byte{"orphan": []byte("blob")}}
	bus := &stubBus{}
	o := newTestOrchestrator(t, &stubEngine{}, cat, resume, bus)

	r := New(o, resume, cat, bus)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Quarantined) != 1 || result.Quarantined[0] != "orphan" {
		t.Fatalf("expected orphan blob quarantined, got %+v", result)
	}
}

func TestReconcileQuarantinesOnAddFailure(t *testing.T) {
	cat := newStubCatalogue()
	cat.Upsert(domain.TorrentRecord{ID: "t1", Source: domain.TorrentSource{}}) // invalid source -> AddTorrent fails
	resume := &stubResumeStore{blobs: map[domain.TorrentID][]byte{"t1": []byte("blob")}}
	bus := &stubBus{}
	o := newTestOrchestrator(t, &stubEngine{}, cat, resume, bus)

	r := New(o, resume, cat, bus)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Quarantined) != 1 {
		t.Fatalf("expected t1 quarantined after add failure, got %+v", result)
	}
	record, _ := cat.Get("t1")
	if record.State != domain.Failed {
		t.Fatalf("expected quarantined record to be Failed, got %v", record.State)
	}
}
