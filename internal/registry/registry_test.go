package registry

import (
	"testing"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

type fakeHandle struct {
	id domain.TorrentID
	ih domain.InfoHash
}

func (f *fakeHandle) ID() domain.TorrentID           { return f.id }
func (f *fakeHandle) InfoHash() domain.InfoHash      { return f.ih }
func (f *fakeHandle) Files() []domain.FileEntry      { return nil }
func (f *fakeHandle) MetadataReady() bool            { return true }
func (f *fakeHandle) Pause() error                   { return nil }
func (f *fakeHandle) Resume() error                  { return nil }
func (f *fakeHandle) SetSequential(bool) error        { return nil }
func (f *fakeHandle) Reannounce() error               { return nil }
func (f *fakeHandle) Recheck() error                  { return nil }
func (f *fakeHandle) SetPiecePriority(int, *int) error { return nil }
func (f *fakeHandle) MoveStorage(string) error        { return nil }
func (f *fakeHandle) SetFilePriorities(map[int]domain.Priority) error { return nil }
func (f *fakeHandle) SetTrackers([]string, bool) error { return nil }
func (f *fakeHandle) SetWebSeeds([]string, bool) error { return nil }
func (f *fakeHandle) SetOptions(*int, *bool, *bool, *bool, *int) error { return nil }
func (f *fakeHandle) SetDownloadLimit(int64) error    { return nil }
func (f *fakeHandle) SetUploadLimit(int64) error      { return nil }
func (f *fakeHandle) RequestSaveResumeData() error    { return nil }
func (f *fakeHandle) Peers() ([]ports.PeerInfo, error) { return nil, nil }
func (f *fakeHandle) Snapshot() ports.NativeSnapshot  { return ports.NativeSnapshot{} }
func (f *fakeHandle) Drop() error                     { return nil }

func TestRegistryPutGetRemove(t *testing.T) {
	r := New()
	h := &fakeHandle{id: "t1", ih: "abc"}
	r.Put("t1", h)

	got, ok := r.Get("t1")
	if !ok || got != h {
		t.Fatalf("expected handle to be registered")
	}

	id, ok := r.ResolveByInfoHash("abc")
	if !ok || id != "t1" {
		t.Fatalf("expected infohash resolution, got %v %v", id, ok)
	}

	snap, ok := r.Snapshot("t1")
	if !ok || snap.State != domain.Queued {
		t.Fatalf("expected initial Queued snapshot, got %+v", snap)
	}

	r.Remove("t1")
	if _, ok := r.Get("t1"); ok {
		t.Fatalf("expected handle removed")
	}
	if _, ok := r.ResolveByInfoHash("abc"); ok {
		t.Fatalf("expected infohash index cleared")
	}
}
