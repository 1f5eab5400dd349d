package alertadapter

import (
	"testing"
	"time"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
	"revaer/internal/registry"
)

type stubHandle struct {
	id   domain.TorrentID
	snap ports.NativeSnapshot
}

func (s *stubHandle) ID() domain.TorrentID           { return s.id }
func (s *stubHandle) InfoHash() domain.InfoHash      { return "ih" }
func (s *stubHandle) Files() []domain.FileEntry      { return nil }
func (s *stubHandle) MetadataReady() bool            { return s.snap.MetadataReady }
func (s *stubHandle) Pause() error                   { return nil }
func (s *stubHandle) Resume() error                  { return nil }
func (s *stubHandle) SetSequential(bool) error        { return nil }
func (s *stubHandle) Reannounce() error               { return nil }
func (s *stubHandle) Recheck() error                  { return nil }
func (s *stubHandle) SetPiecePriority(int, *int) error { return nil }
func (s *stubHandle) MoveStorage(string) error        { return nil }
func (s *stubHandle) SetFilePriorities(map[int]domain.Priority) error { return nil }
func (s *stubHandle) SetTrackers([]string, bool) error { return nil }
func (s *stubHandle) SetWebSeeds([]string, bool) error { return nil }
func (s *stubHandle) SetOptions(*int, *bool, *bool, *bool, *int) error { return nil }
func (s *stubHandle) SetDownloadLimit(int64) error    { return nil }
func (s *stubHandle) SetUploadLimit(int64) error      { return nil }
func (s *stubHandle) RequestSaveResumeData() error    { return nil }
func (s *stubHandle) Peers() ([]ports.PeerInfo, error) { return nil, nil }
func (s *stubHandle) Snapshot() ports.NativeSnapshot  { return s.snap }
func (s *stubHandle) Drop() error                     { return nil }

func TestSweepFilesDiscoveredExactlyOnce(t *testing.T) {
	reg := registry.New()
	h := &stubHandle{id: "t1", snap: ports.NativeSnapshot{MetadataReady: true, Status: ports.NativeDownloading}}
	reg.Put("t1", h)
	a := New(reg)

	events := a.Sweep("t1", h)
	found := false
	for _, e := range events {
		if e.Kind == domain.EventFilesDiscovered {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected files_discovered on first sweep")
	}

	events = a.Sweep("t1", h)
	for _, e := range events {
		if e.Kind == domain.EventFilesDiscovered {
			t.Fatalf("files_discovered must fire exactly once")
		}
	}
}

func TestSweepCompletedExactlyOncePerLifecycle(t *testing.T) {
	reg := registry.New()
	h := &stubHandle{id: "t1", snap: ports.NativeSnapshot{
		Status: ports.NativeDownloading, BytesDone: 50, BytesTotal: 100,
	}}
	reg.Put("t1", h)
	a := New(reg)
	a.Sweep("t1", h)

	h.snap.BytesDone = 100
	h.snap.Status = ports.NativeFinished
	events := a.Sweep("t1", h)
	count := 0
	for _, e := range events {
		if e.Kind == domain.EventCompleted {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one completed event, got %d", count)
	}

	events = a.Sweep("t1", h)
	for _, e := range events {
		if e.Kind == domain.EventCompleted {
			t.Fatalf("completed must not re-fire without a recheck reset")
		}
	}

	a.ResetCompletion("t1")
	events = a.Sweep("t1", h)
	count = 0
	for _, e := range events {
		if e.Kind == domain.EventCompleted {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected completed to re-fire after recheck reset, got %d", count)
	}
}

func TestSweepProgressCoalescedAt10Hz(t *testing.T) {
	reg := registry.New()
	h := &stubHandle{id: "t1", snap: ports.NativeSnapshot{Status: ports.NativeDownloading, BytesDone: 1, BytesTotal: 100}}
	reg.Put("t1", h)
	a := New(reg)
	a.now = func() time.Time { return time.Unix(0, 0) }
	a.Sweep("t1", h)

	h.snap.BytesDone = 2
	events := a.Sweep("t1", h)
	for _, e := range events {
		if e.Kind == domain.EventProgress {
			t.Fatalf("progress should be rate-limited within the same 100ms window")
		}
	}

	a.now = func() time.Time { return time.Unix(0, 0).Add(200 * time.Millisecond) }
	h.snap.BytesDone = 3
	events = a.Sweep("t1", h)
	found := false
	for _, e := range events {
		if e.Kind == domain.EventProgress {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected progress event once rate limiter window elapsed")
	}
}

func TestTranslateAlertTorrentErrorMarksFailed(t *testing.T) {
	reg := registry.New()
	h := &stubHandle{id: "t1"}
	reg.Put("t1", h)
	a := New(reg)

	events := a.TranslateAlert(ports.Alert{Kind: ports.AlertTorrentError, TorrentID: "t1", Message: "disk full"})
	if len(events) != 1 || events[0].Kind != domain.EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	snap, _ := reg.Snapshot("t1")
	if snap.State != domain.Failed {
		t.Fatalf("expected snapshot state Failed, got %s", snap.State)
	}
}

func TestTranslateAlertTrackerWarning(t *testing.T) {
	reg := registry.New()
	a := New(reg)
	events := a.TranslateAlert(ports.Alert{Kind: ports.AlertTrackerWarning, TorrentID: "t1", URL: "http://tracker", Message: "slow"})
	if len(events) != 1 || events[0].Kind != domain.EventTrackerUpdate {
		t.Fatalf("expected tracker_update event, got %+v", events)
	}
	payload := events[0].Payload.(domain.TrackerUpdatePayload)
	if payload.Trackers[0].Status != domain.TrackerWarning {
		t.Fatalf("expected warning status, got %s", payload.Trackers[0].Status)
	}
}
