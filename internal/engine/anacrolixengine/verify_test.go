package anacrolixengine

import (
	"context"
	"testing"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// stubVerifyEngine implements ports.Engine with just enough behavior to
// exercise SampledVerify; every other method is a trivial stub.
type stubVerifyEngine struct {
	total  int
	hashes map[int][20]byte
	data   map[int][]byte
}

func (s *stubVerifyEngine) AddTorrent(context.Context, ports.AddTorrentRequest) (ports.Handle, error) {
	return nil, nil
}
func (s *stubVerifyEngine) Handle(domain.TorrentID) (ports.Handle, bool) { return nil, false }
func (s *stubVerifyEngine) Remove(domain.TorrentID, bool) error         { return nil }
func (s *stubVerifyEngine) ApplyProfile(context.Context, domain.EngineProfile) error {
	return nil
}
func (s *stubVerifyEngine) PollAlerts(context.Context) ([]ports.Alert, error) { return nil, nil }
func (s *stubVerifyEngine) TotalPieces(domain.TorrentID) (int, error)         { return s.total, nil }
func (s *stubVerifyEngine) PieceHash(_ domain.TorrentID, piece int) ([20]byte, error) {
	return s.hashes[piece], nil
}
func (s *stubVerifyEngine) ReadPieceData(_ domain.TorrentID, piece int) ([]byte, error) {
	return s.data[piece], nil
}
func (s *stubVerifyEngine) Close() error { return nil }

func TestSampledVerifyMatchingPieces(t *testing.T) {
	hash := sha1Sum([]byte("piece-data"))
	total := 64
	hashes := make(map[int][20]byte, total)
	data := make(map[int][]byte, total)
	for i := 0; i < total; i++ {
		hashes[i] = hash
		data[i] = []byte("piece-data")
	}
	e := &stubVerifyEngine{total: total, hashes: hashes, data: data}

	ok, bad, err := SampledVerify(e, "t1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || bad != -1 {
		t.Fatalf("expected match, got ok=%v bad=%d", ok, bad)
	}
}

func TestSampledVerifyDetectsMismatch(t *testing.T) {
	hash := sha1Sum([]byte("piece-data"))
	e := &stubVerifyEngine{
		total:  4,
		hashes: map[int][20]byte{0: hash, 1: hash, 2: hash, 3: hash},
		data:   map[int][]byte{0: []byte("piece-data"), 1: []byte("corrupted!"), 2: []byte("piece-data"), 3: []byte("piece-data")},
	}
	// pct=100 forces a full pass (k=total, stride=1), guaranteeing piece 1 is sampled.
	ok, bad, err := SampledVerify(e, "t1", 100)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected mismatch detection, got ok=true")
	}
	if bad < 0 {
		t.Fatalf("expected a bad piece index, got %d", bad)
	}
}

func TestSampledVerifyZeroPiecesIsOK(t *testing.T) {
	e := &stubVerifyEngine{total: 0}
	ok, bad, err := SampledVerify(e, "t1", 50)
	if err != nil || !ok || bad != -1 {
		t.Fatalf("expected trivially-ok result, got ok=%v bad=%d err=%v", ok, bad, err)
	}
}

func TestSampledVerifyZeroPctIsOK(t *testing.T) {
	e := &stubVerifyEngine{total: 64}
	ok, bad, err := SampledVerify(e, "t1", 0)
	if err != nil || !ok || bad != -1 {
		t.Fatalf("expected pct=0 to skip verification entirely, got ok=%v bad=%d err=%v", ok, bad, err)
	}
}

func TestSampleIndicesIsFunctionOfTotalAndPct(t *testing.T) {
	a := sampleIndices(200, 10)
	b := sampleIndices(200, 10)
	if len(a) != len(b) {
		t.Fatalf("expected deterministic sample size, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical sample sets, diverged at %d: %d vs %d", i, a[i], b[i])
		}
	}
	wantK := (200*10 + 99) / 100
	if len(a) != wantK {
		t.Fatalf("expected k=%d samples, got %d", wantK, len(a))
	}
}

func TestSampleIndicesFullPctCoversEveryPiece(t *testing.T) {
	indices := sampleIndices(37, 100)
	if len(indices) != 37 {
		t.Fatalf("expected all 37 pieces sampled at pct=100, got %d", len(indices))
	}
	for i, piece := range indices {
		if piece != i {
			t.Fatalf("expected contiguous full coverage, index %d held piece %d", i, piece)
		}
	}
}
