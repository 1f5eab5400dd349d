package anacrolixengine

import (
	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// SampledVerify re-hashes a deterministic subset of a torrent's pieces and
// compares each against its metainfo-recorded SHA-1, returning false (and
// the first mismatching piece) on any divergence. Checking every piece on
// every add_torrent(verify=true) would re-read the full payload from disk;
// striding over a sample sized from pct bounds the cost while still
// catching bulk corruption or a swapped data directory.
//
// The sample index set is a pure function of (total, pct) (spec §4.4/
// property 7): k = ceil(total*pct/100), stride = max(1, total/k), then
// indices 0, stride, 2*stride, ... are taken until k are held; if the set
// is still short of k the last index is appended, and if it is still short
// it is backfilled from 0 upward. This makes verification idempotent and
// reproducible for a given torrent and pct, with no RNG.
//
// It takes ports.Engine rather than the concrete Engine so the orchestrator
// (which only ever holds the narrow port) can drive verification without
// depending on this package's concrete type (spec §9 native session
// ownership stays behind the port).
func SampledVerify(e ports.Engine, id domain.TorrentID, pct int) (ok bool, badPiece int, err error) {
	total, err := e.TotalPieces(id)
	if err != nil {
		return false, -1, err
	}
	if total == 0 || pct <= 0 {
		return true, -1, nil
	}

	for _, piece := range sampleIndices(total, pct) {
		want, herr := e.PieceHash(id, piece)
		if herr != nil {
			return false, piece, herr
		}
		data, rerr := e.ReadPieceData(id, piece)
		if rerr != nil {
			return false, piece, rerr
		}
		got := sha1Sum(data)
		if got != want {
			return false, piece, nil
		}
	}
	return true, -1, nil
}

// sampleIndices returns the deterministic, ascending, duplicate-free piece
// index set spec §4.4 defines for a sampled verify of `total` pieces at
// `pct` percent.
func sampleIndices(total, pct int) []int {
	k := (total*pct + 99) / 100
	if k < 1 {
		k = 1
	}
	if k > total {
		k = total
	}

	stride := total / k
	if stride < 1 {
		stride = 1
	}

	seen := make(map[int]bool, k)
	var indices []int
	add := func(piece int) {
		if piece < 0 || piece >= total || seen[piece] {
			return
		}
		seen[piece] = true
		indices = append(indices, piece)
	}

	for piece := 0; piece < total && len(indices) < k; piece += stride {
		add(piece)
	}

	last := total - 1
	if len(indices) < k {
		add(last)
	}

	for piece := 0; piece < total && len(indices) < k; piece++ {
		add(piece)
	}

	return indices
}
