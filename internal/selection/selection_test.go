package selection

import (
	"testing"

	"revaer/internal/domain"
)

// S3 from spec §8: metainfo files main.mkv, Sample/preview.mkv,
// extras/bts.mkv with skip_fluff=true yields [normal, skip, skip].
func TestSkipFluffScenarioS3(t *testing.T) {
	files := []domain.FileEntry{
		{Index: 0, Path: "main.mkv"},
		{Index: 1, Path: "Sample/preview.mkv"},
		{Index: 2, Path: "extras/bts.mkv"},
	}
	eng, err := Compile(domain.SelectionRules{SkipFluff: true})
	if err != nil {
		t.Fatal(err)
	}
	got := eng.Priorities(files)
	want := map[int]domain.Priority{
		0: domain.PriorityNormal,
		1: domain.PrioritySkip,
		2: domain.PrioritySkip,
	}
	for idx, p := range want {
		if got[idx] != p {
			t.Errorf("file %d: got %s, want %s", idx, got[idx], p)
		}
	}
}

func TestExcludeSkips(t *testing.T) {
	files := []domain.FileEntry{{Index: 0, Path: "movie.nfo"}}
	eng, err := Compile(domain.SelectionRules{Exclude: []string{"**/*.nfo"}})
	if err != nil {
		t.Fatal(err)
	}
	got := eng.Priorities(files)
	if got[0] != domain.PrioritySkip {
		t.Errorf("got %s, want skip", got[0])
	}
}

func TestExplicitOverrideAppliesLast(t *testing.T) {
	files := []domain.FileEntry{{Index: 0, Path: "movie.nfo"}}
	eng, err := Compile(domain.SelectionRules{
		Exclude:    []string{"**/*.nfo"},
		Priorities: map[int]domain.Priority{0: domain.PriorityHigh},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := eng.Priorities(files)
	if got[0] != domain.PriorityHigh {
		t.Errorf("got %s, want high (explicit override wins)", got[0])
	}
}

func TestCaseInsensitiveMatch(t *testing.T) {
	files := []domain.FileEntry{{Index: 0, Path: "MOVIE/SAMPLE/clip.MKV"}}
	eng, err := Compile(domain.SelectionRules{SkipFluff: true})
	if err != nil {
		t.Fatal(err)
	}
	got := eng.Priorities(files)
	if got[0] != domain.PrioritySkip {
		t.Errorf("got %s, want skip (case-insensitive fluff match)", got[0])
	}
}
