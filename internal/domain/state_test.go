package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{Queued, FetchingMetadata, true},
		{FetchingMetadata, Downloading, true},
		{Downloading, Completed, true},
		{Completed, Seeding, true},
		{Queued, Seeding, false},
		{Seeding, FetchingMetadata, false},
		{Failed, Downloading, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
