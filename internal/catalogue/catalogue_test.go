package catalogue

import (
	"testing"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

func rec(id string, state domain.State) domain.TorrentRecord {
	return domain.TorrentRecord{ID: domain.TorrentID(id), Name: id + ".mkv", State: state}
}

func TestUpsertGetRemove(t *testing.T) {
	c := New()
	c.Upsert(rec("a", domain.Downloading))
	got, ok := c.Get("a")
	if !ok || got.Name != "a.mkv" {
		t.Fatalf("expected record a, got %+v", got)
	}
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected record removed")
	}
}

func TestListFiltersByState(t *testing.T) {
	c := New()
	c.Upsert(rec("a", domain.Downloading))
	c.Upsert(rec("b", domain.Completed))
	state := domain.Completed
	page, err := c.List(ports.ListQuery{State: &state})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 1 || page.Records[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", page.Records)
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	c := New()
	c.Upsert(rec("a", domain.Downloading))
	c.Upsert(rec("b", domain.Downloading))
	c.Upsert(rec("c", domain.Downloading))

	page1, err := c.List(ports.ListQuery{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1.Records) != 2 || page1.NextCursor == "" {
		t.Fatalf("expected a 2-record page with a cursor, got %+v", page1)
	}

	page2, err := c.List(ports.ListQuery{Limit: 2, Cursor: page1.NextCursor})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2.Records) != 1 || page2.Records[0].ID != "c" {
		t.Fatalf("expected final record c, got %+v", page2.Records)
	}
	if page2.NextCursor != "" {
		t.Errorf("expected exhausted cursor, got %q", page2.NextCursor)
	}
}

func TestListNameContainsCaseInsensitive(t *testing.T) {
	c := New()
	c.Upsert(rec("Movie.Name", domain.Downloading))
	page, err := c.List(ports.ListQuery{NameContains: "movie"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("expected case-insensitive match, got %+v", page.Records)
	}
}
