package resume

import (
	"testing"

	"revaer/internal/domain"
)

func TestSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save("t1", []byte("blob-one")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load("t1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "blob-one" {
		t.Errorf("got %q", got)
	}

	if err := s.Delete("t1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("t1"); err == nil {
		t.Errorf("expected error loading deleted blob")
	}
}

func TestListEnumeratesAll(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	s.Save("t1", []byte("a"))
	s.Save("t2", []byte("b"))

	all, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if string(all[domain.TorrentID("t1")]) != "a" {
		t.Errorf("got %q", all["t1"])
	}
}

func TestDeleteNonexistentIsNoop(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	if err := s.Delete("missing"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
