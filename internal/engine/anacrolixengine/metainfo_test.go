package anacrolixengine

import (
	"testing"

	"github.com/zeebo/bencode"
)

func TestApplyMetainfoOverrides(t *testing.T) {
	type info struct {
		Name        string `bencode:"name"`
		PieceLength int64  `bencode:"piece length"`
	}
	type doc struct {
		Announce string `bencode:"announce"`
		Info     info   `bencode:"info"`
	}

	raw, err := bencode.EncodeBytes(doc{Announce: "http://tracker", Info: info{Name: "movie.mkv", PieceLength: 16384}})
	if err != nil {
		t.Fatal(err)
	}

	out, err := ApplyMetainfoOverrides(raw, MetainfoOverrides{
		Comment:     "added by revaer",
		Source:      "PRIVATE",
		PrivateFlag: true,
		HasPrivate:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(out, &decoded); err != nil {
		t.Fatal(err)
	}
	var comment string
	if err := bencode.DecodeBytes(decoded["comment"], &comment); err != nil {
		t.Fatal(err)
	}
	if comment != "added by revaer" {
		t.Errorf("got comment %q", comment)
	}

	var infoMap map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(decoded["info"], &infoMap); err != nil {
		t.Fatal(err)
	}
	var source string
	if err := bencode.DecodeBytes(infoMap["source"], &source); err != nil {
		t.Fatal(err)
	}
	if source != "PRIVATE" {
		t.Errorf("got source %q", source)
	}
	var private int64
	if err := bencode.DecodeBytes(infoMap["private"], &private); err != nil {
		t.Fatal(err)
	}
	if private != 1 {
		t.Errorf("got private %d, want 1", private)
	}

	var name string
	if err := bencode.DecodeBytes(infoMap["name"], &name); err != nil {
		t.Fatal(err)
	}
	if name != "movie.mkv" {
		t.Errorf("expected original info fields preserved, got name=%q", name)
	}
}
