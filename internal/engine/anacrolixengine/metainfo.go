package anacrolixengine

import (
	"bytes"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/zeebo/bencode"
)

// addFromMetainfoBytes parses a raw .torrent file and admits it to the
// client via AddTorrentSpec, the pattern martymcquaid-omnicloud2024's
// internal/torrent/client.go uses for file-based (non-magnet) admission.
func addFromMetainfoBytes(client *torrent.Client, raw []byte) (*torrent.Torrent, error) {
	mi, err := metainfo.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	t, _, err := client.AddTorrentSpec(&torrent.TorrentSpec{
		InfoHash:  mi.HashInfoBytes(),
		InfoBytes: mi.InfoBytes,
		Trackers:  mi.UpvertedAnnounceList(),
	})
	return t, err
}

// MetainfoOverrides holds the comment/private/source overrides the
// orchestrator's add_torrent command applies before admission (spec §4.4).
type MetainfoOverrides struct {
	Comment     string
	Source      string
	PrivateFlag bool
	HasPrivate  bool
}

// ApplyMetainfoOverrides re-encodes a raw .torrent file with the requested
// comment/source/private overrides, editing the bencode dictionary directly
// rather than through metainfo.Info (whose Source/Private fields are
// preserved across anacrolix versions but not always round-trip safe for
// unknown extension keys). zeebo/bencode is used here — rather than
// anacrolix/torrent/bencode — because the orchestrator treats metainfo
// overrides as a generic structural edit, independent of the native engine.
func ApplyMetainfoOverrides(raw []byte, ov MetainfoOverrides) ([]byte, error) {
	var doc map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(raw, &doc); err != nil {
		return nil, err
	}

	if ov.Comment != "" {
		encoded, err := bencode.EncodeBytes(ov.Comment)
		if err != nil {
			return nil, err
		}
		doc["comment"] = encoded
	}

	var info map[string]bencode.RawMessage
	if infoRaw, ok := doc["info"]; ok {
		if err := bencode.DecodeBytes(infoRaw, &info); err != nil {
			return nil, err
		}
	} else {
		info = make(map[string]bencode.RawMessage)
	}

	if ov.Source != "" {
		encoded, err := bencode.EncodeBytes(ov.Source)
		if err != nil {
			return nil, err
		}
		info["source"] = encoded
	}
	if ov.HasPrivate {
		v := int64(0)
		if ov.PrivateFlag {
			v = 1
		}
		encoded, err := bencode.EncodeBytes(v)
		if err != nil {
			return nil, err
		}
		info["private"] = encoded
	}

	infoEncoded, err := bencode.EncodeBytes(info)
	if err != nil {
		return nil, err
	}
	doc["info"] = infoEncoded

	return bencode.EncodeBytes(doc)
}

// EncodeResumeBlob captures a minimal resume descriptor for a live torrent:
// its info hash and name. Save path, per-file priorities and piece-state
// bitfields are not recorded; piece state is reconstructed from disk by
// anacrolix's own hash-verify-on-load.
func EncodeResumeBlob(t *torrent.Torrent) []byte {
	type resumeDoc struct {
		InfoHash string `bencode:"info_hash"`
		Name     string `bencode:"name"`
	}
	doc := resumeDoc{InfoHash: t.InfoHash().HexString(), Name: t.Name()}
	b, err := bencode.EncodeBytes(doc)
	if err != nil {
		return nil
	}
	return b
}
