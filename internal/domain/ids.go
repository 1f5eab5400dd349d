package domain

import "strings"

// TorrentID is a caller-chosen, stable identifier (typically a UUIDv4). It is
// distinct from the BitTorrent info-hash, which is recorded but never used as
// a primary key.
type TorrentID string

func (id TorrentID) String() string { return string(id) }

// InfoHash is the 20-byte (40 hex char) BitTorrent protocol identifier
// derived from the info dictionary. Populated once metadata is known.
type InfoHash string

func (h InfoHash) String() string { return string(h) }

// Valid reports whether id is non-empty once surrounding whitespace is
// trimmed.
// The orchestrator does not enforce UUID shape on callers; it only rejects
// the degenerate empty case.
func (id TorrentID) Valid() bool {
	return strings.TrimSpace(string(id)) != ""
}
