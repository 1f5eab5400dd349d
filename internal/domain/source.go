package domain

import "strings"

// TorrentSource is the original admission payload: either a magnet URI or a
// raw bencoded metainfo (.torrent) byte string. Exactly one must be set.
type TorrentSource struct {
	Magnet   string
	Metainfo []byte
}

func (s TorrentSource) IsMagnet() bool {
	return strings.TrimSpace(s.Magnet) != ""
}

func (s TorrentSource) IsMetainfo() bool {
	return len(s.Metainfo) > 0
}

func (s TorrentSource) Valid() bool {
	return s.IsMagnet() != s.IsMetainfo() // exactly one
}
