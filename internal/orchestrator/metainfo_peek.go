package orchestrator

import (
	"bytes"

	"github.com/anacrolix/torrent/metainfo"
)

// metainfoPeek extracts the announce-list and private flag embedded in a
// raw .torrent file so add_torrent can compute the effective tracker set
// and private flag before admission (spec §4.4, §8 invariant 2).
func metainfoPeek(raw []byte) (trackers []string, private bool, hasPrivate bool, err error) {
	mi, err := metainfo.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, false, false, err
	}
	for _, tier := range mi.UpvertedAnnounceList() {
		trackers = append(trackers, tier...)
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return trackers, false, false, err
	}
	if info.Private != nil {
		return trackers, *info.Private, true, nil
	}
	return trackers, false, false, nil
}
