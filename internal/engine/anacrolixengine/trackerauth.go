package anacrolixengine

import (
	"net/url"
	"strings"

	"revaer/internal/domain"
)

// ApplyTrackerAuth injects HTTP basic-auth credentials into the userinfo
// component of every http(s) tracker URL, leaving the rest of the URL
// byte-for-byte unchanged (spec §4.4 tracker basic-auth). udp:// trackers
// have no HTTP auth concept and are passed through untouched.
func ApplyTrackerAuth(trackers []string, auth *domain.TrackerAuth) []string {
	if auth == nil || (auth.User == "" && auth.Pass == "") {
		return trackers
	}
	out := make([]string, len(trackers))
	for i, raw := range trackers {
		out[i] = injectAuth(raw, auth)
	}
	return out
}

func injectAuth(raw string, auth *domain.TrackerAuth) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = url.UserPassword(auth.User, auth.Pass)
	return u.String()
}
