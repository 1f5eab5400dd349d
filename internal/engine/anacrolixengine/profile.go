package anacrolixengine

import (
	"context"
	"reflect"

	"golang.org/x/time/rate"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// ApplyProfile records a new EngineProfile on an already-constructed
// *torrent.Client. The global download/upload rates are set on the engine's
// own rate.Limiters, which are not connected to the client's ClientConfig,
// and the DHT node lists are deduplicated and stored only. Everything else
// (DHT, encryption, listen address, UTP, proxy) is baked into the client at
// construction and requires a process restart with a new ClientConfig to
// change — a change to any of those is rejected with KindUnsupported rather
// than silently dropped.
func (e *Engine) ApplyProfile(ctx context.Context, profile domain.EngineProfile) error {
	e.profileMu.Lock()
	defer e.profileMu.Unlock()

	profile.DHTBootstrapNodes = dedupHostPort(profile.DHTBootstrapNodes)
	profile.DHTRouterNodes = dedupHostPort(profile.DHTRouterNodes)

	if e.hasApplied && reflect.DeepEqual(e.applied.Fingerprint(), profile.Fingerprint()) {
		return nil // idempotent: identical settings, no-op (spec property 5)
	}

	if e.hasApplied && immutableFieldsChanged(e.applied, profile) {
		return domain.NewCommandError(domain.KindUnsupported,
			"changing DHT/encryption/listen/UTP/proxy requires restarting the native session")
	}

	if e.downLimiter == nil {
		e.downLimiter = rate.NewLimiter(rate.Inf, 0)
	}
	if e.upLimiter == nil {
		e.upLimiter = rate.NewLimiter(rate.Inf, 0)
	}
	setLimiterBps(e.downLimiter, profile.DownloadBps)
	setLimiterBps(e.upLimiter, profile.UploadBps)

	e.applied = profile
	e.hasApplied = true
	return nil
}

func setLimiterBps(l *rate.Limiter, bps int64) {
	if bps <= 0 {
		l.SetLimit(rate.Inf)
		l.SetBurst(0)
		return
	}
	l.SetLimit(rate.Limit(bps))
	l.SetBurst(int(bps))
}

func immutableFieldsChanged(prev, next domain.EngineProfile) bool {
	return prev.DHT != next.DHT ||
		prev.Encryption != next.Encryption ||
		prev.UTP != next.UTP ||
		prev.ProxyURL != next.ProxyURL ||
		prev.PortRangeLo != next.PortRangeLo ||
		prev.PortRangeHi != next.PortRangeHi ||
		!stringSliceEqual(prev.ListenAddrs, next.ListenAddrs)
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dedupHostPort removes case-insensitive host:port duplicates while
// preserving first-seen order (spec §4.4 "DHT node dedup case-insensitive").
func dedupHostPort(nodes []string) []string {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		key := lower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// PollAlerts drains the engine's internally buffered alert queue. Unlike
// libtorrent, anacrolix/torrent has no native alert/event queue; alerts are
// synthesized by handle-level callbacks (see Handle.RequestSaveResumeData)
// and by the per-tick status sweep the Alert Adapter runs against
// Handle.Snapshot, so this call is intentionally cheap and non-blocking.
func (e *Engine) PollAlerts(ctx context.Context) ([]ports.Alert, error) {
	e.alertsMu.Lock()
	defer e.alertsMu.Unlock()
	if len(e.alerts) == 0 {
		return nil, nil
	}
	out := e.alerts
	e.alerts = nil
	return out, nil
}
