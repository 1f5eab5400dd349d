// Package configwatcher implements a local, file-backed ports.ConfigWatcher
// for standalone operation of cmd/revaerd (spec §6.3 names the collaborator
// as the out-of-scope Postgres-backed config store; this is the thin seam
// substitute a single process needs to exercise the same contract).
// Grounded on the viper file-watch idiom jpillora/cloud-torrent's
// viperConf uses (SetConfigFile + ReadInConfig), generalized here to also
// call viper.WatchConfig so a rewritten file produces a new
// ports.ConfigSnapshot without a process restart.
package configwatcher

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"revaer/internal/domain"
	"revaer/internal/domain/ports"
)

// FileWatcher reads engine/fs_policy/app settings from a single YAML file
// and re-reads it on write, incrementing Revision each time (spec §6.3
// "Revision" on ConfigSnapshot).
type FileWatcher struct {
	path string
	v    *viper.Viper
}

// New builds a FileWatcher over path. The file need not exist yet; an
// absent file yields a snapshot of the defaults set below on the first
// Subscribe read,
// matching spec's "no config store" startup case.
//
// Keys under the engine/fs sections are matched case-insensitively against
// domain.EngineProfile/domain.FsPolicy field names with no separator (e.g.
// "StatsIntervalMS" or "statsintervalms", never "stats_interval_ms") since
// that is how mapstructure's default decoder (no struct tags involved)
// resolves a YAML key to a Go field.
func New(path string) *FileWatcher {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("engine.statsintervalms", 100)
	v.SetDefault("engine.storagemode", "sparse")
	v.SetDefault("fs.movemode", "copy")
	v.SetDefault("fs.par2", "off")
	return &FileWatcher{path: path, v: v}
}

// Subscribe implements ports.ConfigWatcher. It emits one snapshot
// immediately (the current file contents, or defaults if unreadable), then
// one more each time the file is rewritten, until ctx is canceled.
func (w *FileWatcher) Subscribe(ctx context.Context) (<-chan ports.ConfigSnapshot, error) {
	if err := w.v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("configwatcher: no config file yet, starting from defaults")
	}

	out := make(chan ports.ConfigSnapshot, 1)
	var revision uint64

	emit := func() {
		revision++
		snap, err := w.decode(revision)
		if err != nil {
			log.Warn().Err(err).Msg("configwatcher: decode failed, keeping previous snapshot")
			return
		}
		select {
		case out <- snap:
		case <-ctx.Done():
		}
	}

	emit()

	w.v.OnConfigChange(func(_ fsnotify.Event) { emit() })
	w.v.WatchConfig()

	go func() {
		<-ctx.Done()
		close(out)
	}()

	return out, nil
}

// decode reads the currently loaded viper values into a ConfigSnapshot.
func (w *FileWatcher) decode(revision uint64) (ports.ConfigSnapshot, error) {
	var engine domain.EngineProfile
	if err := w.v.UnmarshalKey("engine", &engine); err != nil {
		return ports.ConfigSnapshot{}, fmt.Errorf("decode engine profile: %w", err)
	}
	engine.Revision = revision

	var fs domain.FsPolicy
	if err := w.v.UnmarshalKey("fs", &fs); err != nil {
		return ports.ConfigSnapshot{}, fmt.Errorf("decode fs policy: %w", err)
	}
	fs.Revision = revision

	app := ports.AppProfile{
		Mode:        w.v.GetString("app.mode"),
		TelemetryOn: w.v.GetBool("app.telemetryon"),
	}

	return ports.ConfigSnapshot{Revision: revision, Engine: engine, Fs: fs, App: app}, nil
}
