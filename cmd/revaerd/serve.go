package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"revaer/internal/alertadapter"
	"revaer/internal/catalogue"
	"revaer/internal/configwatcher"
	"revaer/internal/domain/ports"
	"revaer/internal/engine/anacrolixengine"
	"revaer/internal/eventbus"
	"revaer/internal/fsops"
	"revaer/internal/orchestrator"
	"revaer/internal/reconcile"
	"revaer/internal/registry"
	"revaer/internal/resume"
)

func newServeCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the torrent-engine orchestration daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, loadProcessConfig(v))
		},
	}

	flags := cmd.Flags()
	flags.String("data-dir", "./data/torrents", "directory the native session stores piece data in")
	flags.String("resume-dir", "./data/resume", "directory the Resume Store persists fast-resume blobs in")
	flags.String("config-file", "./revaerd.yaml", "file the local EngineProfile/FsPolicy watcher reads and watches")
	flags.String("par2-binary", "par2", "par2 binary name or path; empty disables PAR2 verify/repair")
	flags.Int("workers", 4, "FsOps Pipeline worker pool size")
	flags.String("log-level", "info", "debug, info, warn, or error")
	flags.String("log-format", "console", "console or json")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("revaerd")
	v.AutomaticEnv()

	return cmd
}

func setupLogger(cfg processConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}

// runServe wires every collaborator described by SPEC_FULL.md's component
// table and runs until an interrupt/terminate signal arrives (spec §5
// "drains in-flight fsops to a safe point" on shutdown).
func runServe(ctx context.Context, cfg processConfig) error {
	setupLogger(cfg)

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := configwatcher.New(cfg.ConfigFile)
	snapshots, err := watcher.Subscribe(rootCtx)
	if err != nil {
		return err
	}

	var initial ports.ConfigSnapshot
	select {
	case initial = <-snapshots:
	case <-rootCtx.Done():
		return rootCtx.Err()
	}

	client, err := torrent.NewClient(buildClientConfig(cfg.DataDir, initial.Engine))
	if err != nil {
		log.Error().Err(err).Msg("revaerd: native client init failed")
		return err
	}

	reg := registry.New()
	alerts := alertadapter.New(reg)
	resumeStore, err := resume.New(cfg.ResumeDir)
	if err != nil {
		log.Error().Err(err).Msg("revaerd: resume store init failed")
		return err
	}
	catalog := catalogue.New()
	bus := eventbus.New()
	eng := anacrolixengine.New(client)

	orch := orchestrator.New(eng, reg, alerts, resumeStore, catalog, bus)

	var par2Runner fsops.Par2Runner
	if cfg.Par2Binary != "" {
		par2Runner = fsops.NewExecPar2Runner(cfg.Par2Binary)
	}
	pipeline := fsops.New(bus, par2Runner, cfg.Workers)
	orch.SetFsOps(pipeline)

	go orch.Run()

	if err := orch.ApplyEngineProfile(rootCtx, initial.Engine); err != nil {
		log.Warn().Err(err).Msg("revaerd: initial engine profile apply failed")
	}
	if err := orch.ApplyFsPolicy(rootCtx, initial.Fs); err != nil {
		log.Warn().Err(err).Msg("revaerd: initial fs policy apply failed")
	}

	reconciler := reconcile.New(orch, resumeStore, catalog, bus)
	result, err := reconciler.Run(rootCtx)
	if err != nil {
		log.Warn().Err(err).Msg("revaerd: reconciliation pass failed")
	} else {
		log.Info().
			Int("reinstated", len(result.Reinstated)).
			Int("quarantined", len(result.Quarantined)).
			Msg("revaerd: reconciliation complete")
	}

	go applyConfigSnapshots(rootCtx, orch, snapshots)

	log.Info().Str("dataDir", cfg.DataDir).Str("resumeDir", cfg.ResumeDir).Msg("revaerd: started")
	<-rootCtx.Done()
	log.Info().Msg("revaerd: shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("revaerd: orchestrator shutdown error")
	}
	pipeline.Wait()

	log.Info().Msg("revaerd: stopped")
	return nil
}

// applyConfigSnapshots is the §6.3 watcher loop: every snapshot after the
// first (already applied by runServe before admitting any torrents) is
// applied synchronously, in delivery order.
func applyConfigSnapshots(ctx context.Context, orch *orchestrator.Orchestrator, snapshots <-chan ports.ConfigSnapshot) {
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := orch.ApplyEngineProfile(ctx, snap.Engine); err != nil {
				log.Warn().Err(err).Uint64("revision", snap.Revision).Msg("revaerd: engine profile apply failed")
			}
			if err := orch.ApplyFsPolicy(ctx, snap.Fs); err != nil {
				log.Warn().Err(err).Uint64("revision", snap.Revision).Msg("revaerd: fs policy apply failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
