package main

import (
	"strings"

	"github.com/spf13/viper"
)

// processConfig is the process-level configuration loaded once at startup
// (spec §2 AMBIENT STACK "snapshot-free process configuration"). It is
// distinct from EngineProfile/FsPolicy, which only ever arrive through a
// ports.ConfigWatcher snapshot (spec §6.3).
type processConfig struct {
	DataDir    string // anacrolix/torrent's ClientConfig.DataDir
	ResumeDir  string // Resume Store (C5) root
	ConfigFile string // file FileWatcher (C-seam) watches for EngineProfile/FsPolicy
	Par2Binary string // resolved on PATH at startup; empty disables PAR2
	Workers    int    // FsOps Pipeline worker pool size
	LogLevel   string
	LogFormat  string // "console" or "json"
}

func loadProcessConfig(v *viper.Viper) processConfig {
	return processConfig{
		DataDir:    v.GetString("data-dir"),
		ResumeDir:  v.GetString("resume-dir"),
		ConfigFile: v.GetString("config-file"),
		Par2Binary: v.GetString("par2-binary"),
		Workers:    v.GetInt("workers"),
		LogLevel:   strings.ToLower(v.GetString("log-level")),
		LogFormat:  strings.ToLower(v.GetString("log-format")),
	}
}
