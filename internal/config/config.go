// Package config loads the receiver's runtime configuration. Grounded on
// the plain-JSON client preference file (client/internal/config/config.go)
// for the ambient "a config layer exists and is loaded once at startup"
// shape, but backed by knadh/koanf/v2 for the receiver proper since this
// config is operator-facing YAML, not a single desktop user's saved
// preferences — koanf is exactly the kind of parser-driven config loader
// several other packages in this codebase's lineage reach for.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"bken/receiver/internal/fec"
	"bken/receiver/internal/watchdog"
)

// ReceiverConfig is the full set of knobs a deployment can set, loaded from
// a YAML file at startup.
type ReceiverConfig struct {
	ListenSource string `koanf:"listen_source"`
	ListenRepair string `koanf:"listen_repair"`

	SampleRate   int `koanf:"sample_rate"`
	ChannelCount int `koanf:"channels"`

	FECSourceShards int           `koanf:"fec_source_shards"`
	FECRepairShards int           `koanf:"fec_repair_shards"`
	FECBlockMaxAge  time.Duration `koanf:"fec_block_max_age"`

	NoPlaybackTimeout     time.Duration `koanf:"no_playback_timeout"`
	BrokenPlaybackTimeout time.Duration `koanf:"broken_playback_timeout"`
	TargetLatency         time.Duration `koanf:"target_latency"`
	SafetyBand            time.Duration `koanf:"safety_band"`

	LogLevel string `koanf:"log_level"`
}

// Default returns the configuration used when no file is supplied.
func Default() ReceiverConfig {
	wd := watchdog.DefaultConfig()
	return ReceiverConfig{
		ListenSource:          ":10001",
		ListenRepair:          ":10002",
		SampleRate:            48000,
		ChannelCount:          2,
		FECSourceShards:       20,
		FECRepairShards:       10,
		FECBlockMaxAge:        2 * time.Second,
		NoPlaybackTimeout:     wd.NoPlaybackTimeout,
		BrokenPlaybackTimeout: wd.BrokenPlaybackTimeout,
		TargetLatency:         wd.TargetLatency,
		SafetyBand:            wd.SafetyBand,
		LogLevel:              "info",
	}
}

// Load reads path (YAML) over Default(), returning the merged result. A
// missing file is not an error — Default() alone is a complete,
// deployable configuration.
func Load(path string) (ReceiverConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FECScheme derives the fec.Scheme this config implies.
func (c ReceiverConfig) FECScheme() fec.Scheme {
	return fec.Scheme{N: c.FECSourceShards, K: c.FECRepairShards}
}

// WatchdogConfig derives the watchdog.Config this config implies.
func (c ReceiverConfig) WatchdogConfig() watchdog.Config {
	wd := watchdog.DefaultConfig()
	wd.NoPlaybackTimeout = c.NoPlaybackTimeout
	wd.BrokenPlaybackTimeout = c.BrokenPlaybackTimeout
	wd.TargetLatency = c.TargetLatency
	wd.SafetyBand = c.SafetyBand
	return wd
}
