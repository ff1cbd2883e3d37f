// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"photoloop.yaml",
	"photoloop.yml",
	"/etc/photoloop/photoloop.yaml",
	"/etc/photoloop/photoloop.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "PHOTOLOOP_CONFIG"

// envPrefix is stripped from environment variables before mapping them
// onto config keys; PHOTOLOOP_SCALING__MODE becomes scaling.mode.
const envPrefix = "PHOTOLOOP_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:      "/var/lib/photoloop",
			MaxBytes: 10 << 30, // 10GB
		},
		Acquisition: AcquisitionConfig{
			MaxImageDimension: 3840,
			FullResolution:    false,
			HTTPTimeout:       60 * time.Second,
		},
		Scaling: ScalingConfig{
			Mode:              "balanced",
			MaxCropPercent:    20,
			SmartCropMethod:   "face",
			FacePosition:      0.25,
			FallbackCrop:      "center",
			SaliencyThreshold: 0.5,
			SaliencyCoverage:  0.8,
			CropBias:          "none",
		},
		Faces: FaceConfig{
			Enabled:       true,
			MinConfidence: 0.6,
			Model:         "default",
		},
		Animation: AnimationConfig{
			Enabled:   false,
			ZoomMin:   1.0,
			ZoomMax:   1.15,
			PanSpeed:  0.002,
			Randomize: true,
		},
		Playlist: PlaylistConfig{
			Order:              "random",
			VideosEnabled:      false,
			RecencyCutoffYears: 3,
			RecencyMinWeight:   0.2,
			DwellSeconds:       30,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Weekday: []EventConfig{{Start: "00:00", End: "24:00", Mode: "slideshow"}},
			Weekend: []EventConfig{{Start: "00:00", End: "24:00", Mode: "slideshow"}},
		},
		Sync: SyncConfig{
			IntervalMinutes: 360,
			InitialSync:     true,
			InitialDelay:    15 * time.Second,
		},
		Geocode: GeocodeConfig{
			Enabled: true,
		},
		Overlay: OverlayConfig{
			ShowCaption:  true,
			ShowDate:     true,
			ShowLocation: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9753",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it. The explicit path wins over
// PHOTOLOOP_CONFIG and the default search paths; pass "" for the normal
// search.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile := resolveConfigFile(path); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", cfgFile, err)
		}
	}

	// Double underscore separates nesting levels so single underscores
	// survive inside key names (max_image_dimension etc.).
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveConfigFile picks the config file to read, or "" for none.
func resolveConfigFile(path string) string {
	if path != "" {
		return path
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
