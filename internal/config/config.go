// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package config holds all application configuration for PhotoLoop.
//
// Loading order (koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config file: optional YAML file (photoloop.yaml) for persistent settings
//  3. Environment variables: PHOTOLOOP_* overrides any setting
//
// Config is immutable after Load() and safe for concurrent reads. The
// settings that influence stored artifacts (acquisition, scaling, face
// policy) are summarized into fingerprints (see fingerprint.go); the
// catalog compares fingerprints on load to decide what cached state must
// be discarded.
package config

import (
	"time"
)

// Config is the root configuration document.
type Config struct {
	Cache       CacheConfig       `koanf:"cache"`
	Sources     []SourceConfig    `koanf:"sources"`
	Acquisition AcquisitionConfig `koanf:"acquisition"`
	Scaling     ScalingConfig     `koanf:"scaling"`
	Faces       FaceConfig        `koanf:"faces"`
	Animation   AnimationConfig   `koanf:"animation"`
	Playlist    PlaylistConfig    `koanf:"playlist"`
	Schedule    ScheduleConfig    `koanf:"schedule"`
	Sync        SyncConfig        `koanf:"sync"`
	Geocode     GeocodeConfig     `koanf:"geocode"`
	Overlay     OverlayConfig     `koanf:"overlay"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// CacheConfig controls the on-disk media cache.
type CacheConfig struct {
	// Dir is the cache directory; the catalog file, geocode cache and all
	// downloaded media live under it.
	Dir string `koanf:"dir" validate:"required"`

	// MaxBytes is the byte budget for downloaded media. When exceeded,
	// the oldest-seen entries are evicted after each sync.
	MaxBytes int64 `koanf:"max_bytes" validate:"gt=0"`
}

// SourceConfig describes one configured media source.
type SourceConfig struct {
	// Type selects the adapter: remote_album or local.
	Type string `koanf:"type" validate:"oneof=remote_album local"`

	// Name is the human label shown in the UI and stamped on entries as
	// album_source. Must be unique across sources.
	Name string `koanf:"name" validate:"required"`

	// URL is the public web-album URL (remote_album only).
	URL string `koanf:"url"`

	// Path is the directory to index (local only).
	Path string `koanf:"path"`

	Enabled bool `koanf:"enabled"`
}

// AcquisitionConfig controls how remote bytes are obtained. Changing any
// field invalidates every cached download.
type AcquisitionConfig struct {
	// MaxImageDimension caps the long edge of downloaded variants when
	// FullResolution is off.
	MaxImageDimension int `koanf:"max_image_dimension" validate:"gt=0"`

	// FullResolution downloads originals instead of size-capped variants.
	FullResolution bool `koanf:"full_resolution"`

	// HTTPTimeout is the per-request read timeout for downloads.
	HTTPTimeout time.Duration `koanf:"http_timeout"`
}

// ScalingConfig is the scaling-policy block: how a source image is cropped
// to the screen. Changing any field invalidates memoized display params.
type ScalingConfig struct {
	// Mode is one of fill, fit, balanced, stretch.
	Mode string `koanf:"mode" validate:"oneof=fill fit balanced stretch"`

	// MaxCropPercent bounds how much of the long axis balanced mode may
	// remove, in percent.
	MaxCropPercent float64 `koanf:"max_crop_percent" validate:"gte=0,lte=50"`

	// SmartCropMethod positions the crop: face, saliency or aesthetic.
	SmartCropMethod string `koanf:"smart_crop_method" validate:"oneof=face saliency aesthetic"`

	// FacePosition is the normalized y position within the crop targeted
	// for the upper-head line of detected faces.
	FacePosition float64 `koanf:"face_position" validate:"gte=0,lte=1"`

	// FallbackCrop positions the crop when no smart signal is available:
	// center, top or bottom.
	FallbackCrop string `koanf:"fallback_crop" validate:"oneof=center top bottom"`

	SaliencyThreshold float64 `koanf:"saliency_threshold" validate:"gte=0,lte=1"`
	SaliencyCoverage  float64 `koanf:"saliency_coverage" validate:"gte=0,lte=1"`

	// CropBias nudges the crop toward an edge: none, left, right, top,
	// bottom.
	CropBias string `koanf:"crop_bias" validate:"oneof=none left right top bottom"`
}

// FaceConfig controls face detection. Changing any field invalidates
// cached faces and memoized display params.
type FaceConfig struct {
	Enabled       bool    `koanf:"enabled"`
	MinConfidence float64 `koanf:"min_confidence" validate:"gte=0,lte=1"`
	Model         string  `koanf:"model"`
}

// AnimationConfig is the Ken-Burns policy block.
type AnimationConfig struct {
	Enabled bool `koanf:"enabled"`

	// ZoomMin/ZoomMax bound the start/end zoom; 1.0 means no zoom.
	ZoomMin float64 `koanf:"zoom_min" validate:"gte=1"`
	ZoomMax float64 `koanf:"zoom_max" validate:"gte=1"`

	// PanSpeed is the focal-point travel speed in normalized image
	// fraction per second; total pan = PanSpeed × dwell.
	PanSpeed float64 `koanf:"pan_speed" validate:"gte=0"`

	// Randomize picks random start/end instead of a fixed drift.
	Randomize bool `koanf:"randomize"`
}

// PlaylistConfig controls playlist construction and pacing.
type PlaylistConfig struct {
	// Order is one of random, alphabetical, chronological,
	// recency_weighted.
	Order string `koanf:"order" validate:"oneof=random alphabetical chronological recency_weighted"`

	VideosEnabled bool `koanf:"videos_enabled"`

	// RecencyCutoffYears and RecencyMinWeight shape recency_weighted
	// ordering: weight falls linearly from 1.0 at age zero to
	// RecencyMinWeight at age ≥ RecencyCutoffYears.
	RecencyCutoffYears float64 `koanf:"recency_cutoff_years" validate:"gt=0"`
	RecencyMinWeight   float64 `koanf:"recency_min_weight" validate:"gt=0,lte=1"`

	// DwellSeconds is how long each photo is held before advancing.
	DwellSeconds float64 `koanf:"dwell_seconds" validate:"gt=0"`
}

// EventConfig is one scheduled span within a day: [Start, End) with a
// display mode. End "24:00" means end of day.
type EventConfig struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
	Mode  string `koanf:"mode" validate:"oneof=slideshow clock black"`
}

// ScheduleConfig drives the schedule engine.
type ScheduleConfig struct {
	Enabled bool `koanf:"enabled"`

	Weekday []EventConfig `koanf:"weekday"`
	Weekend []EventConfig `koanf:"weekend"`

	// Dates maps a calendar day ("2006-01-02", or recurring "01-02") to
	// its own event list, overriding weekday/weekend selection.
	Dates map[string][]EventConfig `koanf:"dates"`

	// HolidayCountries lists ISO country codes whose public holidays are
	// treated per HolidaysUseWeekend.
	HolidayCountries []string `koanf:"holiday_countries"`

	// HolidaysUseWeekend applies the weekend event list on holidays.
	HolidaysUseWeekend bool `koanf:"holidays_use_weekend"`
}

// SyncConfig controls the background sync schedule.
type SyncConfig struct {
	IntervalMinutes int `koanf:"interval_minutes" validate:"gt=0"`

	// InitialSync runs one cycle shortly after startup.
	InitialSync  bool          `koanf:"initial_sync"`
	InitialDelay time.Duration `koanf:"initial_delay"`

	// AnchorTime ("HH:MM") anchors the first scheduled cycle to a
	// wall-clock time of day. Empty disables anchoring.
	AnchorTime string `koanf:"anchor_time"`
}

// GeocodeConfig controls reverse geocoding of photo GPS coordinates.
type GeocodeConfig struct {
	Enabled bool `koanf:"enabled"`

	// CacheFile is the geocode cache path. Empty derives
	// {cache.dir}/geocode.json.
	CacheFile string `koanf:"cache_file"`
}

// OverlayConfig selects which annotations the renderer overlays. The core
// only consults ShowLocation, to decide whether geocoding is worth doing.
type OverlayConfig struct {
	ShowCaption  bool `koanf:"show_caption"`
	ShowDate     bool `koanf:"show_date"`
	ShowLocation bool `koanf:"show_location"`
}

// MetricsConfig controls the Prometheus metrics listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EnabledSourceNames returns the names of all enabled sources.
func (c *Config) EnabledSourceNames() []string {
	var names []string
	for _, s := range c.Sources {
		if s.Enabled {
			names = append(names, s.Name)
		}
	}
	return names
}

// GeocodeCachePath returns the configured geocode cache file, deriving the
// default location under the cache dir when unset.
func (c *Config) GeocodeCachePath() string {
	if c.Geocode.CacheFile != "" {
		return c.Geocode.CacheFile
	}
	return c.Cache.Dir + "/geocode.json"
}

// CatalogPath returns the catalog file location under the cache dir.
func (c *Config) CatalogPath() string {
	return c.Cache.Dir + "/catalog.json"
}

// Dwell returns the configured dwell period as a duration.
func (c *Config) Dwell() time.Duration {
	return time.Duration(c.Playlist.DwellSeconds * float64(time.Second))
}
