// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err, "explicit missing file should fail")

	cfg, err = Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "balanced", cfg.Scaling.Mode)
	assert.Equal(t, float64(20), cfg.Scaling.MaxCropPercent)
	assert.Equal(t, "random", cfg.Playlist.Order)
	assert.Equal(t, 360, cfg.Sync.IntervalMinutes)
	assert.Equal(t, int64(10<<30), cfg.Cache.MaxBytes)
	assert.InDelta(t, 30.0, cfg.Playlist.DwellSeconds, 0.001)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
cache:
  dir: /tmp/photoloop-test
scaling:
  mode: fill
  smart_crop_method: saliency
playlist:
  order: chronological
  dwell_seconds: 12.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fill", cfg.Scaling.Mode)
	assert.Equal(t, "saliency", cfg.Scaling.SmartCropMethod)
	assert.Equal(t, "chronological", cfg.Playlist.Order)
	assert.InDelta(t, 12.5, cfg.Playlist.DwellSeconds, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("PHOTOLOOP_SCALING__MODE", "fit")
	t.Setenv("PHOTOLOOP_CACHE__MAX_BYTES", "1048576")

	cfg, err := Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\nscaling:\n  mode: fill\n"))
	require.NoError(t, err)

	assert.Equal(t, "fit", cfg.Scaling.Mode)
	assert.Equal(t, int64(1048576), cfg.Cache.MaxBytes)
}

func TestValidateSources(t *testing.T) {
	tests := []struct {
		name    string
		sources string
		wantErr string
	}{
		{
			name: "duplicate names",
			sources: `
sources:
  - {type: local, name: Album, path: /photos, enabled: true}
  - {type: local, name: Album, path: /other, enabled: true}
`,
			wantErr: "duplicate source name",
		},
		{
			name: "remote without url",
			sources: `
sources:
  - {type: remote_album, name: Cloud, enabled: true}
`,
			wantErr: "url is required",
		},
		{
			name: "local without path",
			sources: `
sources:
  - {type: local, name: Disk, enabled: true}
`,
			wantErr: "path is required",
		},
		{
			name: "valid pair",
			sources: `
sources:
  - {type: local, name: Disk, path: /photos, enabled: true}
  - {type: remote_album, name: Cloud, url: "https://example.com/album", enabled: true}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\n"+tt.sources))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  string
	}{
		{
			name: "full day is valid",
			schedule: `
schedule:
  enabled: true
  weekday:
    - {start: "00:00", end: "08:00", mode: black}
    - {start: "08:00", end: "22:00", mode: slideshow}
    - {start: "22:00", end: "24:00", mode: clock}
  weekend:
    - {start: "00:00", end: "24:00", mode: slideshow}
`,
		},
		{
			name: "gap rejected",
			schedule: `
schedule:
  enabled: true
  weekday:
    - {start: "00:00", end: "08:00", mode: black}
    - {start: "09:00", end: "24:00", mode: slideshow}
  weekend:
    - {start: "00:00", end: "24:00", mode: slideshow}
`,
			wantErr: "gap or overlap",
		},
		{
			name: "day must end at 24:00",
			schedule: `
schedule:
  enabled: true
  weekday:
    - {start: "00:00", end: "23:00", mode: slideshow}
  weekend:
    - {start: "00:00", end: "24:00", mode: slideshow}
`,
			wantErr: "end at 24:00",
		},
		{
			name: "unsupported holiday country",
			schedule: `
schedule:
  enabled: false
  holiday_countries: [XX]
`,
			wantErr: "unsupported holiday country",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\n"+tt.schedule))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in       string
		allowEOD bool
		want     int
		wantErr  bool
	}{
		{"00:00", false, 0, false},
		{"07:30", false, 450, false},
		{"23:59", false, 1439, false},
		{"24:00", true, 1440, false},
		{"24:00", false, 0, true},
		{"24:01", true, 0, true},
		{"7:30", false, 450, false},
		{"noon", false, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in, tt.allowEOD)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFingerprintReactsToSettings(t *testing.T) {
	base, err := Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\n"))
	require.NoError(t, err)

	other, err := Load(writeConfig(t, "cache:\n  dir: /tmp/photoloop-test\nscaling:\n  mode: fill\n"))
	require.NoError(t, err)

	fp, fp2 := base.Fingerprint(), other.Fingerprint()
	assert.Equal(t, fp.Acquisition, fp2.Acquisition)
	assert.Equal(t, fp.Faces, fp2.Faces)
	assert.NotEqual(t, fp.Scaling, fp2.Scaling)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photoloop.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
