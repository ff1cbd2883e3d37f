// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package main

import (
	"sync"
	"time"

	"github.com/photoloop/photoloop/internal/annotate"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/display"
	"github.com/photoloop/photoloop/internal/geocode"
	"github.com/photoloop/photoloop/internal/lifecycle"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/models"
	"github.com/photoloop/photoloop/internal/source"
)

// The engine's external collaborators live in separate processes (the UI
// renderer, the browser-driving album inspector, the ML face detector,
// the geocoding client). This file is the default headless wiring; a
// deployment links its real implementations by replacing these
// constructors.

// newRenderer returns the display backend. The headless renderer logs
// what would be shown and honors the dwell period, which keeps the
// orchestrator honest in development and in tests of the full wiring.
func newRenderer(cfg *config.Config) lifecycle.Renderer {
	return &headlessRenderer{dwell: cfg.Dwell()}
}

// newAlbumInspector returns the web-album inspector, or nil when none is
// available; remote sources then fail per cycle and local sources carry
// the frame.
func newAlbumInspector(_ *config.Config) source.RemoteAlbumInspector {
	return nil
}

// newFaceDetector returns the face detector, or nil to disable
// face-aware cropping.
func newFaceDetector(cfg *config.Config) annotate.FaceDetector {
	if !cfg.Faces.Enabled {
		return nil
	}
	return nil
}

// newCropAdvisors returns the saliency and aesthetic crop collaborators,
// either of which may be nil.
func newCropAdvisors(_ *config.Config) (display.SaliencyDetector, display.AestheticCropper) {
	return nil, nil
}

// newReverseGeocoder returns the geocoding provider, or nil to serve
// cached results only.
func newReverseGeocoder(_ *config.Config) geocode.ReverseGeocoder {
	return nil
}

// headlessRenderer is the no-display stand-in.
type headlessRenderer struct {
	dwell time.Duration

	mu       sync.Mutex
	lastShow time.Time
}

func (r *headlessRenderer) Show(entry models.Entry, params models.DisplayParams) error {
	r.mu.Lock()
	r.lastShow = time.Now()
	r.mu.Unlock()
	logging.Debug().
		Str("media_id", entry.MediaID).
		Str("path", entry.LocalPath).
		Float64("crop_x", params.Crop.X).
		Float64("crop_y", params.Crop.Y).
		Msg("would show")
	return nil
}

func (r *headlessRenderer) SetMode(mode string) error {
	logging.Debug().Str("mode", mode).Msg("would set display mode")
	return nil
}

func (r *headlessRenderer) IsTransitionComplete() bool { return true }

func (r *headlessRenderer) IsDwellElapsed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastShow) >= r.dwell
}

func (r *headlessRenderer) Resolution() (int, int)    { return 1920, 1080 }
func (r *headlessRenderer) NotifyEntryUpdated(string) {}
