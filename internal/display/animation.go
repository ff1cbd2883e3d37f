// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package display

import (
	"math"

	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/models"
)

// panMargin keeps the animated view strictly inside the frame so renderer
// rounding never exposes an edge.
const panMargin = 0.005

// deriveAnimation produces Ken-Burns parameters for a crop: start/end
// zoom inside [ZoomMin, ZoomMax] and a pan whose length is
// PanSpeed × dwell, constrained so the visible view stays within the
// image at every moment of the sweep.
func (e *Engine) deriveAnimation(crop models.Rect, cfg config.AnimationConfig, dwell float64) *models.Animation {
	zoomMin := math.Max(cfg.ZoomMin, 1)
	zoomMax := math.Max(cfg.ZoomMax, zoomMin)

	e.mu.Lock()
	var startZoom, endZoom, angle float64
	if cfg.Randomize {
		startZoom = zoomMin + e.rng.Float64()*(zoomMax-zoomMin)
		endZoom = zoomMin + e.rng.Float64()*(zoomMax-zoomMin)
		angle = e.rng.Float64() * 2 * math.Pi
	} else {
		// Fixed drift: slow zoom in, panning down-right.
		startZoom, endZoom = zoomMin, zoomMax
		angle = math.Pi / 4
	}
	e.mu.Unlock()

	dist := cfg.PanSpeed * dwell
	cx := crop.X + crop.W/2
	cy := crop.Y + crop.H/2

	a := &models.Animation{
		StartZoom: startZoom,
		EndZoom:   endZoom,
		StartCX:   cx - math.Cos(angle)*dist/2,
		StartCY:   cy - math.Sin(angle)*dist/2,
		EndCX:     cx + math.Cos(angle)*dist/2,
		EndCY:     cy + math.Sin(angle)*dist/2,
	}
	constrainAnimation(a, crop)
	return a
}

// constrainAnimation clamps both focal points so the visible view (the
// crop scaled by 1/zoom around the focal point) never leaves the crop
// region. Zoom is monotonic between the endpoints, so clamping the
// endpoints at their own zoom levels covers the whole sweep.
func constrainAnimation(a *models.Animation, crop models.Rect) {
	a.StartCX, a.StartCY = clampFocal(a.StartCX, a.StartCY, a.StartZoom, crop)
	a.EndCX, a.EndCY = clampFocal(a.EndCX, a.EndCY, a.EndZoom, crop)
}

// clampFocal keeps a focal point far enough from the crop edges that the
// zoomed view fits.
func clampFocal(cx, cy, zoom float64, crop models.Rect) (float64, float64) {
	if zoom < 1 {
		zoom = 1
	}
	halfW := crop.W / (2 * zoom)
	halfH := crop.H / (2 * zoom)
	cx = clamp(cx, crop.X+halfW+panMargin, crop.X+crop.W-halfW-panMargin)
	cy = clamp(cy, crop.Y+halfH+panMargin, crop.Y+crop.H-halfH-panMargin)
	return cx, cy
}
