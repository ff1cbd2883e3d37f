// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package display

import "github.com/photoloop/photoloop/internal/models"

// cropSize returns the normalized crop dimensions (fractions of the image)
// for a scaling mode. Position is decided separately.
//
//   - fill: crop to the screen aspect exactly, whatever it costs.
//   - fit, stretch: full frame (letterboxing and distortion are the
//     renderer's business, not a crop).
//   - balanced: fill, but never remove more than maxCropPercent of the
//     long axis; the remaining mismatch letterboxes.
func cropSize(mode string, imgAspect, screenAspect, maxCropPercent float64) (cw, ch float64) {
	cw, ch = 1, 1
	if mode == "fit" || mode == "stretch" {
		return cw, ch
	}

	// Aspect-matching crop.
	if imgAspect > screenAspect {
		cw = screenAspect / imgAspect // image wider: trim the sides
	} else if imgAspect < screenAspect {
		ch = imgAspect / screenAspect // image taller: trim top/bottom
	}

	if mode == "balanced" {
		floor := 1 - maxCropPercent/100
		if cw < floor {
			cw = floor
		}
		if ch < floor {
			ch = floor
		}
	}
	return cw, ch
}

// positionFallback places the crop without any smart signal. The short
// axis follows the fallback setting; the other axis is centered.
func positionFallback(cw, ch float64, fallback string) models.Rect {
	x := (1 - cw) / 2
	var y float64
	switch fallback {
	case "top":
		y = 0
	case "bottom":
		y = 1 - ch
	default:
		y = (1 - ch) / 2
	}
	return models.Rect{X: x, Y: y, W: cw, H: ch}
}

// centerCropAt places a cw×ch crop centered on (cx,cy), clamped in-frame.
func centerCropAt(cw, ch, cx, cy float64) models.Rect {
	return models.Rect{
		X: clamp(cx-cw/2, 0, 1-cw),
		Y: clamp(cy-ch/2, 0, 1-ch),
		W: cw,
		H: ch,
	}
}

// applyBias nudges the crop toward the edge the user wants preserved.
// Face inclusion wins over the bias: the nudge stops where the face box
// would start getting clipped.
func applyBias(crop models.Rect, bias string, faceBox *models.Rect) models.Rect {
	if bias == "" || bias == "none" {
		return crop
	}

	switch bias {
	case "left":
		crop.X = 0
	case "right":
		crop.X = 1 - crop.W
	case "top":
		crop.Y = 0
	case "bottom":
		crop.Y = 1 - crop.H
	}

	if faceBox != nil {
		crop.X = clamp(crop.X, faceBox.X+faceBox.W-crop.W, faceBox.X)
		crop.Y = clamp(crop.Y, faceBox.Y+faceBox.H-crop.H, faceBox.Y)
	}
	crop.X = clamp(crop.X, 0, 1-crop.W)
	crop.Y = clamp(crop.Y, 0, 1-crop.H)
	return crop
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Degenerate range (face bigger than crop): split the difference.
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
