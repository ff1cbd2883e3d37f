// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package models

// Rect is a normalized rectangle in [0,1]² image coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FullFrame is the identity crop covering the whole image.
func FullFrame() Rect {
	return Rect{X: 0, Y: 0, W: 1, H: 1}
}

// Animation holds Ken-Burns parameters: zoom levels and focal-point
// centers for the start and end of the dwell period. Zoom 1.0 means the
// crop is shown as-is.
type Animation struct {
	StartZoom float64 `json:"start_zoom"`
	EndZoom   float64 `json:"end_zoom"`
	StartCX   float64 `json:"start_cx"`
	StartCY   float64 `json:"start_cy"`
	EndCX     float64 `json:"end_cx"`
	EndCY     float64 `json:"end_cy"`
}

// DisplayParams is the memoized per-entry display computation: what part
// of the source image is shown at a given screen resolution, and how it
// moves. Valid only while the resolution matches and the catalog's
// scaling-policy fingerprint is unchanged (the catalog clears stale
// params at load time).
type DisplayParams struct {
	ScreenW   int        `json:"screen_w"`
	ScreenH   int        `json:"screen_h"`
	Crop      Rect       `json:"crop_region"`
	Animation *Animation `json:"animation,omitempty"`
}

// MatchesResolution reports whether the params were computed for the
// given screen size.
func (d *DisplayParams) MatchesResolution(w, h int) bool {
	return d != nil && d.ScreenW == w && d.ScreenH == h
}
