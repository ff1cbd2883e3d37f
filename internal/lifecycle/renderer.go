// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package lifecycle

import "github.com/photoloop/photoloop/internal/models"

// Renderer is the display-process contract. The engine decides what to
// show and when; the renderer owns pixels, transitions and dwell timing.
// Implementations live outside this module (the frame's UI process); a
// test double is enough to drive the orchestrator.
type Renderer interface {
	// Show presents an entry with its display parameters. The renderer
	// starts its transition; completion is polled.
	Show(entry models.Entry, params models.DisplayParams) error

	// SetMode switches the top-level display surface: "slideshow",
	// "clock" or "black".
	SetMode(mode string) error

	// IsTransitionComplete reports whether the last Show finished
	// transitioning.
	IsTransitionComplete() bool

	// IsDwellElapsed reports whether the current photo has been on screen
	// for its dwell period.
	IsDwellElapsed() bool

	// Resolution returns the output resolution display params are
	// computed for.
	Resolution() (w, h int)

	// NotifyEntryUpdated tells the renderer the on-screen entry gained
	// annotation data worth redrawing (a geocoded location, typically).
	NotifyEntryUpdated(mediaID string)
}
