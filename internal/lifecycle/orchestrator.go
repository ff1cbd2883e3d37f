// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package lifecycle drives the frame at runtime: a tick loop that keeps
// the renderer in the scheduled display mode and advances the slideshow
// when the renderer is ready for the next photo. It also hosts the
// background sync scheduler. Both run as supervised services; a panic or
// error gets the service restarted with backoff rather than taking the
// process down.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/photoloop/photoloop/internal/annotate"
	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/display"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/playlist"
	"github.com/photoloop/photoloop/internal/schedule"
)

// tickInterval paces the orchestrator loop. Fast enough that mode
// changes and advance decisions feel immediate, slow enough to be free.
const tickInterval = 250 * time.Millisecond

// errPause is how long the loop backs off after a renderer error, so a
// wedged renderer does not spin the loop.
const errPause = 2 * time.Second

// Orchestrator owns the display tick loop.
type Orchestrator struct {
	store     *catalog.Store
	playlist  *playlist.Engine
	display   *display.Engine
	schedule  *schedule.Engine
	annotator *annotate.Annotator
	renderer  Renderer
	now       func() time.Time

	// hasSources reports whether any source is enabled; with none the
	// frame goes black regardless of schedule.
	hasSources func() bool

	mu       sync.Mutex
	paused   bool
	lastMode schedule.Mode
}

// NewOrchestrator wires the tick loop.
func NewOrchestrator(store *catalog.Store, pl *playlist.Engine, disp *display.Engine, sched *schedule.Engine, ann *annotate.Annotator, renderer Renderer, hasSources func() bool) *Orchestrator {
	return &Orchestrator{
		store:      store,
		playlist:   pl,
		display:    disp,
		schedule:   sched,
		annotator:  ann,
		renderer:   renderer,
		now:        time.Now,
		hasSources: hasSources,
	}
}

// String names the service in supervisor logs.
func (o *Orchestrator) String() string { return "display-orchestrator" }

// Serve runs the tick loop until the context is canceled. Renderer
// errors are logged and absorbed with a short pause; they never
// propagate, because a flaky renderer must not restart the engine.
func (o *Orchestrator) Serve(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.tick(ctx); err != nil {
				logging.Warn().Err(err).Msg("display tick failed")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(errPause):
				}
			}
		}
	}
}

// tick applies the scheduled mode and advances the slideshow if due.
func (o *Orchestrator) tick(ctx context.Context) error {
	mode := o.schedule.Mode(o.now())
	if !o.hasSources() {
		mode = schedule.ModeBlack
	}

	o.mu.Lock()
	modeChanged := mode != o.lastMode
	o.lastMode = mode
	paused := o.paused
	o.mu.Unlock()

	if modeChanged {
		logging.Info().Str("mode", string(mode)).Msg("display mode changed")
		if err := o.renderer.SetMode(string(mode)); err != nil {
			return err
		}
	}

	if mode != schedule.ModeSlideshow || paused {
		return nil
	}
	if !o.renderer.IsTransitionComplete() || !o.renderer.IsDwellElapsed() {
		return nil
	}
	return o.Advance(ctx)
}

// Advance shows the next playlist item. Exposed for the skip-forward
// control operation.
func (o *Orchestrator) Advance(ctx context.Context) error {
	return o.step(ctx, o.playlist.Next)
}

// Rewind shows the previous playlist item.
func (o *Orchestrator) Rewind(ctx context.Context) error {
	return o.step(ctx, o.playlist.Previous)
}

// step resolves and shows one item picked by the cursor move. A missing
// or stale entry is skipped silently; the playlist catches up at the
// next rebuild.
func (o *Orchestrator) step(ctx context.Context, move func() (string, bool)) error {
	id, ok := move()
	if !ok {
		return nil
	}
	entry, found := o.store.Get(id)
	if !found || !entry.IsActive() {
		logging.Debug().Str("media_id", id).Msg("playlist entry gone, skipping")
		return nil
	}

	// Display params are computed outside any catalog lock; the detector
	// and image decode can take a while.
	w, h := o.renderer.Resolution()
	params := o.display.Resolve(entry, w, h)

	o.annotator.RequestLocation(ctx, entry)
	return o.renderer.Show(entry, params)
}

// Pause stops automatic advancement; manual skips still work.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
}

// Resume restarts automatic advancement.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = false
}

// Paused reports whether automatic advancement is off.
func (o *Orchestrator) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}
