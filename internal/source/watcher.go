// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package source

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/photoloop/photoloop/internal/logging"
)

// Watcher observes the roots of local sources and flags when their
// contents change between syncs. It is a hint, not a trigger: the sync
// scheduler consults Dirty() to pull the next cycle forward, and nothing
// breaks if events are missed (the periodic sync still reconciles).
type Watcher struct {
	mu    sync.Mutex
	dirty bool

	roots []string
}

// NewWatcher creates a watcher for the given local source roots.
func NewWatcher(roots []string) *Watcher {
	return &Watcher{roots: roots}
}

// Serve runs the watch loop until the context is canceled. Implements
// suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	if len(w.roots) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			logging.Debug().Err(err).Msg("close fsnotify watcher")
		}
	}()

	for _, root := range w.roots {
		if err := fsw.Add(root); err != nil {
			// Missing roots behave like the local adapter: warn, move on.
			logging.Warn().Str("path", root).Err(err).Msg("cannot watch source root")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				logging.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("local source changed")
				w.markDirty()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *Watcher) String() string { return "source-watcher" }

// Dirty reports and clears the change flag.
func (w *Watcher) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.dirty
	w.dirty = false
	return d
}

func (w *Watcher) markDirty() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = true
}
