// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package playlist orders the active library for display and tracks the
// viewing cursor. The playlist is a snapshot of media IDs, rebuilt after
// every sync and on demand; between rebuilds it is stable so next/previous
// navigation is predictable.
package playlist

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
)

// SourceFilter supplies the enabled source names consulted at rebuild
// time, so toggling a source takes effect on the next Rebuild. A nil
// filter keeps every source.
type SourceFilter func() []string

// Engine holds the ordered playlist and its cursor.
type Engine struct {
	store *catalog.Store
	now   func() time.Time

	mu      sync.Mutex
	cfg     config.PlaylistConfig
	sources SourceFilter
	ids     []string
	idx     int
	rng     *rand.Rand
}

// NewEngine creates a playlist engine. The playlist is empty until the
// first Rebuild.
func NewEngine(store *catalog.Store, cfg config.PlaylistConfig) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetPolicy applies a reloaded ordering policy. Takes effect on the next
// Rebuild.
func (e *Engine) SetPolicy(cfg config.PlaylistConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// SetSourceFilter installs the enabled-source provider.
func (e *Engine) SetSourceFilter(f SourceFilter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = f
}

// Rebuild snapshots the active library into a fresh ordering and resets
// the cursor to the start. Only entries from currently-enabled sources
// are materialized; a disabled source's photos stay in the catalog but
// leave the rotation immediately.
func (e *Engine) Rebuild() {
	entries := e.store.AllActive()

	e.mu.Lock()
	defer e.mu.Unlock()

	var enabled map[string]bool
	if e.sources != nil {
		names := e.sources()
		enabled = make(map[string]bool, len(names))
		for _, n := range names {
			enabled[n] = true
		}
	}

	kept := entries[:0]
	for _, en := range entries {
		if enabled != nil && !enabled[en.AlbumSource] {
			continue
		}
		if en.MediaKind == models.KindVideo && !e.cfg.VideosEnabled {
			continue
		}
		kept = append(kept, en)
	}

	e.order(kept)
	e.ids = make([]string, len(kept))
	for i, en := range kept {
		e.ids[i] = en.MediaID
	}
	e.idx = 0

	metrics.PlaylistSize.Set(float64(len(e.ids)))
	metrics.PlaylistRebuilds.Inc()
	logging.Debug().Int("size", len(e.ids)).Str("order", e.cfg.Order).Msg("playlist rebuilt")
}

// order sorts entries in place per the configured policy.
func (e *Engine) order(entries []models.Entry) {
	switch e.cfg.Order {
	case "alphabetical":
		sort.SliceStable(entries, func(i, j int) bool {
			return displayName(&entries[i]) < displayName(&entries[j])
		})

	case "chronological":
		sort.SliceStable(entries, func(i, j int) bool {
			di, iok := entries[i].BestDate()
			dj, jok := entries[j].BestDate()
			switch {
			case iok && jok && !di.Equal(dj):
				return di.Before(dj)
			case iok != jok:
				return jok // undated entries first (empty date key sorts lowest)
			default:
				return entries[i].MediaID < entries[j].MediaID
			}
		})

	case "recency_weighted":
		e.weightedShuffle(entries)

	default: // random
		e.rng.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
	}
}

// weightedShuffle orders entries by the Efraimidis-Spirakis weighted
// sampling key, so recent photos tend to surface earlier without ever
// starving old ones. Weight falls linearly from 1.0 at age zero to the
// configured minimum at the cutoff age; undated and future-dated entries
// count as age zero.
func (e *Engine) weightedShuffle(entries []models.Entry) {
	now := e.now()
	keys := make([]float64, len(entries))
	for i := range entries {
		w := e.recencyWeight(&entries[i], now)
		keys[i] = math.Pow(e.rng.Float64(), 1/w)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return keys[i] > keys[j]
	})
}

func (e *Engine) recencyWeight(en *models.Entry, now time.Time) float64 {
	date, ok := en.BestDate()
	if !ok || date.After(now) {
		return 1
	}
	ageYears := now.Sub(date).Hours() / (24 * 365.25)
	w := 1 - (1-e.cfg.RecencyMinWeight)*(ageYears/e.cfg.RecencyCutoffYears)
	return math.Max(w, e.cfg.RecencyMinWeight)
}

// Next returns the media ID at the cursor and advances. A forward
// wraparound under random ordering reshuffles, so each pass through the
// library is a fresh permutation. ok is false on an empty playlist.
func (e *Engine) Next() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.ids)
	if n == 0 {
		return "", false
	}
	id := e.ids[e.idx]
	e.idx++
	if e.idx >= n {
		e.idx = 0
		if e.cfg.Order == "random" {
			e.rng.Shuffle(n, func(i, j int) {
				e.ids[i], e.ids[j] = e.ids[j], e.ids[i]
			})
		}
	}
	return id, true
}

// Previous steps the cursor back one shown item and returns it, leaving
// the cursor so the following Next repeats the photo after it. Wrapping
// backward never reshuffles; the tail of the current permutation is
// revisited as-is.
func (e *Engine) Previous() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.ids)
	if n == 0 {
		return "", false
	}
	// The cursor sits one past the item on screen; two back is the one
	// before it.
	e.idx = ((e.idx-2)%n + n) % n
	id := e.ids[e.idx]
	e.idx = (e.idx + 1) % n
	return id, true
}

// Len returns the playlist size.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ids)
}

// displayName is the case-folded basename used for alphabetical order.
func displayName(en *models.Entry) string {
	name := en.LocalPath
	if name == "" {
		name = en.URI
	}
	return strings.ToLower(filepath.Base(name))
}
