// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package syncer

import (
	"errors"
	"os"
	"sort"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
)

// Enforcer keeps the downloaded-media footprint under the configured
// byte budget. Only remote downloads are ever evicted; indexed local
// originals are off limits. Eviction destroys the file and the catalog
// record together, so an evicted item that reappears in a later
// inventory is simply re-acquired as new.
type Enforcer struct {
	store    *catalog.Store
	maxBytes int64
}

// NewEnforcer creates an enforcer with the given byte budget.
func NewEnforcer(store *catalog.Store, maxBytes int64) *Enforcer {
	return &Enforcer{store: store, maxBytes: maxBytes}
}

// Enforce evicts least-recently-seen remote entries until the cache fits
// the budget, returning how many were evicted. Runs at the end of every
// sync cycle.
func (e *Enforcer) Enforce() int {
	type candidate struct {
		entry models.Entry
		size  int64
	}

	var total int64
	var candidates []candidate
	for _, en := range e.store.AllActive() {
		if en.SourceType != models.SourceRemoteAlbum {
			continue
		}
		info, err := os.Stat(en.LocalPath)
		if err != nil {
			continue
		}
		total += info.Size()
		candidates = append(candidates, candidate{entry: en, size: info.Size()})
	}

	metrics.CacheBytes.Set(float64(total))
	if e.maxBytes <= 0 || total <= e.maxBytes {
		return 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].entry.LastSeen.Before(candidates[j].entry.LastSeen)
	})

	evicted := 0
	for _, c := range candidates {
		if total <= e.maxBytes {
			break
		}
		if err := os.Remove(c.entry.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn().Str("path", c.entry.LocalPath).Err(err).Msg("failed to evict cached file")
			continue
		}
		if err := e.store.Delete(c.entry.MediaID); err != nil {
			logging.Warn().Str("media_id", c.entry.MediaID).Err(err).Msg("failed to delete evicted record")
		}
		total -= c.size
		evicted++
		metrics.ItemsEvicted.Inc()
	}

	if evicted > 0 {
		metrics.CacheBytes.Set(float64(total))
		logging.Info().Int("evicted", evicted).Int64("bytes", total).Msg("cache size enforced")
	}
	return evicted
}
