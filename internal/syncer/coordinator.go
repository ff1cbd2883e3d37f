// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package syncer runs sync cycles: it walks every enabled source's
// inventory, acquires new items, refreshes changed ones, fetches
// late-bound remote metadata, tombstones disappeared items behind a
// deletion safety gate, enforces the cache byte budget and rebuilds the
// playlist. One cycle runs at a time; a second request while one is in
// flight fails fast with ErrSyncBusy.
package syncer

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/ingest"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
	"github.com/photoloop/photoloop/internal/playlist"
	"github.com/photoloop/photoloop/internal/source"
)

// ErrSyncBusy is returned when a cycle is already running.
var ErrSyncBusy = errors.New("sync already in progress")

// persistEvery is how many deferred catalog writes accumulate before a
// flush during the acquisition and metadata phases.
const persistEvery = 10

// Flags tune one sync cycle. The zero value is a normal incremental sync.
type Flags struct {
	// ForceFull refetches metadata for every remote item and bypasses the
	// deletion safety gate. The recovery path when the gate has wedged a
	// genuinely-shrunk library.
	ForceFull bool

	// ForceRefetchAllMetadata refetches remote metadata for every item,
	// including ones already fetched.
	ForceRefetchAllMetadata bool

	// UpdateAllMissingMetadata fetches metadata for every item that never
	// had a successful fetch, not just this cycle's new ones.
	UpdateAllMissingMetadata bool
}

// AdapterProvider supplies the current adapter set at cycle start, so
// runtime source changes take effect on the next cycle.
type AdapterProvider func() []source.Adapter

// Coordinator orchestrates sync cycles.
type Coordinator struct {
	store    *catalog.Store
	acquirer *ingest.Acquirer
	playlist *playlist.Engine
	enforcer *Enforcer
	adapters AdapterProvider
	now      func() time.Time

	running atomic.Bool
}

// NewCoordinator wires a coordinator.
func NewCoordinator(store *catalog.Store, acquirer *ingest.Acquirer, pl *playlist.Engine, enforcer *Enforcer, adapters AdapterProvider) *Coordinator {
	return &Coordinator{
		store:    store,
		acquirer: acquirer,
		playlist: pl,
		enforcer: enforcer,
		adapters: adapters,
		now:      time.Now,
	}
}

// Running reports whether a cycle is in flight.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Sync runs one full cycle. Returns ErrSyncBusy immediately if a cycle
// is already running. Per-source failures do not abort the cycle; they
// are joined into the returned error alongside the stats.
func (c *Coordinator) Sync(ctx context.Context, flags Flags) (models.SyncStats, error) {
	if !c.running.CompareAndSwap(false, true) {
		return models.SyncStats{}, ErrSyncBusy
	}
	defer c.running.Store(false)

	cycleID := uuid.NewString()
	started := c.now()
	adapters := c.adapters()
	log := logging.With().Str("cycle_id", cycleID).Logger()
	log.Info().Int("sources", len(adapters)).Msg("sync cycle started")

	c.store.UpdateProgress(func(p *models.SyncProgress) {
		*p = models.SyncProgress{
			IsSyncing:    true,
			Stage:        models.StageScraping,
			CycleID:      cycleID,
			SourcesTotal: len(adapters),
			StartedAt:    started,
		}
	})

	// The deletion gate compares against entries belonging to this
	// cycle's sources only; a disabled source's entries are not at risk
	// and must not inflate the baseline.
	inCycle := make(map[string]bool, len(adapters))
	for _, ad := range adapters {
		inCycle[ad.Name()] = true
	}
	priorActive := 0
	for _, e := range c.store.AllActive() {
		if inCycle[e.AlbumSource] {
			priorActive++
		}
	}

	var stats models.SyncStats
	var errs []error
	seen := make(map[string]bool)
	newThisCycle := make(map[string]bool)
	successful := make(map[string]bool, len(adapters))
	itemsFound := 0

	for _, ad := range adapters {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		found, err := c.syncSource(ctx, ad, seen, newThisCycle, flags, &stats)
		if err != nil {
			metrics.SourceErrors.WithLabelValues(ad.Name()).Inc()
			stats.Errors++
			errs = append(errs, err)
			log.Warn().Str("source", ad.Name()).Err(err).Msg("source failed this cycle")
		} else {
			successful[ad.Name()] = true
			itemsFound += found
			if err := c.store.RecordSourceSync(ad.Name(), c.now()); err != nil {
				log.Warn().Str("source", ad.Name()).Err(err).Msg("failed to record source sync time")
			}
		}
		c.store.UpdateProgress(func(p *models.SyncProgress) {
			p.SourcesDone++
			p.ItemsFound = itemsFound
		})
	}

	c.fetchMetadata(ctx, adapters, successful, newThisCycle, flags, &stats)

	c.tombstoneMissing(seen, successful, itemsFound, priorActive, flags, &stats)

	c.enforcer.Enforce()
	c.playlist.Rebuild()

	joined := errors.Join(errs...)
	completed := c.now()
	c.store.UpdateProgress(func(p *models.SyncProgress) {
		p.IsSyncing = false
		p.CompletedAt = completed
		p.SourceName = ""
		if joined != nil {
			p.Stage = models.StageError
			p.ErrorMessage = joined.Error()
		} else {
			p.Stage = models.StageComplete
		}
	})

	result := "ok"
	switch {
	case joined != nil && len(successful) == 0:
		result = "error"
	case joined != nil:
		result = "partial"
	}
	metrics.SyncCycles.WithLabelValues(result).Inc()
	metrics.SyncDuration.Observe(completed.Sub(started).Seconds())

	log.Info().
		Int("new", stats.New).
		Int("updated", stats.Updated).
		Int("deleted", stats.Deleted).
		Int("unchanged", stats.Unchanged).
		Int("errors", stats.Errors).
		Int("metadata_updated", stats.MetadataUpdated).
		Str("result", result).
		Msg("sync cycle finished")
	return stats, joined
}

// syncSource inventories one source and reconciles each reported item
// against the catalog. Returns how many items the source reported.
func (c *Coordinator) syncSource(ctx context.Context, ad source.Adapter, seen, newThisCycle map[string]bool, flags Flags, stats *models.SyncStats) (int, error) {
	c.store.UpdateProgress(func(p *models.SyncProgress) {
		p.Stage = models.StageScraping
		p.SourceName = ad.Name()
	})

	items, err := ad.Inventory(ctx, func(stage string, current, total int) {
		c.store.UpdateProgress(func(p *models.SyncProgress) {
			p.ItemsFound = current
		})
	})
	if err != nil {
		return 0, err
	}

	c.store.UpdateProgress(func(p *models.SyncProgress) {
		p.Stage = models.StageDownloading
		p.AcquiredDone = 0
		p.AcquiredTotal = len(items)
	})

	pending := 0
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			_ = c.store.Flush()
			return 0, err
		}
		id := models.MediaIDFor(item.URI)
		seen[id] = true
		c.reconcileItem(ctx, item, id, newThisCycle, flags.ForceFull, stats)

		pending++
		if pending >= persistEvery {
			if err := c.store.Flush(); err != nil {
				logging.Warn().Err(err).Msg("failed to flush catalog mid-sync")
			}
			pending = 0
		}
		c.store.UpdateProgress(func(p *models.SyncProgress) {
			p.AcquiredDone = i + 1
		})
	}
	if err := c.store.Flush(); err != nil {
		logging.Warn().Err(err).Msg("failed to flush catalog after source")
	}
	return len(items), nil
}

// reconcileItem brings one inventory item up to date in the catalog.
// With force set, known items are re-acquired unconditionally instead
// of only when the file changed or vanished.
func (c *Coordinator) reconcileItem(ctx context.Context, item source.Item, id string, newThisCycle map[string]bool, force bool, stats *models.SyncStats) {
	now := c.now()
	existing, ok := c.store.Get(id)
	if !ok {
		entry, err := c.acquirer.Acquire(ctx, item)
		if err != nil {
			metrics.ItemsAcquired.WithLabelValues("error").Inc()
			stats.Errors++
			logging.Warn().Str("uri", item.URI).Err(err).Msg("failed to acquire item")
			return
		}
		c.store.PutDeferred(entry)
		newThisCycle[id] = true
		metrics.ItemsAcquired.WithLabelValues("new").Inc()
		stats.New++
		return
	}

	// Known item: refresh what changed, resurrect tombstones.
	updated := false
	if existing.Deleted {
		existing.Deleted = false
		updated = true
	}

	switch existing.SourceType {
	case models.SourceLocal:
		if info, err := os.Stat(existing.LocalPath); err != nil {
			// Original vanished between walk and stat; the tombstone pass
			// will catch it next cycle.
			logging.Debug().Str("path", existing.LocalPath).Err(err).Msg("local file unreadable during sync")
		} else if force || existing.FileMtime == nil || !info.ModTime().Equal(*existing.FileMtime) {
			if err := c.acquirer.Reindex(&existing); err != nil {
				stats.Errors++
				logging.Warn().Str("uri", existing.URI).Err(err).Msg("failed to reindex changed file")
				return
			}
			updated = true
		}

	case models.SourceRemoteAlbum:
		if _, statErr := os.Stat(existing.LocalPath); force || statErr != nil {
			// Cached bytes are gone (manual cleanup, disk swap) or a full
			// sync was requested: re-download.
			fresh, err := c.acquirer.Acquire(ctx, item)
			if err != nil {
				metrics.ItemsAcquired.WithLabelValues("error").Inc()
				stats.Errors++
				logging.Warn().Str("uri", item.URI).Err(err).Msg("failed to re-acquire item")
				return
			}
			// Keep the original record's history and metadata.
			existing.LocalPath = fresh.LocalPath
			existing.ContentHash = fresh.ContentHash
			existing.CachedFaces = nil
			existing.DisplayParams = nil
			updated = true
		}
	}

	existing.LastSeen = now
	existing.AlbumSource = item.AlbumLabel
	c.store.PutDeferred(existing)
	if updated {
		metrics.ItemsAcquired.WithLabelValues("updated").Inc()
		stats.Updated++
	} else {
		stats.Unchanged++
	}
}

// fetchMetadata runs the late-bound metadata phase for every source that
// succeeded this cycle. Selection depends on the flags: new items only by
// default, all never-fetched items, or everything. Videos are skipped;
// the remote metadata endpoints only describe photos.
func (c *Coordinator) fetchMetadata(ctx context.Context, adapters []source.Adapter, successful map[string]bool, newThisCycle map[string]bool, flags Flags, stats *models.SyncStats) {
	c.store.UpdateProgress(func(p *models.SyncProgress) {
		p.Stage = models.StageFetchingMetadata
	})

	refetchAll := flags.ForceFull || flags.ForceRefetchAllMetadata

	bySource := make(map[string][]string)
	for _, e := range c.store.All() {
		if e.SourceType != models.SourceRemoteAlbum || e.MediaKind != models.KindPhoto || e.Deleted || !successful[e.AlbumSource] {
			continue
		}
		switch {
		case refetchAll:
		case flags.UpdateAllMissingMetadata && !e.RemoteMetadataFetched:
		case newThisCycle[e.MediaID] && !e.RemoteMetadataFetched:
		default:
			continue
		}
		bySource[e.AlbumSource] = append(bySource[e.AlbumSource], e.URI)
	}

	for _, ad := range adapters {
		uris := bySource[ad.Name()]
		if len(uris) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}
		c.store.UpdateProgress(func(p *models.SyncProgress) {
			p.SourceName = ad.Name()
		})

		pending := 0
		err := ad.FetchMetadata(ctx, uris, func(md source.RemoteMetadata) {
			id := models.MediaIDFor(md.URI)
			entry, ok := c.store.Get(id)
			if !ok {
				return
			}
			// A fetch attempt, found or not, is recorded so the item is not
			// retried every cycle.
			entry.RemoteMetadataFetched = true
			if md.Caption != "" {
				entry.RemoteCaption = md.Caption
			}
			if md.Location != "" {
				entry.RemoteLocation = md.Location
			}
			if md.Date != nil {
				entry.RemoteDate = md.Date
			}
			c.store.PutDeferred(entry)
			stats.MetadataUpdated++

			pending++
			if pending >= persistEvery {
				if err := c.store.Flush(); err != nil {
					logging.Warn().Err(err).Msg("failed to flush catalog during metadata fetch")
				}
				pending = 0
			}
		})
		if flushErr := c.store.Flush(); flushErr != nil {
			logging.Warn().Err(flushErr).Msg("failed to flush catalog after metadata fetch")
		}
		if err != nil {
			stats.Errors++
			logging.Warn().Str("source", ad.Name()).Err(err).Msg("metadata fetch failed")
		}
	}
}

// tombstoneMissing hides entries no longer reported by their source. The
// safety gate refuses mass deletion after a suspiciously thin cycle: if
// fewer than half the previously-active items were found (floor of one),
// or no source succeeded, something upstream is broken and nothing is
// deleted. ForceFull is the operator's explicit consent to delete anyway.
func (c *Coordinator) tombstoneMissing(seen, successful map[string]bool, itemsFound, priorActive int, flags Flags, stats *models.SyncStats) {
	if !flags.ForceFull {
		floor := max(1, priorActive/2)
		if len(successful) == 0 || (priorActive > 0 && itemsFound < floor) {
			metrics.DeletionGateSkips.Inc()
			logging.Warn().
				Int("items_found", itemsFound).
				Int("prior_active", priorActive).
				Int("sources_ok", len(successful)).
				Msg("deletion safety gate engaged, skipping tombstone pass")
			return
		}
	}

	for _, e := range c.store.All() {
		if e.Deleted || seen[e.MediaID] || !successful[e.AlbumSource] {
			continue
		}
		if _, err := c.store.Update(e.MediaID, func(en *models.Entry) {
			en.Deleted = true
		}); err != nil {
			logging.Warn().Str("media_id", e.MediaID).Err(err).Msg("failed to tombstone entry")
			continue
		}
		metrics.ItemsTombstoned.Inc()
		stats.Deleted++
	}
}

// DescribeFlags renders the flags for logs and status output.
func DescribeFlags(f Flags) string {
	var parts []string
	if f.ForceFull {
		parts = append(parts, "force_full")
	}
	if f.ForceRefetchAllMetadata {
		parts = append(parts, "force_refetch_all_metadata")
	}
	if f.UpdateAllMissingMetadata {
		parts = append(parts, "update_all_missing_metadata")
	}
	if len(parts) == 0 {
		return "incremental"
	}
	return strings.Join(parts, ",")
}
