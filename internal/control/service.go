// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package control is the Go-level operations surface of the engine: what
// a UI layer (web, CLI, remote control) calls to inspect state, manage
// sources, trigger syncs and steer the display. No transport lives here.
package control

import (
	"context"
	"fmt"
	"time"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/display"
	"github.com/photoloop/photoloop/internal/lifecycle"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/models"
	"github.com/photoloop/photoloop/internal/playlist"
	"github.com/photoloop/photoloop/internal/schedule"
	"github.com/photoloop/photoloop/internal/syncer"
)

// Status is the engine state snapshot returned to UI layers.
type Status struct {
	Sync           models.SyncProgress `json:"sync"`
	Mode           string              `json:"mode"`
	Override       string              `json:"override,omitempty"`
	OverrideUntil  time.Time           `json:"override_until,omitzero"`
	NextTransition time.Time           `json:"next_transition,omitzero"`
	NextMode       string              `json:"next_mode,omitempty"`
	Paused         bool                `json:"paused"`
	Photos         int                 `json:"photos"`
	Videos         int                 `json:"videos"`
	PlaylistSize   int                 `json:"playlist_size"`
	CacheBytes     int64               `json:"cache_bytes"`
}

// SourceStatus is one source plus its last successful sync time.
type SourceStatus struct {
	config.SourceConfig
	LastSync time.Time `json:"last_sync,omitzero"`
}

// Service implements the control operations.
type Service struct {
	store        *catalog.Store
	registry     *Registry
	coordinator  *syncer.Coordinator
	orchestrator *lifecycle.Orchestrator
	schedule     *schedule.Engine
	playlist     *playlist.Engine
	display      *display.Engine
	configPath   string
	now          func() time.Time

	// syncCtx outlives the caller's request context; manual syncs run in
	// the background and are canceled only at shutdown.
	syncCtx context.Context
}

// NewService wires the control surface. syncCtx should be the process
// lifetime context.
func NewService(syncCtx context.Context, store *catalog.Store, registry *Registry, coordinator *syncer.Coordinator, orchestrator *lifecycle.Orchestrator, sched *schedule.Engine, pl *playlist.Engine, disp *display.Engine, configPath string) *Service {
	return &Service{
		store:        store,
		registry:     registry,
		coordinator:  coordinator,
		orchestrator: orchestrator,
		schedule:     sched,
		playlist:     pl,
		display:      disp,
		configPath:   configPath,
		now:          time.Now,
		syncCtx:      syncCtx,
	}
}

// Status snapshots the engine.
func (s *Service) Status() Status {
	now := s.now()
	counts := s.store.CountByKind()
	st := Status{
		Sync:         s.store.Progress(),
		Mode:         string(s.schedule.Mode(now)),
		Paused:       s.orchestrator.Paused(),
		Photos:       counts[models.KindPhoto],
		Videos:       counts[models.KindVideo],
		PlaylistSize: s.playlist.Len(),
		CacheBytes:   s.store.TotalBytesOnDisk(),
	}
	if mode, until, ok := s.schedule.CurrentOverride(now); ok {
		st.Override = string(mode)
		st.OverrideUntil = until
	}
	if next, mode, ok := s.schedule.NextTransition(now); ok {
		st.NextTransition = next
		st.NextMode = string(mode)
	}
	return st
}

// ListSources returns every configured source with its last sync time.
func (s *Service) ListSources() []SourceStatus {
	times := s.store.SourceSyncTimes()
	sources := s.registry.List()
	out := make([]SourceStatus, 0, len(sources))
	for _, src := range sources {
		out = append(out, SourceStatus{SourceConfig: src, LastSync: times[src.Name]})
	}
	return out
}

// AddSource registers a new source; it participates from the next sync.
func (s *Service) AddSource(src config.SourceConfig) error {
	if err := s.registry.Add(src); err != nil {
		return err
	}
	logging.Info().Str("source", src.Name).Str("type", src.Type).Msg("source added")
	return nil
}

// RemoveSource drops a source and tombstones its entries. Cached files
// stay on disk until cache enforcement claims the space; a re-added
// source resurrects its entries without re-downloading.
func (s *Service) RemoveSource(name string) error {
	if err := s.registry.Remove(name); err != nil {
		return err
	}
	tombstoned := 0
	for _, e := range s.store.All() {
		if e.AlbumSource != name || e.Deleted {
			continue
		}
		if _, err := s.store.Update(e.MediaID, func(en *models.Entry) {
			en.Deleted = true
		}); err != nil {
			logging.Warn().Str("media_id", e.MediaID).Err(err).Msg("failed to tombstone entry of removed source")
			continue
		}
		tombstoned++
	}
	s.playlist.Rebuild()
	logging.Info().Str("source", name).Int("tombstoned", tombstoned).Msg("source removed")
	return nil
}

// SetSourceEnabled toggles a source. The playlist is rebuilt right away
// so a disabled source's photos leave the rotation without waiting for
// the next sync.
func (s *Service) SetSourceEnabled(name string, enabled bool) error {
	if err := s.registry.SetEnabled(name, enabled); err != nil {
		return err
	}
	s.playlist.Rebuild()
	logging.Info().Str("source", name).Bool("enabled", enabled).Msg("source toggled")
	return nil
}

// SetSourceName renames a source and relabels its catalog entries so
// deletion scoping keeps working.
func (s *Service) SetSourceName(oldName, newName string) error {
	if err := s.registry.Rename(oldName, newName); err != nil {
		return err
	}
	for _, e := range s.store.All() {
		if e.AlbumSource != oldName {
			continue
		}
		if _, err := s.store.Update(e.MediaID, func(en *models.Entry) {
			en.AlbumSource = newName
		}); err != nil {
			logging.Warn().Str("media_id", e.MediaID).Err(err).Msg("failed to relabel entry")
		}
	}
	logging.Info().Str("from", oldName).Str("to", newName).Msg("source renamed")
	return nil
}

// StartSync launches a sync cycle in the background. Fails fast with
// ErrSyncBusy when one is already running; progress is polled via Status.
func (s *Service) StartSync(flags syncer.Flags) error {
	if s.coordinator.Running() {
		return syncer.ErrSyncBusy
	}
	logging.Info().Str("flags", syncer.DescribeFlags(flags)).Msg("manual sync requested")
	go func() {
		if _, err := s.coordinator.Sync(s.syncCtx, flags); err != nil {
			logging.Warn().Err(err).Msg("manual sync finished with errors")
		}
	}()
	return nil
}

// Control dispatches a named display action.
func (s *Service) Control(ctx context.Context, action string) error {
	switch action {
	case "pause":
		s.orchestrator.Pause()
	case "resume":
		s.orchestrator.Resume()
	case "next":
		return s.orchestrator.Advance(ctx)
	case "previous":
		return s.orchestrator.Rewind(ctx)
	case "force_slideshow", "slideshow":
		s.schedule.Override(schedule.ModeSlideshow, s.now())
	case "force_clock", "clock":
		s.schedule.Override(schedule.ModeClock, s.now())
	case "force_black", "black":
		s.schedule.Override(schedule.ModeBlack, s.now())
	case "clear_override", "auto":
		s.schedule.ClearOverride()
	case "reload_config":
		return s.reloadConfig()
	default:
		return fmt.Errorf("unknown control action %q", action)
	}
	return nil
}

// ListItems returns catalog entries, optionally filtered by source and
// including tombstones.
func (s *Service) ListItems(sourceName string, includeDeleted bool) []models.Entry {
	var all []models.Entry
	if includeDeleted {
		all = s.store.All()
	} else {
		all = s.store.AllActive()
	}
	if sourceName == "" {
		return all
	}
	filtered := all[:0]
	for _, e := range all {
		if e.AlbumSource == sourceName {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// reloadConfig re-reads the config file and applies the settings that
// can change without a restart: playlist ordering, scaling and animation
// policy, the schedule, and the log level. A changed scaling or face
// fingerprint also invalidates the catalog's memoized derived state, so
// stale display parameters are recomputed rather than reused. Source,
// cache and sync-cadence changes still need a restart and are logged as
// ignored.
func (s *Service) reloadConfig() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	if err := s.store.ApplySettings(cfg.Fingerprint()); err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	s.playlist.SetPolicy(cfg.Playlist)
	s.display.SetPolicies(cfg.Scaling, cfg.Animation, cfg.Dwell())
	s.schedule.Reload(cfg.Schedule)
	logging.SetLevelFromString(cfg.Logging.Level)
	s.playlist.Rebuild()

	logging.Info().Msg("configuration reloaded (sources, cache and sync cadence need a restart)")
	return nil
}
