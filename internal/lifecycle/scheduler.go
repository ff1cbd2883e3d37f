// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/source"
	"github.com/photoloop/photoloop/internal/syncer"
)

// checkInterval is how often the scheduler wakes to see if a sync is due.
const checkInterval = 30 * time.Second

// SyncScheduler runs periodic sync cycles: an optional initial sync
// shortly after startup, then one per configured interval, optionally
// anchored to a wall-clock time of day. A local-source watcher hint
// pulls the next cycle forward to the next wakeup.
type SyncScheduler struct {
	coordinator *syncer.Coordinator
	watcher     *source.Watcher // optional
	cfg         config.SyncConfig
	now         func() time.Time
}

// NewSyncScheduler wires the scheduler. watcher may be nil.
func NewSyncScheduler(coordinator *syncer.Coordinator, watcher *source.Watcher, cfg config.SyncConfig) *SyncScheduler {
	return &SyncScheduler{
		coordinator: coordinator,
		watcher:     watcher,
		cfg:         cfg,
		now:         time.Now,
	}
}

// String names the service in supervisor logs.
func (s *SyncScheduler) String() string { return "sync-scheduler" }

// Serve runs the schedule until the context is canceled.
func (s *SyncScheduler) Serve(ctx context.Context) error {
	if s.cfg.InitialSync {
		delay := s.cfg.InitialDelay
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		s.run(ctx)
	}

	next := s.nextRun(s.now())
	logging.Info().Time("next_sync", next).Msg("sync scheduled")

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := s.now()
			dirty := s.watcher != nil && s.watcher.Dirty()
			if dirty {
				logging.Info().Msg("local source changed, syncing early")
			}
			if !dirty && now.Before(next) {
				continue
			}
			s.run(ctx)
			next = s.nextRun(s.now())
		}
	}
}

// run executes one cycle, absorbing the busy error (a manual sync is
// already doing the work).
func (s *SyncScheduler) run(ctx context.Context) {
	if _, err := s.coordinator.Sync(ctx, syncer.Flags{}); err != nil {
		if errors.Is(err, syncer.ErrSyncBusy) {
			logging.Debug().Msg("scheduled sync skipped, cycle already running")
			return
		}
		logging.Warn().Err(err).Msg("scheduled sync finished with errors")
	}
}

// nextRun computes the next cycle time: interval steps from the anchor
// time of day when one is set, otherwise a plain interval from now.
func (s *SyncScheduler) nextRun(now time.Time) time.Time {
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute

	if s.cfg.AnchorTime != "" {
		if minutes, err := config.ParseClock(s.cfg.AnchorTime, false); err == nil {
			anchor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
				Add(time.Duration(minutes) * time.Minute)
			for !anchor.After(now) {
				anchor = anchor.Add(interval)
			}
			return anchor
		}
		logging.Warn().Str("anchor_time", s.cfg.AnchorTime).Msg("unparseable anchor time, using plain interval")
	}
	return now.Add(interval)
}
