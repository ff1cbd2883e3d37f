// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package catalog implements the durable media catalog: the full set of
// Entry records plus the settings fingerprint, per-source sync times and a
// monotonic last-updated stamp.
//
// The catalog lives in one JSON document. Every save is atomic and
// durable: the state is serialized to a sibling temp file, fsynced, then
// renamed into place, so a crash mid-write leaves the previous file
// untouched. All access is serialized by a single exclusive lock; the
// store is shared by the sync thread, the display tick loop and the
// annotator tasks.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"

	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
)

// ErrCorrupt marks a catalog file that exists but cannot be parsed. The
// store recovers by starting empty; the error is surfaced so the operator
// can investigate the zero-photo state.
var ErrCorrupt = errors.New("catalog file corrupt")

// document is the persisted catalog form.
type document struct {
	Media          map[string]*models.Entry   `json:"media"`
	AlbumSyncTimes map[string]time.Time       `json:"album_sync_times"`
	LastUpdated    time.Time                  `json:"last_updated"`
	Settings       models.SettingsFingerprint `json:"settings"`
}

// Store holds the catalog in memory and persists it to a single file.
// The embedded mutex guards doc, dirty and progress.
type Store struct {
	path string
	now  func() time.Time

	mu       sync.Mutex
	doc      document
	dirty    bool
	progress models.SyncProgress
}

// Open loads (or initializes) the catalog at path and reconciles it
// against the current settings fingerprint. A corrupt file resets the
// catalog to empty and returns the loaded store together with ErrCorrupt;
// the store is usable either way.
func Open(path string, current models.SettingsFingerprint) (*Store, error) {
	return OpenWithClock(path, current, time.Now)
}

// OpenWithClock is Open with an injectable clock for tests.
func OpenWithClock(path string, current models.SettingsFingerprint, now func() time.Time) (*Store, error) {
	s := &Store{path: path, now: now}
	s.doc = emptyDocument(current)
	s.progress = models.SyncProgress{Stage: models.StageIdle}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		logging.Error().Str("path", path).Err(err).Msg("catalog unreadable, starting empty")
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Media == nil {
		doc.Media = make(map[string]*models.Entry)
	}
	if doc.AlbumSyncTimes == nil {
		doc.AlbumSyncTimes = make(map[string]time.Time)
	}

	migrated := 0
	for id, e := range doc.Media {
		if e.MediaID == "" {
			e.MediaID = id
		}
		if e.MigrateLegacyCaption() {
			migrated++
		}
	}
	if migrated > 0 {
		logging.Info().Int("entries", migrated).Msg("migrated legacy captions")
	}

	s.doc = doc
	changed := s.reconcileSettings(current) || migrated > 0
	if changed {
		s.dirty = true
		if err := s.saveLocked(); err != nil {
			return s, err
		}
	}
	s.publishGauges()
	return s, nil
}

// ApplySettings runs the fingerprint invalidation rules against a
// reloaded configuration, persisting any resulting changes. A runtime
// scaling or face policy change clears the memoized derived state the
// same way a restart would.
func (s *Store) ApplySettings(current models.SettingsFingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reconcileSettings(current) {
		return nil
	}
	s.dirty = true
	if err := s.saveLocked(); err != nil {
		return err
	}
	s.publishGaugesLocked()
	return nil
}

// reconcileSettings applies the fingerprint invalidation rules. Lock
// must be held (or the store not yet shared). Reports whether anything
// changed.
func (s *Store) reconcileSettings(current models.SettingsFingerprint) bool {
	stored := s.doc.Settings
	if stored == current {
		return false
	}

	switch {
	case stored.Acquisition != current.Acquisition:
		// The user changed resolution policy: every cached download is
		// the wrong size. Remove remote files and start over.
		logging.Warn().
			Str("stored", stored.Acquisition).
			Str("current", current.Acquisition).
			Msg("acquisition settings changed, resetting catalog")
		for _, e := range s.doc.Media {
			if e.SourceType == models.SourceRemoteAlbum && e.LocalPath != "" {
				if err := os.Remove(e.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					logging.Warn().Str("path", e.LocalPath).Err(err).Msg("failed to remove cached file")
				}
			}
		}
		s.doc = emptyDocument(current)

	case stored.Faces != current.Faces:
		logging.Info().Msg("face policy changed, clearing cached faces and display params")
		for _, e := range s.doc.Media {
			e.CachedFaces = nil
			e.DisplayParams = nil
		}

	case stored.Scaling != current.Scaling:
		logging.Info().Msg("scaling policy changed, clearing display params")
		for _, e := range s.doc.Media {
			e.DisplayParams = nil
		}
	}

	s.doc.Settings = current
	return true
}

// Get returns a copy of the entry with the given media ID.
func (s *Store) Get(id string) (models.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.doc.Media[id]
	if !ok {
		return models.Entry{}, false
	}
	return *e, true
}

// Put upserts an entry and saves immediately. Idempotent.
func (s *Store) Put(e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(e)
	return s.saveLocked()
}

// PutDeferred upserts an entry without writing the file. Callers batching
// many writes (the metadata follow-up persists every tenth callback) must
// follow up with Flush.
func (s *Store) PutDeferred(e models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(e)
}

// Flush writes the catalog file if there are unsaved changes.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Update applies fn to the entry under the lock and saves. Returns false
// if the entry does not exist.
func (s *Store) Update(id string, fn func(*models.Entry)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.doc.Media[id]
	if !ok {
		return false, nil
	}
	fn(e)
	s.dirty = true
	return true, s.saveLocked()
}

// Delete removes the record entirely. Used only by cache-size
// enforcement; tombstoning goes through Update.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Media[id]; !ok {
		return nil
	}
	delete(s.doc.Media, id)
	s.dirty = true
	return s.saveLocked()
}

// AllActive returns copies of all non-deleted entries with bytes on disk,
// in stable media-ID order.
func (s *Store) AllActive() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Entry, 0, len(s.doc.Media))
	for _, e := range s.doc.Media {
		if e.IsActive() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MediaID < out[j].MediaID })
	return out
}

// All returns copies of every record, tombstones included.
func (s *Store) All() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Entry, 0, len(s.doc.Media))
	for _, e := range s.doc.Media {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MediaID < out[j].MediaID })
	return out
}

// CountByKind returns active entry counts keyed by media kind.
func (s *Store) CountByKind() map[models.MediaKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.MediaKind]int, 2)
	for _, e := range s.doc.Media {
		if e.IsActive() {
			counts[e.MediaKind]++
		}
	}
	return counts
}

// TotalBytesOnDisk sums the current file sizes of all active entries.
// Stat failures count as zero; a vanished file will be caught by the next
// sync.
func (s *Store) TotalBytesOnDisk() int64 {
	var total int64
	for _, e := range s.AllActive() {
		if info, err := os.Stat(e.LocalPath); err == nil {
			total += info.Size()
		}
	}
	return total
}

// RecordSourceSync stamps the last successful sync time for a source.
func (s *Store) RecordSourceSync(name string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.AlbumSyncTimes[name] = t
	s.dirty = true
	return s.saveLocked()
}

// SourceSyncTimes returns a copy of the per-source last-sync map.
func (s *Store) SourceSyncTimes() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.doc.AlbumSyncTimes))
	for k, v := range s.doc.AlbumSyncTimes {
		out[k] = v
	}
	return out
}

// SetLocation sets the reverse-geocoded location on an entry. A separate
// operation because it is called from background annotator tasks.
func (s *Store) SetLocation(id, location string) error {
	ok, err := s.Update(id, func(e *models.Entry) {
		e.ExifLocation = location
	})
	if err == nil && !ok {
		logging.Debug().Str("media_id", id).Msg("set location on unknown entry")
	}
	return err
}

// ClearAll destroys every record and its on-disk bytes for remote
// entries. Local originals are never touched.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.doc.Media {
		if e.SourceType == models.SourceRemoteAlbum && e.LocalPath != "" {
			if err := os.Remove(e.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.Warn().Str("path", e.LocalPath).Err(err).Msg("failed to remove cached file")
			}
		}
	}
	s.doc = emptyDocument(s.doc.Settings)
	s.dirty = true
	return s.saveLocked()
}

// Len returns the number of records, tombstones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Media)
}

// UpdateProgress mutates the shared sync-progress struct under the
// catalog lock.
func (s *Store) UpdateProgress(fn func(*models.SyncProgress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.progress)
}

// Progress returns a snapshot of the sync progress for polling.
func (s *Store) Progress() models.SyncProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// putLocked upserts without saving. Lock must be held.
func (s *Store) putLocked(e models.Entry) {
	cp := e
	s.doc.Media[e.MediaID] = &cp
	s.dirty = true
}

// saveLocked serializes and atomically replaces the catalog file if
// dirty. Lock must be held.
func (s *Store) saveLocked() error {
	if !s.dirty {
		return nil
	}
	s.doc.LastUpdated = s.now()

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	// renameio: temp file in the target dir, fsync, atomic rename.
	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending catalog file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logging.Debug().Err(err).Msg("cleanup pending catalog file")
		}
	}()
	if _, err := pending.Write(raw); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace catalog file: %w", err)
	}

	s.dirty = false
	s.publishGaugesLocked()
	return nil
}

// publishGauges refreshes the catalog size metrics.
func (s *Store) publishGauges() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishGaugesLocked()
}

func (s *Store) publishGaugesLocked() {
	active := 0
	for _, e := range s.doc.Media {
		if e.IsActive() {
			active++
		}
	}
	metrics.CatalogEntries.Set(float64(len(s.doc.Media)))
	metrics.CatalogActiveEntries.Set(float64(active))
}

// emptyDocument returns a fresh catalog document carrying the fingerprint.
func emptyDocument(fp models.SettingsFingerprint) document {
	return document{
		Media:          make(map[string]*models.Entry),
		AlbumSyncTimes: make(map[string]time.Time),
		Settings:       fp,
	}
}
