// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package ingest acquires the bytes for new inventory items and extracts
// their embedded metadata. Remote items are downloaded into the cache
// directory under a deterministic {media_id}.{ext} name; local items are
// indexed in place, never copied.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metadata"
	"github.com/photoloop/photoloop/internal/models"
	"github.com/photoloop/photoloop/internal/source"
)

// AcquisitionError marks a single item whose bytes could not be obtained.
// The item is skipped and counted; the sync continues.
type AcquisitionError struct {
	URI string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s: %v", e.URI, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Acquirer downloads or indexes inventory items.
type Acquirer struct {
	client    *http.Client
	cacheDir  string
	maxDim    int
	fullRes   bool
	extractor metadata.Extractor
	now       func() time.Time
}

// New creates an acquirer writing downloads under cacheDir.
func New(cfg config.AcquisitionConfig, cacheDir string, extractor metadata.Extractor) *Acquirer {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Acquirer{
		client:    &http.Client{Timeout: timeout},
		cacheDir:  cacheDir,
		maxDim:    cfg.MaxImageDimension,
		fullRes:   cfg.FullResolution,
		extractor: extractor,
		now:       time.Now,
	}
}

// Acquire obtains the bytes for a new inventory item and returns the
// fully-populated entry. Dispatches on the URI scheme.
func (a *Acquirer) Acquire(ctx context.Context, item source.Item) (models.Entry, error) {
	if strings.HasPrefix(item.URI, "file://") {
		return a.indexLocal(item)
	}
	return a.download(ctx, item)
}

// download streams the remote variant to the cache and hashes it on the
// way through. Any failure removes the partial file.
func (a *Acquirer) download(ctx context.Context, item source.Item) (models.Entry, error) {
	id := models.MediaIDFor(item.URI)
	dest := filepath.Join(a.cacheDir, id+extensionFor(item.Kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.variantURL(item.URI), nil)
	if err != nil {
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	hash, err := streamToFile(dest, resp.Body)
	if err != nil {
		removePartial(dest)
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: err}
	}

	now := a.now()
	entry := models.Entry{
		MediaID:     id,
		SourceType:  models.SourceRemoteAlbum,
		URI:         item.URI,
		LocalPath:   dest,
		MediaKind:   item.Kind,
		AlbumSource: item.AlbumLabel,
		FirstSeen:   now,
		LastSeen:    now,
		ContentHash: hash,
	}
	a.extractInto(&entry)
	return entry, nil
}

// indexLocal verifies the file exists and records its identity. The
// local path is the original path; nothing is copied.
func (a *Acquirer) indexLocal(item source.Item) (models.Entry, error) {
	path := strings.TrimPrefix(item.URI, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: err}
	}

	hash, err := hashFile(path)
	if err != nil {
		return models.Entry{}, &AcquisitionError{URI: item.URI, Err: err}
	}

	now := a.now()
	mtime := info.ModTime()
	entry := models.Entry{
		MediaID:     models.MediaIDFor(item.URI),
		SourceType:  models.SourceLocal,
		URI:         item.URI,
		LocalPath:   path,
		MediaKind:   item.Kind,
		AlbumSource: item.AlbumLabel,
		FirstSeen:   now,
		LastSeen:    now,
		ContentHash: hash,
		FileMtime:   &mtime,
	}
	a.extractInto(&entry)
	return entry, nil
}

// Reindex refreshes a local entry whose file changed on disk: new hash
// and mtime, re-extracted metadata, and cleared derived state (the crop
// and faces belong to the old pixels).
func (a *Acquirer) Reindex(entry *models.Entry) error {
	info, err := os.Stat(entry.LocalPath)
	if err != nil {
		return &AcquisitionError{URI: entry.URI, Err: err}
	}
	hash, err := hashFile(entry.LocalPath)
	if err != nil {
		return &AcquisitionError{URI: entry.URI, Err: err}
	}

	mtime := info.ModTime()
	entry.ContentHash = hash
	entry.FileMtime = &mtime
	entry.CachedFaces = nil
	entry.DisplayParams = nil
	a.extractInto(entry)
	return nil
}

// extractInto pulls embedded metadata into the entry. Failures are soft.
func (a *Acquirer) extractInto(entry *models.Entry) {
	if a.extractor == nil || entry.MediaKind != models.KindPhoto {
		return
	}
	meta, err := a.extractor.Extract(entry.LocalPath)
	if err != nil {
		logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("metadata extraction failed")
		return
	}
	if meta.DateTaken != nil {
		entry.ExifDate = meta.DateTaken
	}
	if meta.Caption != "" {
		entry.EmbeddedCaption = meta.Caption
	}
	if meta.GPS != nil {
		entry.GPS = meta.GPS
	}
}

// variantURL derives the download URL for the acquisition policy:
// the original ("=d") or a size-constrained variant, in the web-album
// URL convention.
func (a *Acquirer) variantURL(base string) string {
	if a.fullRes {
		return base + "=d"
	}
	return fmt.Sprintf("%s=w%d-h%d", base, a.maxDim, a.maxDim)
}

// extensionFor picks the cache filename extension for a media kind.
func extensionFor(kind models.MediaKind) string {
	if kind == models.KindVideo {
		return ".mp4"
	}
	return ".jpg"
}

// streamToFile writes r to dest, returning the content hash.
func streamToFile(dest string, r io.Reader) (string, error) {
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	if _, err := io.Copy(f, io.TeeReader(r, h)); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return digestString(h.Sum(nil)), nil
}

// hashFile hashes an existing file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // read-only

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return digestString(h.Sum(nil)), nil
}

// digestString truncates a sha256 digest to the stored 128-bit form.
func digestString(sum []byte) string {
	return hex.EncodeToString(sum)[:32]
}

// removePartial deletes a partially-written download.
func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Str("path", path).Err(err).Msg("failed to remove partial download")
	}
}
