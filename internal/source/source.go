// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package source turns configured media sources into inventories of
// candidate items. Two adapters exist: a remote web-album adapter driving
// the external page inspector, and a local directory adapter walking the
// filesystem. The sync coordinator consumes both through the Adapter
// interface and never sees the difference.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/photoloop/photoloop/internal/models"
)

// Item is one candidate media item reported by a source.
type Item struct {
	URI        string
	Kind       models.MediaKind
	AlbumLabel string
}

// RemoteMetadata is the late-bound per-item metadata a remote source can
// resolve in its follow-up phase. Text fields arrive already classified
// by the inspector; the core stores them verbatim.
type RemoteMetadata struct {
	URI      string
	Caption  string
	Location string
	Date     *time.Time
}

// ProgressFunc reports adapter progress: the stage label plus a
// current/total pair (total may be zero when unknown).
type ProgressFunc func(stage string, current, total int)

// Adapter enumerates a configured source. Implementations must be safe
// for use from the single sync goroutine; they are not called
// concurrently.
type Adapter interface {
	// Name returns the source's human label (album_source scope).
	Name() string

	// Inventory returns every candidate item the source currently
	// contains. A hard failure returns a *SourceError and no items;
	// adapters never return silently-partial inventories.
	Inventory(ctx context.Context, progress ProgressFunc) ([]Item, error)

	// FetchMetadata resolves late-bound metadata for the given URIs,
	// streaming each result through each so it can be persisted
	// incrementally. Implementations call each for every requested URI
	// they could inspect, even when nothing was found.
	FetchMetadata(ctx context.Context, uris []string, each func(RemoteMetadata)) error
}

// SourceError is a per-source transient failure. It fails that source for
// the cycle; the sync continues with the remaining sources.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// photoExtensions and videoExtensions are the case-insensitive allowlist
// for local files.
var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".heic": true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

// ClassifyPath returns the media kind for a filename, or ok=false when
// the extension is not on the allowlist.
func ClassifyPath(path string) (models.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case photoExtensions[ext]:
		return models.KindPhoto, true
	case videoExtensions[ext]:
		return models.KindVideo, true
	default:
		return "", false
	}
}
