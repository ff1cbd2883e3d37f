// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceType identifies where a media item originates.
type SourceType string

// Source types.
const (
	SourceRemoteAlbum SourceType = "remote_album"
	SourceLocal       SourceType = "local"
)

// MediaKind distinguishes photos from videos.
type MediaKind string

// Media kinds.
const (
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
)

// GPSCoord is a decimal-degree coordinate pair.
type GPSCoord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FaceRect is a normalized face rectangle with detector confidence.
// All coordinates are fractions of the image dimensions in [0,1].
type FaceRect struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Confidence float64 `json:"confidence"`
}

// Entry is one catalog record, uniquely identified by MediaID.
//
// Lifecycle: created by ingest when a source first reports the URI,
// annotated lazily at display time, tombstoned (Deleted=true) when a
// healthy sync stops reporting the URI, reincarnated if it reappears,
// and physically destroyed only by cache-size enforcement.
type Entry struct {
	// MediaID is the first 16 hex digits of sha256(URI). Immutable.
	MediaID    string     `json:"media_id"`
	SourceType SourceType `json:"source_type"`
	URI        string     `json:"uri"`

	// LocalPath is where the bytes live: the cache download for remote
	// items, the original file for local items.
	LocalPath string    `json:"local_path,omitempty"`
	MediaKind MediaKind `json:"media_kind"`

	// AlbumSource is the human label of the source that last reported
	// this item; deletion and playlist filtering scope by it.
	AlbumSource string `json:"album_source,omitempty"`

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// ContentHash is a hex digest of the file bytes at LocalPath at
	// indexing time.
	ContentHash string `json:"content_hash,omitempty"`

	// FileMtime is the modification time at last index. Populated for
	// local items only; used to detect edits between syncs.
	FileMtime *time.Time `json:"file_mtime,omitempty"`

	// Deleted is a tombstone: the entry is hidden but retained so a
	// reappearing URI resurrects its metadata.
	Deleted bool `json:"deleted,omitempty"`

	// Captions from four independent origins. Never merged at ingest;
	// the overlay decides precedence at render time.
	RemoteCaption   string `json:"remote_caption,omitempty"`
	EmbeddedCaption string `json:"embedded_caption,omitempty"`
	RemoteLocation  string `json:"remote_location,omitempty"`
	ExifLocation    string `json:"exif_location,omitempty"`

	ExifDate   *time.Time `json:"exif_date,omitempty"`
	RemoteDate *time.Time `json:"remote_date,omitempty"`

	GPS *GPSCoord `json:"gps,omitempty"`

	// RemoteMetadataFetched records that a remote caption/location fetch
	// was attempted, so failures are not retried forever.
	RemoteMetadataFetched bool `json:"remote_metadata_fetched,omitempty"`

	// CachedFaces holds face detector output, valid for the face-policy
	// fingerprint under which it was stored. nil means detection has not
	// run; an empty list means it ran and found nothing.
	CachedFaces []FaceRect `json:"cached_faces"`

	// DisplayParams is the memoized crop/animation for the resolution it
	// records. Cleared whenever the scaling or face policy changes.
	DisplayParams *DisplayParams `json:"display_params,omitempty"`

	// Caption is the pre-split legacy field. Only ever read during load
	// migration; never written.
	Caption string `json:"caption,omitempty"`
}

// MediaIDFor derives the stable 16-hex-character media ID for a source URI.
// Deterministic across processes.
func MediaIDFor(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])[:16]
}

// IsActive reports whether the entry should be considered part of the
// library: not tombstoned and with bytes on disk.
func (e *Entry) IsActive() bool {
	return !e.Deleted && e.LocalPath != ""
}

// BestDate returns the entry's date using the chronological fallback
// chain: EXIF date, then remote date, then file mtime. ok is false when
// none is known.
func (e *Entry) BestDate() (t time.Time, ok bool) {
	switch {
	case e.ExifDate != nil:
		return *e.ExifDate, true
	case e.RemoteDate != nil:
		return *e.RemoteDate, true
	case e.FileMtime != nil:
		return *e.FileMtime, true
	default:
		return time.Time{}, false
	}
}

// MigrateLegacyCaption moves a pre-split caption into the matching split
// field. Returns true if a migration happened.
func (e *Entry) MigrateLegacyCaption() bool {
	if e.Caption == "" {
		return false
	}
	if e.RemoteCaption == "" && e.EmbeddedCaption == "" {
		if e.RemoteMetadataFetched {
			e.RemoteCaption = e.Caption
		} else {
			e.EmbeddedCaption = e.Caption
		}
	}
	e.Caption = ""
	return true
}
