// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package annotate enriches catalog entries on demand, just before they
// are displayed: face detection for smart cropping, and background
// reverse geocoding for the location overlay. Neither runs during sync.
//
// Detector and geocoder unavailability is a normal runtime condition; the
// dependent feature degrades and nothing fails.
package annotate

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/geocode"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
)

// FaceDetector is the external detector contract: zero or more
// normalized rectangles with confidence for an image file.
type FaceDetector interface {
	Detect(imagePath string) ([]models.FaceRect, error)
}

// Annotator coordinates lazy enrichment. At most one task runs per entry
// at a time; duplicate requests are dropped.
type Annotator struct {
	store    *catalog.Store
	detector FaceDetector
	geocoder *geocode.CachingGeocoder

	// notify tells the renderer an entry gained data worth redrawing.
	notify func(mediaID string)

	minConfidence float64

	detect singleflight.Group

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates an annotator. detector, geocoder and notify may each be nil.
func New(store *catalog.Store, detector FaceDetector, geocoder *geocode.CachingGeocoder, minConfidence float64, notify func(mediaID string)) *Annotator {
	if notify == nil {
		notify = func(string) {}
	}
	return &Annotator{
		store:         store,
		detector:      detector,
		geocoder:      geocoder,
		notify:        notify,
		minConfidence: minConfidence,
		inFlight:      make(map[string]bool),
	}
}

// EnsureFaces returns the entry's faces, running the detector if they
// were never computed. The result (including "none found") is persisted
// immediately so the detector runs at most once per entry per face
// policy. Callers must not hold the catalog lock.
func (a *Annotator) EnsureFaces(entry models.Entry) []models.FaceRect {
	if entry.CachedFaces != nil {
		metrics.FaceDetections.WithLabelValues("cached").Inc()
		return entry.CachedFaces
	}
	if a.detector == nil {
		return nil
	}

	// singleflight collapses concurrent requests for the same entry.
	faces, err, _ := a.detect.Do(entry.MediaID, func() (any, error) {
		detected, err := a.detector.Detect(entry.LocalPath)
		if err != nil {
			return nil, err
		}

		kept := make([]models.FaceRect, 0, len(detected))
		for _, f := range detected {
			if f.Confidence >= a.minConfidence {
				kept = append(kept, f)
			}
		}

		if _, err := a.store.Update(entry.MediaID, func(e *models.Entry) {
			e.CachedFaces = kept
		}); err != nil {
			logging.Warn().Str("media_id", entry.MediaID).Err(err).Msg("failed to persist faces")
		}
		return kept, nil
	})
	if err != nil {
		metrics.FaceDetections.WithLabelValues("error").Inc()
		logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("face detection failed")
		return nil
	}
	metrics.FaceDetections.WithLabelValues("ok").Inc()
	return faces.([]models.FaceRect)
}

// RequestLocation spawns a background reverse-geocode lookup for the
// entry if it has coordinates and no location yet. Duplicate requests
// while one is in flight are dropped. Fire-and-forget: on shutdown the
// task is abandoned and its partial result lost, which is fine because
// lookups are cheap to redo against the cache.
func (a *Annotator) RequestLocation(ctx context.Context, entry models.Entry) {
	if a.geocoder == nil || entry.GPS == nil || entry.ExifLocation != "" {
		return
	}

	a.mu.Lock()
	if a.inFlight[entry.MediaID] {
		a.mu.Unlock()
		return
	}
	a.inFlight[entry.MediaID] = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			delete(a.inFlight, entry.MediaID)
			a.mu.Unlock()
		}()

		name, found, err := a.geocoder.Lookup(ctx, entry.GPS.Latitude, entry.GPS.Longitude)
		if err != nil {
			logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("geocode lookup failed")
			return
		}
		if !found {
			return
		}
		if err := a.store.SetLocation(entry.MediaID, name); err != nil {
			logging.Warn().Str("media_id", entry.MediaID).Err(err).Msg("failed to persist location")
			return
		}
		a.notify(entry.MediaID)
	}()
}
