// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package annotate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/geocode"
	"github.com/photoloop/photoloop/internal/models"
)

type fakeDetector struct {
	faces []models.FaceRect
	err   error
	calls int
}

func (f *fakeDetector) Detect(string) ([]models.FaceRect, error) {
	f.calls++
	return f.faces, f.err
}

type fakeGeoProvider struct {
	place *geocode.Place
}

func (f *fakeGeoProvider) Reverse(context.Context, float64, float64) (*geocode.Place, error) {
	return f.place, nil
}

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	s, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"), models.SettingsFingerprint{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEnsureFacesDetectsAndPersists(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entry := models.Entry{MediaID: "aaaa000000000000", LocalPath: "/cache/a.jpg", MediaKind: models.KindPhoto}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	detector := &fakeDetector{faces: []models.FaceRect{
		{X: 0.1, Y: 0.1, W: 0.2, H: 0.2, Confidence: 0.9},
		{X: 0.5, Y: 0.5, W: 0.1, H: 0.1, Confidence: 0.3}, // below threshold
	}}
	a := New(store, detector, nil, 0.6, nil)

	faces := a.EnsureFaces(entry)
	if len(faces) != 1 {
		t.Fatalf("EnsureFaces() = %d faces, want 1 above min confidence", len(faces))
	}

	stored, _ := store.Get(entry.MediaID)
	if stored.CachedFaces == nil || len(stored.CachedFaces) != 1 {
		t.Errorf("faces not persisted: %+v", stored.CachedFaces)
	}

	// Cached entries never hit the detector again.
	faces = a.EnsureFaces(stored)
	if len(faces) != 1 || detector.calls != 1 {
		t.Errorf("cached path ran detector again (%d calls)", detector.calls)
	}
}

func TestEnsureFacesNoneFoundIsCached(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entry := models.Entry{MediaID: "bbbb000000000000", LocalPath: "/cache/b.jpg", MediaKind: models.KindPhoto}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	detector := &fakeDetector{} // finds nothing
	a := New(store, detector, nil, 0.6, nil)

	if faces := a.EnsureFaces(entry); len(faces) != 0 {
		t.Fatalf("EnsureFaces() = %v, want none", faces)
	}
	stored, _ := store.Get(entry.MediaID)
	if stored.CachedFaces == nil {
		t.Fatal("empty result not persisted; detector would run forever")
	}
	if len(stored.CachedFaces) != 0 {
		t.Errorf("persisted faces = %v, want empty", stored.CachedFaces)
	}
}

func TestEnsureFacesDetectorFailure(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entry := models.Entry{MediaID: "cccc000000000000", LocalPath: "/cache/c.jpg", MediaKind: models.KindPhoto}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	a := New(store, &fakeDetector{err: errors.New("model not loaded")}, nil, 0.6, nil)
	if faces := a.EnsureFaces(entry); faces != nil {
		t.Errorf("EnsureFaces() = %v on detector failure, want nil", faces)
	}

	// Failures are not cached: the entry stays eligible for retry.
	stored, _ := store.Get(entry.MediaID)
	if stored.CachedFaces != nil {
		t.Error("failed detection persisted as a result")
	}
}

func TestEnsureFacesNilDetector(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	a := New(store, nil, nil, 0.6, nil)
	entry := models.Entry{MediaID: "dddd000000000000", LocalPath: "/cache/d.jpg"}
	if faces := a.EnsureFaces(entry); faces != nil {
		t.Errorf("EnsureFaces() without detector = %v, want nil", faces)
	}
}

func TestRequestLocationResolvesAndNotifies(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	entry := models.Entry{
		MediaID:   "eeee000000000000",
		LocalPath: "/cache/e.jpg",
		MediaKind: models.KindPhoto,
		GPS:       &models.GPSCoord{Latitude: 38.7223, Longitude: -9.1393},
	}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	geocoder := geocode.New(filepath.Join(t.TempDir(), "geo.json"), &fakeGeoProvider{
		place: &geocode.Place{City: "Lisbon", Country: "Portugal", CountryCode: "PT"},
	})
	notified := make(chan string, 1)
	a := New(store, nil, geocoder, 0.6, func(id string) { notified <- id })

	a.RequestLocation(context.Background(), entry)

	select {
	case id := <-notified:
		if id != entry.MediaID {
			t.Errorf("notified %s, want %s", id, entry.MediaID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("location lookup never completed")
	}

	stored, _ := store.Get(entry.MediaID)
	if stored.ExifLocation != "Lisbon, Portugal" {
		t.Errorf("location = %q, want %q", stored.ExifLocation, "Lisbon, Portugal")
	}
}

func TestRequestLocationSkipsWhenResolved(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	geocoder := geocode.New(filepath.Join(t.TempDir(), "geo.json"), &fakeGeoProvider{})
	notified := make(chan string, 1)
	a := New(store, nil, geocoder, 0.6, func(id string) { notified <- id })

	// Already has a location: nothing to do.
	a.RequestLocation(context.Background(), models.Entry{
		MediaID:      "ffff000000000000",
		GPS:          &models.GPSCoord{Latitude: 1, Longitude: 1},
		ExifLocation: "Lisbon, Portugal",
	})
	// No coordinates: nothing to do.
	a.RequestLocation(context.Background(), models.Entry{MediaID: "0000111100001111"})

	select {
	case id := <-notified:
		t.Errorf("unexpected notification for %s", id)
	case <-time.After(100 * time.Millisecond):
	}
}
