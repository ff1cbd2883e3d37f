// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package display

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/photoloop/photoloop/internal/annotate"
	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/models"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	s, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"), models.SettingsFingerprint{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEngine(t *testing.T, store *catalog.Store) *Engine {
	t.Helper()
	cfg := &config.Config{
		Scaling: config.ScalingConfig{
			Mode:            "fill",
			SmartCropMethod: "face",
			FacePosition:    0.25,
			FallbackCrop:    "center",
			CropBias:        "none",
		},
		Playlist: config.PlaylistConfig{DwellSeconds: 30},
	}
	ann := annotate.New(store, nil, nil, 0.6, nil)
	return NewEngine(store, ann, nil, nil, cfg)
}

func TestResolveUnreadableImageFallsBack(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	e := newTestEngine(t, store)

	entry := models.Entry{
		MediaID:   "deadbeef00000000",
		LocalPath: "/nonexistent/img.jpg",
		MediaKind: models.KindPhoto,
	}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	params := e.Resolve(entry, 1920, 1080)
	if params.Crop != models.FullFrame() {
		t.Errorf("crop = %+v, want full frame", params.Crop)
	}
	if params.ScreenW != 1920 || params.ScreenH != 1080 {
		t.Errorf("resolution = %dx%d", params.ScreenW, params.ScreenH)
	}
}

func TestResolveComputesAndPersists(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	e := newTestEngine(t, store)
	path := writePNG(t, 400, 100) // very wide image on a 16:9 screen

	entry := models.Entry{
		MediaID:     "cafebabe00000000",
		LocalPath:   path,
		MediaKind:   models.KindPhoto,
		CachedFaces: []models.FaceRect{}, // detection ran, nothing found
	}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	params := e.Resolve(entry, 1920, 1080)
	// Image aspect 4.0 vs screen 1.78: fill must trim the sides.
	if params.Crop.W >= 1 {
		t.Errorf("crop width = %v, want < 1 for a wide image", params.Crop.W)
	}
	if !almostEqual(params.Crop.H, 1) {
		t.Errorf("crop height = %v, want 1", params.Crop.H)
	}

	// The result is memoized on the entry.
	stored, _ := store.Get(entry.MediaID)
	if stored.DisplayParams == nil {
		t.Fatal("display params not persisted")
	}
	if !stored.DisplayParams.MatchesResolution(1920, 1080) {
		t.Error("persisted params carry the wrong resolution")
	}
}

func TestResolveMemoized(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	e := newTestEngine(t, store)

	memo := &models.DisplayParams{
		ScreenW: 1920,
		ScreenH: 1080,
		Crop:    models.Rect{X: 0.1, Y: 0.2, W: 0.5, H: 0.5},
	}
	entry := models.Entry{
		MediaID:       "feedface00000000",
		LocalPath:     "/nonexistent/never-read.jpg",
		MediaKind:     models.KindPhoto,
		DisplayParams: memo,
	}

	// The file does not exist; a memoized hit must not touch it.
	params := e.Resolve(entry, 1920, 1080)
	if params.Crop != memo.Crop {
		t.Errorf("crop = %+v, want memoized %+v", params.Crop, memo.Crop)
	}
}

func TestResolveRecomputesOnResolutionChange(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	e := newTestEngine(t, store)
	path := writePNG(t, 200, 200)

	entry := models.Entry{
		MediaID:       "0123456789abcdef",
		LocalPath:     path,
		MediaKind:     models.KindPhoto,
		CachedFaces:   []models.FaceRect{},
		DisplayParams: &models.DisplayParams{ScreenW: 800, ScreenH: 600, Crop: models.FullFrame()},
	}
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}

	params := e.Resolve(entry, 1920, 1080)
	if params.ScreenW != 1920 {
		t.Errorf("params kept stale resolution %d", params.ScreenW)
	}
	// Square image on a 16:9 screen: fill trims top/bottom.
	if params.Crop.H >= 1 {
		t.Errorf("crop height = %v, want < 1", params.Crop.H)
	}
}
