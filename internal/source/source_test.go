// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/photoloop/photoloop/internal/models"
)

func TestClassifyPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		kind models.MediaKind
		ok   bool
	}{
		{"holiday.jpg", models.KindPhoto, true},
		{"holiday.JPEG", models.KindPhoto, true},
		{"scan.PNG", models.KindPhoto, true},
		{"phone/IMG_0042.heic", models.KindPhoto, true},
		{"clip.mp4", models.KindVideo, true},
		{"clip.MOV", models.KindVideo, true},
		{"notes.txt", "", false},
		{"archive.zip", "", false},
		{"no-extension", "", false},
	}
	for _, tt := range tests {
		kind, ok := ClassifyPath(tt.path)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("ClassifyPath(%q) = (%q, %v), want (%q, %v)", tt.path, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestLocalInventoryWalks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWrite := func(rel string) {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("a.jpg")
	mustWrite("nested/deep/b.png")
	mustWrite("nested/clip.mp4")
	mustWrite("notes.txt")          // not media
	mustWrite(".hidden/secret.jpg") // dot directories are skipped
	mustWrite(".DS_Store")

	a := NewLocalAdapter("USB Stick", root)
	items, err := a.Inventory(context.Background(), nil)
	if err != nil {
		t.Fatalf("Inventory() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Inventory() = %d items, want 3: %+v", len(items), items)
	}

	byURI := make(map[string]Item)
	for _, it := range items {
		byURI[it.URI] = it
		if it.AlbumLabel != "USB Stick" {
			t.Errorf("item %s labeled %q", it.URI, it.AlbumLabel)
		}
	}
	if it, ok := byURI["file://"+filepath.Join(root, "nested/clip.mp4")]; !ok || it.Kind != models.KindVideo {
		t.Errorf("video item missing or misclassified: %+v", it)
	}
	if _, ok := byURI["file://"+filepath.Join(root, "nested/deep/b.png")]; !ok {
		t.Error("nested photo not found")
	}
}

func TestLocalInventoryMissingRootIsEmpty(t *testing.T) {
	t.Parallel()

	a := NewLocalAdapter("Unplugged", filepath.Join(t.TempDir(), "does-not-exist"))
	items, err := a.Inventory(context.Background(), nil)
	if err != nil {
		t.Fatalf("Inventory() error = %v, want nil for a missing root", err)
	}
	if len(items) != 0 {
		t.Errorf("Inventory() = %d items, want 0", len(items))
	}
}

func TestLocalInventoryFollowsSymlinksOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	album := filepath.Join(root, "album")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A symlink cycle back to the root must terminate, not recurse.
	if err := os.Symlink(root, filepath.Join(album, "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	a := NewLocalAdapter("Linked", root)
	items, err := a.Inventory(context.Background(), nil)
	if err != nil {
		t.Fatalf("Inventory() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Inventory() = %d items, want 1 despite the link cycle", len(items))
	}
}

type fakeInspector struct {
	uris     []string
	err      error
	calls    int
	metadata map[string]RemoteMetadata
}

func (f *fakeInspector) Inventory(_ context.Context, _ string, _ ProgressFunc) ([]string, error) {
	f.calls++
	return f.uris, f.err
}

func (f *fakeInspector) FetchMetadata(_ context.Context, _ string, uris []string, each func(RemoteMetadata)) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, uri := range uris {
		each(f.metadata[uri])
	}
	return nil
}

func TestRemoteInventory(t *testing.T) {
	t.Parallel()

	insp := &fakeInspector{uris: []string{
		"https://photos.example.com/p/1",
		"https://photos.example.com/p/2",
	}}
	a := NewRemoteAdapter("Family Album", "https://photos.example.com/share/abc", insp)

	items, err := a.Inventory(context.Background(), nil)
	if err != nil {
		t.Fatalf("Inventory() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Inventory() = %d items, want 2", len(items))
	}
	if items[0].Kind != models.KindPhoto || items[0].AlbumLabel != "Family Album" {
		t.Errorf("item = %+v", items[0])
	}
}

func TestRemoteInventoryNilInspector(t *testing.T) {
	t.Parallel()

	a := NewRemoteAdapter("Broken", "https://photos.example.com/share/abc", nil)
	_, err := a.Inventory(context.Background(), nil)

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("Inventory() error = %v, want *SourceError", err)
	}
	if srcErr.Source != "Broken" {
		t.Errorf("error names source %q", srcErr.Source)
	}
}

func TestRemoteBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	insp := &fakeInspector{err: errors.New("browser backend down")}
	a := NewRemoteAdapter("Flaky", "https://photos.example.com/share/abc", insp)

	for i := 0; i < 3; i++ {
		if _, err := a.Inventory(context.Background(), nil); err == nil {
			t.Fatal("Inventory() succeeded with a failing inspector")
		}
	}
	if insp.calls != 3 {
		t.Fatalf("inspector called %d times, want 3", insp.calls)
	}

	// Breaker is open now: the inspector is no longer invoked, but the
	// source still reports an ordinary error.
	if _, err := a.Inventory(context.Background(), nil); err == nil {
		t.Fatal("Inventory() succeeded with an open breaker")
	}
	if insp.calls != 3 {
		t.Errorf("inspector called %d times behind an open breaker, want 3", insp.calls)
	}
}

func TestRemoteFetchMetadataStreams(t *testing.T) {
	t.Parallel()

	uri := "https://photos.example.com/p/1"
	insp := &fakeInspector{metadata: map[string]RemoteMetadata{
		uri: {URI: uri, Caption: "birthday", Location: "Lisbon"},
	}}
	a := NewRemoteAdapter("Album", "https://photos.example.com/share/abc", insp)

	var got []RemoteMetadata
	err := a.FetchMetadata(context.Background(), []string{uri}, func(md RemoteMetadata) {
		got = append(got, md)
	})
	if err != nil {
		t.Fatalf("FetchMetadata() error = %v", err)
	}
	if len(got) != 1 || got[0].Caption != "birthday" {
		t.Errorf("streamed metadata = %+v", got)
	}

	// Empty request is a no-op and never touches the inspector.
	before := insp.calls
	if err := a.FetchMetadata(context.Background(), nil, nil); err != nil {
		t.Fatalf("FetchMetadata(nil) error = %v", err)
	}
	if insp.calls != before {
		t.Error("empty metadata request reached the inspector")
	}
}
