// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package metadata

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractDimensionsWithoutTags(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, 640, 480)
	meta, err := NewImagemetaExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if meta.Width != 640 || meta.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", meta.Width, meta.Height)
	}
	if meta.DateTaken != nil || meta.Caption != "" || meta.GPS != nil {
		t.Errorf("bare image produced metadata: %+v", meta)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewImagemetaExtractor().Extract(path); err == nil {
		t.Error("Extract() on a non-image succeeded")
	}
}

func TestExtractCorruptImageIsSoft(t *testing.T) {
	t.Parallel()

	// A .jpg that is not a JPEG: tag decode and the dimension sniff both
	// fail, but the supported extension keeps it a soft miss.
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	meta, err := NewImagemetaExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v, want soft failure", err)
	}
	if meta.Width != 0 || meta.Height != 0 {
		t.Errorf("garbage produced dimensions %dx%d", meta.Width, meta.Height)
	}
}

func TestFirstTagString(t *testing.T) {
	t.Parallel()

	if got := firstTagString(nil, "  ", "Sunset at the lake", "ignored"); got != "Sunset at the lake" {
		t.Errorf("firstTagString() = %q", got)
	}
	if got := firstTagString(nil, 42, ""); got != "" {
		t.Errorf("firstTagString() = %q, want empty", got)
	}
}
