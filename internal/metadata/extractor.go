// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package metadata extracts embedded media metadata (EXIF/IPTC) behind a
// narrow contract. The byte-level parsing is delegated to bep/imagemeta;
// only the semantic outputs (date taken, caption, GPS, dimensions) cross
// the package boundary. Extraction failures are soft: an entry is still
// created without the missing fields.
package metadata

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Stdlib decoders registered for the dimension fallback.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bep/imagemeta"

	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/models"
)

// Meta is the semantic output of extraction. Zero fields mean "not
// present in the file".
type Meta struct {
	DateTaken *time.Time
	Caption   string
	GPS       *models.GPSCoord
	Width     int
	Height    int
}

// Extractor is the contract the ingest path depends on.
type Extractor interface {
	Extract(path string) (Meta, error)
}

// ImagemetaExtractor implements Extractor with bep/imagemeta.
type ImagemetaExtractor struct{}

// NewImagemetaExtractor returns the default extractor.
func NewImagemetaExtractor() *ImagemetaExtractor {
	return &ImagemetaExtractor{}
}

// formatFor maps a file extension onto imagemeta's format enum.
func formatFor(path string) (imagemeta.ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imagemeta.JPEG, true
	case ".png":
		return imagemeta.PNG, true
	case ".webp":
		return imagemeta.WebP, true
	case ".tif", ".tiff":
		return imagemeta.TIFF, true
	default:
		return 0, false
	}
}

// Extract reads embedded metadata from the file at path. Unsupported
// formats return only the dimension fallback; a fully unreadable file
// returns an error the caller logs at debug level.
func (x *ImagemetaExtractor) Extract(path string) (Meta, error) {
	var meta Meta

	format, supported := formatFor(path)
	if supported {
		if err := x.decodeTags(path, format, &meta); err != nil {
			logging.Debug().Str("path", path).Err(err).Msg("embedded metadata decode failed")
		}
	}

	if meta.Width == 0 || meta.Height == 0 {
		if w, h, err := sniffDimensions(path); err == nil {
			meta.Width, meta.Height = w, h
		} else if !supported {
			return meta, fmt.Errorf("extract %s: %w", path, err)
		}
	}
	return meta, nil
}

// decodeTags runs imagemeta over the file and fills meta.
func (x *ImagemetaExtractor) decodeTags(path string, format imagemeta.ImageFormat, meta *Meta) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	var tags imagemeta.Tags
	err = imagemeta.Decode(imagemeta.Options{
		R:           f,
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return true
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			tags.Add(ti)
			return nil
		},
	})
	if err != nil {
		return err
	}

	if dt, err := tags.GetDateTime(); err == nil && !dt.IsZero() {
		meta.DateTaken = &dt
	}
	if lat, lon, err := tags.GetLatLong(); err == nil && (lat != 0 || lon != 0) {
		meta.GPS = &models.GPSCoord{Latitude: lat, Longitude: lon}
	}

	exif := tags.EXIF()
	iptc := tags.IPTC()
	meta.Caption = firstTagString(
		tagValue(iptc, "Caption-Abstract"),
		tagValue(exif, "ImageDescription"),
		tagValue(iptc, "ObjectName"),
	)
	meta.Width = tagInt(exif, "PixelXDimension", "ImageWidth")
	meta.Height = tagInt(exif, "PixelYDimension", "ImageLength")
	return nil
}

// sniffDimensions decodes only the image header for width/height.
func sniffDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close() //nolint:errcheck // read-only
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// tagValue returns a tag's value or nil.
func tagValue(m map[string]imagemeta.TagInfo, name string) any {
	if ti, ok := m[name]; ok {
		return ti.Value
	}
	return nil
}

// firstTagString returns the first non-empty string among the values.
func firstTagString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// tagInt returns the first of the named tags convertible to a positive int.
func tagInt(m map[string]imagemeta.TagInfo, names ...string) int {
	for _, name := range names {
		ti, ok := m[name]
		if !ok {
			continue
		}
		switch v := ti.Value.(type) {
		case int:
			if v > 0 {
				return v
			}
		case int64:
			if v > 0 {
				return int(v)
			}
		case uint16:
			if v > 0 {
				return int(v)
			}
		case uint32:
			if v > 0 {
				return int(v)
			}
		case float64:
			if v > 0 {
				return int(v)
			}
		}
	}
	return 0
}
