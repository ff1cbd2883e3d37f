// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package config

import (
	"fmt"

	"github.com/photoloop/photoloop/internal/models"
)

// Fingerprint summarizes the artifact-influencing settings into the three
// canonical strings the catalog persists and compares on load:
//
//   - Acquisition differs: stored downloads are invalid, the catalog is
//     emptied and everything re-acquired.
//   - Faces differs: cached_faces and display_params are cleared.
//   - Scaling differs: only display_params are cleared.
//
// The strings are deliberately flat key=value lists: stable to compute,
// human-readable in the catalog file, and insensitive to struct layout.
func (c *Config) Fingerprint() models.SettingsFingerprint {
	return models.SettingsFingerprint{
		Acquisition: c.acquisitionFingerprint(),
		Scaling:     c.scalingFingerprint(),
		Faces:       c.faceFingerprint(),
	}
}

func (c *Config) acquisitionFingerprint() string {
	return fmt.Sprintf("maxdim=%d;full=%t",
		c.Acquisition.MaxImageDimension,
		c.Acquisition.FullResolution,
	)
}

func (c *Config) scalingFingerprint() string {
	s := c.Scaling
	return fmt.Sprintf("mode=%s;maxcrop=%.4g;method=%s;facepos=%.4g;fallback=%s;salthresh=%.4g;salcover=%.4g;bias=%s",
		s.Mode, s.MaxCropPercent, s.SmartCropMethod, s.FacePosition,
		s.FallbackCrop, s.SaliencyThreshold, s.SaliencyCoverage, s.CropBias,
	)
}

func (c *Config) faceFingerprint() string {
	f := c.Faces
	return fmt.Sprintf("enabled=%t;conf=%.4g;model=%s", f.Enabled, f.MinConfidence, f.Model)
}
