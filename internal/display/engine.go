// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package display computes per-entry display parameters: the crop region
// that maps a source image onto the screen under the scaling policy, and
// the optional Ken-Burns animation. Results are memoized on the catalog
// entry keyed by screen resolution; fingerprint invalidation across runs
// is the catalog's load-time job, and callers changing settings at
// runtime reset display_params before asking again.
package display

import (
	"image"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	// Header decoders for aspect sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/photoloop/photoloop/internal/annotate"
	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/models"
)

// SaliencyDetector is the optional external saliency collaborator.
type SaliencyDetector interface {
	// SaliencyMap returns a row-major 2D grid of non-negative saliency
	// values for the image.
	SaliencyMap(imagePath string) ([][]float64, error)
}

// AestheticCropper is the optional external best-of-N crop collaborator.
type AestheticCropper interface {
	// BestCrop proposes a normalized crop at the target aspect ratio.
	BestCrop(imagePath string, targetAspect float64) (models.Rect, error)
}

// Engine resolves display parameters for entries.
type Engine struct {
	store     *catalog.Store
	annotator *annotate.Annotator
	saliency  SaliencyDetector
	aesthetic AestheticCropper

	mu        sync.Mutex
	scaling   config.ScalingConfig
	animation config.AnimationConfig
	dwell     time.Duration
	rng       *rand.Rand
}

// NewEngine creates a display engine. saliency and aesthetic may be nil;
// the affected smart-crop methods then degrade to the fallback position.
func NewEngine(store *catalog.Store, annotator *annotate.Annotator, saliency SaliencyDetector, aesthetic AestheticCropper, cfg *config.Config) *Engine {
	return &Engine{
		store:     store,
		annotator: annotator,
		saliency:  saliency,
		aesthetic: aesthetic,
		scaling:   cfg.Scaling,
		animation: cfg.Animation,
		dwell:     cfg.Dwell(),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetPolicies applies reloaded scaling/animation settings. The caller is
// responsible for having cleared stale display_params (the catalog does
// this through the fingerprint on restart; a hot reload calls
// Store-level clearing first).
func (e *Engine) SetPolicies(scaling config.ScalingConfig, animation config.AnimationConfig, dwell time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scaling = scaling
	e.animation = animation
	e.dwell = dwell
}

// Resolve returns display parameters for the entry at the given screen
// resolution, reusing the memoized value when it matches. Never fails:
// an unreadable image yields the default full-frame crop.
func (e *Engine) Resolve(entry models.Entry, screenW, screenH int) models.DisplayParams {
	if entry.DisplayParams.MatchesResolution(screenW, screenH) {
		metrics.DisplayParamsComputed.WithLabelValues("memoized").Inc()
		return *entry.DisplayParams
	}

	start := time.Now()
	params, ok := e.compute(entry, screenW, screenH)
	metrics.DisplayComputeDuration.Observe(time.Since(start).Seconds())
	if ok {
		metrics.DisplayParamsComputed.WithLabelValues("computed").Inc()
	} else {
		metrics.DisplayParamsComputed.WithLabelValues("fallback").Inc()
	}

	if _, err := e.store.Update(entry.MediaID, func(en *models.Entry) {
		en.DisplayParams = &params
	}); err != nil {
		logging.Warn().Str("media_id", entry.MediaID).Err(err).Msg("failed to persist display params")
	}
	return params
}

// compute performs the full computation. ok is false when the image was
// unreadable and the default was used.
func (e *Engine) compute(entry models.Entry, screenW, screenH int) (models.DisplayParams, bool) {
	e.mu.Lock()
	scaling := e.scaling
	animation := e.animation
	dwell := e.dwell
	e.mu.Unlock()

	imgW, imgH, err := imageDimensions(entry.LocalPath)
	if err != nil || imgW <= 0 || imgH <= 0 {
		logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("image unreadable, using default crop")
		return models.DisplayParams{
			ScreenW: screenW,
			ScreenH: screenH,
			Crop:    models.FullFrame(),
		}, false
	}

	imgAspect := float64(imgW) / float64(imgH)
	scrAspect := float64(screenW) / float64(screenH)

	cw, ch := cropSize(scaling.Mode, imgAspect, scrAspect, scaling.MaxCropPercent)
	crop := e.positionCrop(entry, scaling, cw, ch, imgW, imgH)
	crop = applyBias(crop, scaling.CropBias, significantFaceBox(entry.CachedFaces))

	params := models.DisplayParams{
		ScreenW: screenW,
		ScreenH: screenH,
		Crop:    crop,
	}
	if animation.Enabled {
		params.Animation = e.deriveAnimation(crop, animation, dwell.Seconds())
	}
	return params, true
}

// positionCrop places a cw×ch crop according to the smart-crop method,
// degrading to the fallback position whenever the needed collaborator is
// unavailable or silent.
func (e *Engine) positionCrop(entry models.Entry, scaling config.ScalingConfig, cw, ch float64, imgW, imgH int) models.Rect {
	if cw >= 1 && ch >= 1 {
		return models.FullFrame()
	}

	switch scaling.SmartCropMethod {
	case "face":
		faces := e.annotator.EnsureFaces(entry)
		if box, ok := unionSignificantFaces(faces); ok {
			return positionByFaces(box, cw, ch, scaling.FacePosition)
		}

	case "saliency":
		if e.saliency != nil {
			if salMap, err := e.saliency.SaliencyMap(entry.LocalPath); err == nil {
				if crop, ok := positionBySaliency(salMap, cw, ch, scaling.SaliencyThreshold, scaling.SaliencyCoverage); ok {
					return crop
				}
			} else {
				logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("saliency unavailable")
			}
		}

	case "aesthetic":
		if crop, ok := e.positionByAesthetic(entry, cw, ch, imgW, imgH); ok {
			return crop
		}
	}

	return positionFallback(cw, ch, scaling.FallbackCrop)
}

// positionByAesthetic asks the external cropper for a best-of-N crop and
// re-centers ours on it; falls back to saliency-center with a
// rule-of-thirds target when the cropper is unavailable.
func (e *Engine) positionByAesthetic(entry models.Entry, cw, ch float64, imgW, imgH int) (models.Rect, bool) {
	targetAspect := (cw * float64(imgW)) / (ch * float64(imgH))

	if e.aesthetic != nil {
		best, err := e.aesthetic.BestCrop(entry.LocalPath, targetAspect)
		if err == nil && best.W > 0 && best.H > 0 {
			return centerCropAt(cw, ch, best.X+best.W/2, best.Y+best.H/2), true
		}
		logging.Debug().Str("media_id", entry.MediaID).Err(err).Msg("aesthetic cropper unavailable")
	}

	if e.saliency != nil {
		if salMap, err := e.saliency.SaliencyMap(entry.LocalPath); err == nil {
			if cx, cy, ok := saliencyCentroid(salMap); ok {
				// Rule of thirds: put the centroid a third of the way
				// down the crop rather than dead center.
				x := clamp(cx-cw/2, 0, 1-cw)
				y := clamp(cy-ch/3, 0, 1-ch)
				return models.Rect{X: x, Y: y, W: cw, H: ch}, true
			}
		}
	}
	return models.Rect{}, false
}

// imageDimensions reads just the image header.
func imageDimensions(path string) (int, int, error) {
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
