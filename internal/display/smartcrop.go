// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package display

import (
	"github.com/photoloop/photoloop/internal/models"
)

// minFaceSize is the smallest normalized face dimension treated as
// significant. Anything smaller is background crowd.
const minFaceSize = 0.02

// unionSignificantFaces returns the bounding box around all significant
// faces. ok is false when no face is significant.
func unionSignificantFaces(faces []models.FaceRect) (models.Rect, bool) {
	var box models.Rect
	found := false
	for _, f := range faces {
		if f.W < minFaceSize && f.H < minFaceSize {
			continue
		}
		if !found {
			box = models.Rect{X: f.X, Y: f.Y, W: f.W, H: f.H}
			found = true
			continue
		}
		x2 := max(box.X+box.W, f.X+f.W)
		y2 := max(box.Y+box.H, f.Y+f.H)
		box.X = min(box.X, f.X)
		box.Y = min(box.Y, f.Y)
		box.W = x2 - box.X
		box.H = y2 - box.Y
	}
	return box, found
}

// significantFaceBox is the pointer form for callers that treat "no
// faces" as nil.
func significantFaceBox(faces []models.FaceRect) *models.Rect {
	if box, ok := unionSignificantFaces(faces); ok {
		return &box
	}
	return nil
}

// positionByFaces places the crop so the top of the face box (the upper
// head line) sits at facePosition of the crop height, horizontally
// centered on the faces. When the ideal position would clip a face, the
// clip-safe correction moves the crop just enough to include it: keeping
// heads in frame beats hitting the target line.
func positionByFaces(box models.Rect, cw, ch, facePosition float64) models.Rect {
	x := box.X + box.W/2 - cw/2
	y := box.Y - facePosition*ch

	// Clip-safe correction, then frame bounds. clamp handles the
	// face-larger-than-crop case by centering on the box.
	x = clamp(x, box.X+box.W-cw, box.X)
	y = clamp(y, box.Y+box.H-ch, box.Y)
	x = clamp(x, 0, 1-cw)
	y = clamp(y, 0, 1-ch)
	return models.Rect{X: x, Y: y, W: cw, H: ch}
}

// positionBySaliency slides the crop window over the saliency map and
// keeps the position covering the most saliency mass. A coarse scan at
// step = min(cropW,cropH)/20 cells narrows the field, then an exhaustive
// scan of the winning neighborhood refines it. Values below threshold do
// not count; ok is false when the map carries no signal, or when the
// best window covers less than minCoverage of the total mass (the
// subject is too spread out for the crop to commit to).
func positionBySaliency(salMap [][]float64, cw, ch, threshold, minCoverage float64) (models.Rect, bool) {
	rows := len(salMap)
	if rows == 0 || len(salMap[0]) == 0 {
		return models.Rect{}, false
	}
	cols := len(salMap[0])

	// Summed-area table, thresholded. sat[r][c] = sum of cells above
	// threshold in [0,r)×[0,c).
	sat := make([][]float64, rows+1)
	sat[0] = make([]float64, cols+1)
	total := 0.0
	for r := 0; r < rows; r++ {
		sat[r+1] = make([]float64, cols+1)
		for c := 0; c < cols; c++ {
			v := salMap[r][c]
			if v < threshold {
				v = 0
			}
			total += v
			sat[r+1][c+1] = v + sat[r][c+1] + sat[r+1][c] - sat[r][c]
		}
	}
	if total == 0 {
		return models.Rect{}, false
	}

	cropW := max(1, int(cw*float64(cols)+0.5))
	cropH := max(1, int(ch*float64(rows)+0.5))
	cropW = min(cropW, cols)
	cropH = min(cropH, rows)

	windowSum := func(r, c int) float64 {
		return sat[r+cropH][c+cropW] - sat[r][c+cropW] - sat[r+cropH][c] + sat[r][c]
	}

	step := max(1, min(cropW, cropH)/20)

	bestR, bestC, bestSum := 0, 0, -1.0
	scan := func(r0, r1, c0, c1, stride int) {
		for r := r0; r <= r1; r += stride {
			for c := c0; c <= c1; c += stride {
				if s := windowSum(r, c); s > bestSum {
					bestSum, bestR, bestC = s, r, c
				}
			}
		}
	}

	scan(0, rows-cropH, 0, cols-cropW, step)
	// Refine the coarse winner cell by cell.
	scan(max(0, bestR-step), min(rows-cropH, bestR+step),
		max(0, bestC-step), min(cols-cropW, bestC+step), 1)

	if bestSum/total < minCoverage {
		return models.Rect{}, false
	}
	return models.Rect{
		X: clamp(float64(bestC)/float64(cols), 0, 1-cw),
		Y: clamp(float64(bestR)/float64(rows), 0, 1-ch),
		W: cw,
		H: ch,
	}, true
}

// saliencyCentroid returns the saliency-weighted center of mass in
// normalized coordinates.
func saliencyCentroid(salMap [][]float64) (cx, cy float64, ok bool) {
	rows := len(salMap)
	if rows == 0 || len(salMap[0]) == 0 {
		return 0, 0, false
	}
	cols := len(salMap[0])

	var sumX, sumY, mass float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := salMap[r][c]
			if v <= 0 {
				continue
			}
			mass += v
			sumX += v * (float64(c) + 0.5)
			sumY += v * (float64(r) + 0.5)
		}
	}
	if mass == 0 {
		return 0, 0, false
	}
	return sumX / mass / float64(cols), sumY / mass / float64(rows), true
}
