// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package display

import (
	"testing"

	"github.com/photoloop/photoloop/internal/models"
)

func TestUnionSignificantFaces(t *testing.T) {
	t.Parallel()

	faces := []models.FaceRect{
		{X: 0.1, Y: 0.1, W: 0.1, H: 0.1, Confidence: 0.9},
		{X: 0.5, Y: 0.3, W: 0.1, H: 0.1, Confidence: 0.8},
		{X: 0.9, Y: 0.9, W: 0.005, H: 0.005, Confidence: 0.99}, // background speck
	}
	box, ok := unionSignificantFaces(faces)
	if !ok {
		t.Fatal("no significant faces found")
	}
	if !almostEqual(box.X, 0.1) || !almostEqual(box.Y, 0.1) {
		t.Errorf("box origin = (%v, %v), want (0.1, 0.1)", box.X, box.Y)
	}
	if !almostEqual(box.X+box.W, 0.6) || !almostEqual(box.Y+box.H, 0.4) {
		t.Errorf("box extent = (%v, %v), want (0.6, 0.4)", box.X+box.W, box.Y+box.H)
	}

	if _, ok := unionSignificantFaces([]models.FaceRect{{X: 0.5, Y: 0.5, W: 0.01, H: 0.01}}); ok {
		t.Error("tiny face counted as significant")
	}
	if _, ok := unionSignificantFaces(nil); ok {
		t.Error("empty face list produced a box")
	}
}

func TestPositionByFacesTargetsHeadLine(t *testing.T) {
	t.Parallel()

	// One face in the middle; the crop should put its top edge at 25% of
	// the crop height.
	box := models.Rect{X: 0.45, Y: 0.4, W: 0.1, H: 0.1}
	crop := positionByFaces(box, 0.5, 0.5, 0.25)

	if !almostEqual(crop.Y, box.Y-0.25*0.5) {
		t.Errorf("crop y = %v, want %v", crop.Y, box.Y-0.25*0.5)
	}
	if !almostEqual(crop.X, 0.25) {
		t.Errorf("crop x = %v, want 0.25 (faces centered)", crop.X)
	}
}

func TestPositionByFacesClipSafe(t *testing.T) {
	t.Parallel()

	// Face near the bottom: the ideal head-line position would clip it;
	// keeping the face inside wins.
	box := models.Rect{X: 0.4, Y: 0.85, W: 0.2, H: 0.1}
	crop := positionByFaces(box, 0.6, 0.4, 0.25)

	if crop.Y+crop.H < box.Y+box.H-eps {
		t.Errorf("face bottom %v clipped by crop bottom %v", box.Y+box.H, crop.Y+crop.H)
	}
	if crop.Y < 0 || crop.Y+crop.H > 1+eps {
		t.Errorf("crop out of frame: %+v", crop)
	}
}

func TestPositionBySaliencyFindsSubject(t *testing.T) {
	t.Parallel()

	// 20x20 map with a bright 4x4 block near the bottom right.
	salMap := make([][]float64, 20)
	for r := range salMap {
		salMap[r] = make([]float64, 20)
	}
	for r := 12; r < 16; r++ {
		for c := 14; c < 18; c++ {
			salMap[r][c] = 1
		}
	}

	crop, ok := positionBySaliency(salMap, 0.5, 0.5, 0.1, 0.5)
	if !ok {
		t.Fatal("saliency positioning failed")
	}
	// The subject block spans x [0.7,0.9), y [0.6,0.8); a 0.5x0.5 crop
	// containing it all must start at x>=0.4, y>=0.3.
	if crop.X < 0.4-eps || crop.X > 0.7+eps {
		t.Errorf("crop x = %v, subject not covered", crop.X)
	}
	if crop.Y < 0.3-eps || crop.Y > 0.6+eps {
		t.Errorf("crop y = %v, subject not covered", crop.Y)
	}
}

func TestPositionBySaliencyNoSignal(t *testing.T) {
	t.Parallel()

	flat := [][]float64{{0, 0}, {0, 0}}
	if _, ok := positionBySaliency(flat, 0.5, 0.5, 0.1, 0.5); ok {
		t.Error("empty saliency map positioned a crop")
	}
	if _, ok := positionBySaliency(nil, 0.5, 0.5, 0.1, 0.5); ok {
		t.Error("nil saliency map positioned a crop")
	}
}

func TestPositionBySaliencyDiffuseSignalBailsOut(t *testing.T) {
	t.Parallel()

	// Uniform saliency: a quarter-area crop can cover only ~25% of the
	// mass, below the 50% coverage requirement.
	salMap := make([][]float64, 20)
	for r := range salMap {
		salMap[r] = make([]float64, 20)
		for c := range salMap[r] {
			salMap[r][c] = 1
		}
	}
	if _, ok := positionBySaliency(salMap, 0.5, 0.5, 0.1, 0.5); ok {
		t.Error("diffuse saliency should fall back")
	}
}

func TestSaliencyCentroid(t *testing.T) {
	t.Parallel()

	salMap := [][]float64{
		{0, 0, 0, 0},
		{0, 0, 0, 4},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	cx, cy, ok := saliencyCentroid(salMap)
	if !ok {
		t.Fatal("centroid not found")
	}
	if !almostEqual(cx, 3.5/4) || !almostEqual(cy, 1.5/4) {
		t.Errorf("centroid = (%v, %v), want (0.875, 0.375)", cx, cy)
	}
}
