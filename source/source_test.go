// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package source_test

import (
	"math"
	"testing"

	"github.com/js-arias/mcwalk/rng"
	"github.com/js-arias/mcwalk/source"
)

func norm(k [3]float64) float64 {
	return math.Sqrt(k[0]*k[0] + k[1]*k[1] + k[2]*k[2])
}

func TestPencilBeamIsFixed(t *testing.T) {
	s := source.PencilBeam()
	r := rng.NewStream(1)
	w := s.Spin(r)

	if w.R0 != ([3]float64{0, 0, 0}) {
		t.Errorf("R0: got %v, want origin", w.R0)
	}
	if w.K0 != ([3]float64{0, 0, 1}) {
		t.Errorf("K0: got %v, want (0,0,1)", w.K0)
	}
	if w.WalkTime != 0 {
		t.Errorf("WalkTime: got %v, want 0", w.WalkTime)
	}
}

func TestGaussianBeamStartsAtZAndStraightDown(t *testing.T) {
	s := source.GaussianBeam(1.0, 2.0)
	r := rng.NewStream(7)
	for i := 0; i < 100; i++ {
		w := s.Spin(r)
		if w.R0[2] != 0 {
			t.Fatalf("R0.z: got %v, want 0", w.R0[2])
		}
		if w.K0 != ([3]float64{0, 0, 1}) {
			t.Fatalf("K0: got %v, want (0,0,1)", w.K0)
		}
	}
}

func TestIsotropicPointFixesPositionVariesDirection(t *testing.T) {
	s := source.IsotropicPoint(5.0)
	r := rng.NewStream(3)

	var sumCos float64
	const n = 20000
	seenDifferent := false
	var first [3]float64
	for i := 0; i < n; i++ {
		w := s.Spin(r)
		if w.R0 != ([3]float64{0, 0, 5}) {
			t.Fatalf("R0: got %v, want (0,0,5)", w.R0)
		}
		if math.Abs(norm(w.K0)-1) > 1e-9 {
			t.Fatalf("K0 not unit: |k|=%v", norm(w.K0))
		}
		if i == 0 {
			first = w.K0
		} else if w.K0 != first {
			seenDifferent = true
		}
		sumCos += w.K0[2]
	}
	if !seenDifferent {
		t.Fatalf("isotropic source produced the same direction every draw")
	}
	if mean := sumCos / n; math.Abs(mean) > 0.02 {
		t.Fatalf("<cos theta> = %v, want ~0 for an isotropic source", mean)
	}
}

func TestSpinProducesUnitDirection(t *testing.T) {
	s := source.New()
	r := rng.NewStream(11)
	for i := 0; i < 1000; i++ {
		w := s.Spin(r)
		if math.Abs(norm(w.K0)-1) > 1e-9 {
			t.Fatalf("draw %d: |k|=%v, want 1", i, norm(w.K0))
		}
	}
}
