// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sample_test

import (
	"math"
	"testing"

	"github.com/js-arias/mcwalk/sample"
)

func TestLayerAtAndBounds(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	tissue := sample.Material{Ls: 0.1, G: 0.9, N: 1.4}

	s := sample.New(air, air)
	if err := s.Add(tissue, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(tissue, 2.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if n := s.NumLayers(); n != 2 {
		t.Fatalf("NumLayers: got %d, want 2", n)
	}

	tests := []struct {
		z    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{0.5, 1},
		{1.0, 1},
		{1.5, 2},
		{3.0, 2},
		{3.5, 3},
	}
	for _, tt := range tests {
		if got := s.LayerAt(tt.z); got != tt.want {
			t.Errorf("LayerAt(%v): got %d, want %d", tt.z, got, tt.want)
		}
	}

	if lo := s.LowerBound(1); lo != 0 {
		t.Errorf("LowerBound(1): got %v, want 0", lo)
	}
	if up := s.UpperBound(1); up != 1.0 {
		t.Errorf("UpperBound(1): got %v, want 1.0", up)
	}
	if lo := s.LowerBound(0); !math.IsInf(lo, -1) {
		t.Errorf("LowerBound(0): got %v, want -Inf", lo)
	}
}

func TestPrelayerShiftsBoundaries(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	glass := sample.Material{Ls: math.Inf(1), G: 0, N: 1.5}
	tissue := sample.Material{Ls: 0.1, G: 0.9, N: 1.4}

	s := sample.New(air, air)
	if err := s.Add(tissue, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Prelayer(glass, 0.5); err != nil {
		t.Fatalf("Prelayer: %v", err)
	}

	if n := s.NumLayers(); n != 2 {
		t.Fatalf("NumLayers: got %d, want 2", n)
	}
	if up := s.UpperBound(1); up != 0.5 {
		t.Errorf("UpperBound(1) after prelayer: got %v, want 0.5", up)
	}
	if up := s.UpperBound(2); up != 1.5 {
		t.Errorf("UpperBound(2) after prelayer: got %v, want 1.5", up)
	}
}

func TestMaterialValidate(t *testing.T) {
	bad := []sample.Material{
		{Ls: 0, G: 0, N: 1},
		{Ls: 1, G: 2, N: 1},
		{Ls: 1, G: 0, N: 0},
	}
	for i, m := range bad {
		if err := m.Validate(); err == nil {
			t.Errorf("case %d: expected an error, got nil", i)
		}
	}

	good := sample.Material{Ls: 1, G: 0.5, N: 1.4}
	if err := good.Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestTransitTimeSign(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	s := sample.New(air, air)
	if err := s.Add(air, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	fwd := s.TransitTime(-1, 1)
	back := s.TransitTime(1, -1)
	if fwd <= 0 {
		t.Errorf("forward transit time should be positive, got %v", fwd)
	}
	if back >= 0 {
		t.Errorf("backward transit time should be negative, got %v", back)
	}
	if math.Abs(fwd+back) > 1e-12 {
		t.Errorf("transit time should be antisymmetric: fwd=%v back=%v", fwd, back)
	}
}

func TestMaterialSpeedAndScattering(t *testing.T) {
	m := sample.Material{Ls: 0.2, G: 0, N: 1.5}
	if got, want := m.Mus(), 5.0; got != want {
		t.Errorf("Mus: got %v, want %v", got, want)
	}
	if got, want := m.V(), sample.SpeedOfLight/1.5; got != want {
		t.Errorf("V: got %v, want %v", got, want)
	}
}
