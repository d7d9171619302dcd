// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package walker_test

import (
	"math"
	"testing"

	"github.com/js-arias/mcwalk/rng"
	"github.com/js-arias/mcwalk/sample"
	"github.com/js-arias/mcwalk/walker"
)

func norm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

// TestNonScatteringIndexMatchedIsBallistic checks invariant 4: a stack
// of non-scattering, index-matched layers produces only ballistic
// (downward launch) or back-reflected (upward launch) exits, never
// transmitted or reflected, and the exit direction is unchanged.
func TestNonScatteringIndexMatchedIsBallistic(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	s := sample.New(air, air)
	if err := s.Add(air, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e := walker.NewEngine(s)
	r := rng.NewStream(1)

	w := walker.State{
		R0: [3]float64{0, 0, 0},
		K0: [3]float64{0, 0, 1},
	}
	res, err := e.Run(w, 1, 0, r)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Class != walker.Ballistic {
		t.Errorf("Class: got %v, want Ballistic", res.Class)
	}
	if res.Dir != w.K0 {
		t.Errorf("Dir: got %v, want unchanged %v", res.Dir, w.K0)
	}
}

// TestExitDirectionIsUnit checks invariant 1: the exit direction is
// always a unit vector.
func TestExitDirectionIsUnit(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	tissue := sample.Material{Ls: 0.3, G: 0.8, N: 1.4}
	s := sample.New(air, air)
	if err := s.Add(tissue, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e := walker.NewEngine(s)
	for seed := uint64(1); seed <= 50; seed++ {
		r := rng.NewStream(seed)
		w := walker.State{
			R0: [3]float64{0, 0, 0},
			K0: [3]float64{0, 0, 1},
		}
		res, err := e.Run(w, seed, 0, r)
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if n := norm(res.Dir); math.Abs(n-1) > 1e-9 {
			t.Errorf("seed %d: exit direction not unit: |k|=%v", seed, n)
		}
		if res.WalkTime < 0 {
			t.Errorf("seed %d: negative walk time %v", seed, res.WalkTime)
		}
	}
}

// TestTIRAlwaysReflectsAtGrazingAngle checks invariant 8: a photon
// hitting an interface at an angle beyond the critical angle, going
// from a dense medium into a rarer one, must always undergo total
// internal reflection and never transmit.
func TestTIRAlwaysReflectsAtGrazingAngle(t *testing.T) {
	dense := sample.Material{Ls: math.Inf(1), G: 0, N: 1.5}
	rare := sample.Material{Ls: math.Inf(1), G: 0, N: 1.0}
	s := sample.New(dense, rare)
	if err := s.Add(dense, 1.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e := walker.NewEngine(s)

	// sinTheta0 = 0.95 exceeds the critical angle for n=1.5 -> n=1.0
	// (critical sinTheta = 1/1.5 = 0.667), so this must always TIR.
	sinTheta := 0.95
	cosTheta := math.Sqrt(1 - sinTheta*sinTheta)
	k := [3]float64{sinTheta, 0, cosTheta}

	for seed := uint64(1); seed <= 30; seed++ {
		r := rng.NewStream(seed)
		w := walker.State{
			R0: [3]float64{0, 0, 0.5},
			K0: k,
		}
		res, err := e.Run(w, seed, 0, r)
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if res.Class != walker.BackReflected && res.Class != walker.Reflected {
			t.Errorf("seed %d: expected a reflected exit under TIR, got %v", seed, res.Class)
		}
	}
}

// TestNearNormalFresnelMatchesClosedForm checks invariant 9: at near
// normal incidence the simplified Fresnel shortcut used by the engine
// must numerically match the general angle-difference formula.
func TestNearNormalFresnelMatchesClosedForm(t *testing.T) {
	n0, n1 := 1.0, 1.5
	want := math.Pow((n1-n0)/(n1+n0), 2)

	cosTheta0 := 1 - 1e-13 // well inside the near-normal shortcut region
	sinTheta0 := math.Sqrt(1 - cosTheta0*cosTheta0)
	sinTheta1 := n0 * sinTheta0 / n1

	// angles from asin of the (small) sines: acos of a cosine this
	// close to 1 loses most of its significant digits.
	theta0 := math.Asin(sinTheta0)
	theta1 := math.Asin(sinTheta1)
	sinDiff := math.Sin(theta0 - theta1)
	cosDiff := math.Cos(theta0 - theta1)
	cosSum := math.Cos(theta0 + theta1)
	sinSum := math.Sin(theta0 + theta1)
	general := 0.5 * (sinDiff * sinDiff) * (cosDiff*cosDiff + cosSum*cosSum) / (sinSum * sinSum * cosDiff * cosDiff)

	if math.Abs(general-want) > 1e-10 {
		t.Fatalf("general formula %v does not match normal-incidence formula %v near theta=0", general, want)
	}
}

// TestWalkTimeMonotonicAcrossRun checks invariant 2 across many
// scattering events, as far as Run exposes it: the walk time at exit is
// a number and is never below the launch time (0 here).
func TestWalkTimeMonotonicAcrossRun(t *testing.T) {
	air := sample.Material{Ls: math.Inf(1), G: 0, N: 1}
	tissue := sample.Material{Ls: 0.05, G: 0.9, N: 1.4}
	s := sample.New(air, air)
	if err := s.Add(tissue, 2.0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e := walker.NewEngine(s)
	for seed := uint64(1); seed <= 20; seed++ {
		r := rng.NewStream(seed)
		w := walker.State{
			R0: [3]float64{0, 0, 0},
			K0: [3]float64{0, 0, 1},
		}
		res, err := e.Run(w, seed, 0, r)
		if err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if math.IsNaN(res.WalkTime) || res.WalkTime < 0 {
			t.Errorf("seed %d: invalid walk time %v", seed, res.WalkTime)
		}
	}
}

func TestExitClassString(t *testing.T) {
	tests := []struct {
		c    walker.ExitClass
		want string
	}{
		{walker.Transmitted, "transmitted"},
		{walker.Ballistic, "ballistic"},
		{walker.Reflected, "reflected"},
		{walker.BackReflected, "back-reflected"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("ExitClass(%d).String(): got %q, want %q", tt.c, got, tt.want)
		}
	}
}
