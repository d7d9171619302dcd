// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package walker

import (
	"math"

	"github.com/js-arias/mcwalk/dist"
	"github.com/js-arias/mcwalk/mcerr"
	"github.com/js-arias/mcwalk/rng"
	"github.com/js-arias/mcwalk/sample"
)

// Numerical policy constants. Kept as two distinct thresholds: unifying
// them would change the numerical edge cases the acceptance scenarios
// depend on.
const (
	// nearAxisCos guards the direction-sampling frame change: above
	// this |k0.z| the scattering frame is built along the z axis
	// directly instead of the general rotated frame.
	nearAxisCos = 1 - 1e-6

	// nearNormalCos guards the Fresnel reflectance shortcut: above
	// this |k.z| the simplified normal-incidence formula is used
	// instead of the general angle-difference formula.
	nearNormalCos = 1 - 1e-12
)

// An Engine runs walkers through a Sample.
type Engine struct {
	// Sample is the layered medium the walker propagates through.
	Sample *sample.Sample

	// TimeOriginZ is the z coordinate at which WalkTime is defined
	// to be zero, measured at normal incidence from the walker's
	// launch point (§4.E).
	TimeOriginZ float64

	// Fresnel enables Fresnel reflectance at index-mismatched
	// interfaces. When false, every non-TIR crossing refracts.
	Fresnel bool
}

// NewEngine creates an Engine over the given sample, with Fresnel
// reflectance enabled.
func NewEngine(s *sample.Sample) *Engine {
	return &Engine{Sample: s, Fresnel: true}
}

// Run advances a walker, initialized by a Source's Spin, to exit and
// returns its classified result.
//
// A non-finite intermediate value (a step that can never reach a
// boundary, an exit-direction component, or the accumulated walk time)
// is reported as a *mcerr.Error with Kind NumericalAnomaly carrying
// seed and walker index; the caller must discard the walker rather
// than fold it into results (§7).
func (e *Engine) Run(w State, seed uint64, walkerIdx int, r *rng.Stream) (Result, error) {
	s := e.Sample
	numLayers := s.NumLayers()

	walkTime := w.WalkTime - s.TransitTime(w.R0[2], e.TimeOriginZ)

	r0, k0 := w.R0, w.K0
	currentLayer := s.LayerAt(r0[2])

	scatterPending := false
	scatteredReal := false
	var inLayerPath float64

	// The loop is entered even when currentLayer already names a
	// sentinel: a walker launched exactly at the sample's top boundary
	// starts there by definition (§4: interfaces belong to the
	// layer above), and its first step is the zero-length crossing
	// into layer 1. Exit is only recognized after a step actually
	// lands back in a sentinel, checked at the bottom of the loop.
	for {
		mat := s.Layer(currentLayer).Material
		lower := s.LowerBound(currentLayer)
		upper := s.UpperBound(currentLayer)

		var L float64
		if math.IsInf(mat.Ls, 1) {
			L = math.Inf(1)
		} else {
			L = r.Exponential(mat.Ls)
		}

		k1 := k0
		if scatterPending {
			k1 = sampleDirection(k0, mat.G, r)
		}

		if !math.IsInf(L, 1) {
			r1 := add(r0, scale(k1, L))
			if r1[2] > lower && r1[2] < upper {
				// the full exponential step fits inside the
				// current layer: this is a scattering event.
				r0 = r1
				k0 = k1
				inLayerPath += L
				scatterPending = true
				if currentLayer >= 1 && currentLayer <= numLayers {
					scatteredReal = true
				}
				continue
			}
		}

		// the step leaves the current layer: find the boundary it
		// crosses and the time spent reaching it.
		if k1[2] == 0 {
			return Result{}, anomaly(seed, walkerIdx, "walker.Run: horizontal direction cannot reach a boundary")
		}
		var boundaryZ float64
		var nextLayer int
		if k1[2] > 0 {
			boundaryZ = upper
			nextLayer = currentLayer + 1
		} else {
			boundaryZ = lower
			nextLayer = currentLayer - 1
		}
		t := (boundaryZ - r0[2]) / k1[2]
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return Result{}, anomaly(seed, walkerIdx, "walker.Run: boundary intersection")
		}
		r0 = add(r0, scale(k1, t))
		inLayerPath += t
		scatterPending = false

		n0 := mat.N
		n1 := s.Layer(nextLayer).Material.N

		if n0 != n1 {
			crossed, newDir := e.fresnelOrTIR(k1, n0, n1, r)
			k1 = newDir
			if !crossed {
				nextLayer = currentLayer
			}
		}
		k1 = normalize(k1)
		if math.IsNaN(k1[0]) || math.IsNaN(k1[1]) || math.IsNaN(k1[2]) {
			return Result{}, anomaly(seed, walkerIdx, "walker.Run: direction failed to renormalize")
		}

		// crossing (or bouncing back after TIR/Fresnel reflection)
		// commits the time spent traversing the old layer.
		walkTime += inLayerPath / mat.V()
		inLayerPath = 0
		k0 = k1
		currentLayer = nextLayer

		if currentLayer == 0 || currentLayer == numLayers+1 {
			break
		}
	}

	if math.IsNaN(walkTime) || walkTime < 0 {
		return Result{}, anomaly(seed, walkerIdx, "walker.Run: walk time")
	}

	return Result{
		Class:    classify(currentLayer, numLayers, scatteredReal),
		Point:    r0,
		Dir:      k0,
		WalkTime: walkTime,
	}, nil
}

func classify(finalLayer, numLayers int, scatteredReal bool) ExitClass {
	if finalLayer == numLayers+1 {
		if scatteredReal {
			return Transmitted
		}
		return Ballistic
	}
	if scatteredReal {
		return Reflected
	}
	return BackReflected
}

func anomaly(seed uint64, idx int, op string) error {
	return &mcerr.Error{Kind: mcerr.NumericalAnomaly, Op: op, Seed: seed, Walker: idx}
}

// sampleDirection draws a new direction from the Henyey-Greenstein
// phase function with anisotropy g, in the frame aligned with k0
// (§4.E, step 2).
func sampleDirection(k0 [3]float64, g float64, r *rng.Stream) [3]float64 {
	hg := dist.NewCosThetaHG(g)
	cosTheta := hg.Sample(r)
	if cosTheta > 1 {
		cosTheta = 1
	}
	if cosTheta < -1 {
		cosTheta = -1
	}
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	psi := r.Uniform(0, 2*math.Pi)
	cosPsi := math.Cos(psi)
	sinPsi := math.Sin(psi)

	var k1 [3]float64
	if math.Abs(k0[2]) > nearAxisCos {
		sign := 1.0
		if k0[2] < 0 {
			sign = -1
		}
		k1 = [3]float64{sinTheta * cosPsi, sinTheta * sinPsi, sign * cosTheta}
	} else {
		t := math.Sqrt(1 - k0[2]*k0[2])
		k1[0] = sinTheta*(k0[0]*k0[2]*cosPsi-k0[1]*sinPsi)/t + cosTheta*k0[0]
		k1[1] = sinTheta*(k0[1]*k0[2]*cosPsi+k0[0]*sinPsi)/t + cosTheta*k0[1]
		k1[2] = -sinTheta*cosPsi*t + cosTheta*k0[2]
	}
	return normalize(k1)
}

// fresnelOrTIR resolves a boundary crossing between two media of
// refractive index n0 (current side) and n1 (proposed side). It
// returns whether the walker crosses into the new medium, and the
// (possibly reflected) direction.
func (e *Engine) fresnelOrTIR(k1 [3]float64, n0, n1 float64, r *rng.Stream) (crossed bool, dir [3]float64) {
	sinTheta0 := math.Sqrt(1 - k1[2]*k1[2])
	sinTheta1 := n0 * sinTheta0 / n1

	if sinTheta1 > 1 {
		// total internal reflection: always reflected.
		k1[2] = -k1[2]
		return false, k1
	}

	cosTheta1 := math.Sqrt(1 - sinTheta1*sinTheta1)

	if !e.Fresnel {
		return true, refract(k1, n0, n1, cosTheta1)
	}

	var refl float64
	absCos := math.Abs(k1[2])
	if absCos > nearNormalCos {
		refl = math.Pow((n1-n0)/(n1+n0), 2)
	} else {
		theta0 := math.Acos(absCos)
		theta1 := math.Acos(cosTheta1)
		sinDiff := math.Sin(theta0 - theta1)
		cosDiff := math.Cos(theta0 - theta1)
		cosSum := math.Cos(theta0 + theta1)
		sinSum := math.Sin(theta0 + theta1)
		refl = 0.5 * (sinDiff * sinDiff) * (cosDiff*cosDiff + cosSum*cosSum) / (sinSum * sinSum * cosDiff * cosDiff)
	}

	xi := r.Uniform01()
	if xi <= refl {
		k1[2] = -k1[2]
		return false, k1
	}
	return true, refract(k1, n0, n1, cosTheta1)
}

func refract(k1 [3]float64, n0, n1, cosTheta1 float64) [3]float64 {
	ratio := n0 / n1
	k1[0] *= ratio
	k1[1] *= ratio
	sign := 1.0
	if k1[2] < 0 {
		sign = -1
	}
	k1[2] = sign * cosTheta1
	return k1
}
