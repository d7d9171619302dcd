// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package dist implements the scalar sampling distributions used by a
// photon source: delta, uniform, normal, isotropic azimuth, and the
// Henyey-Greenstein cosine-theta distribution.
//
// Distributions are a tagged-variant sum type, not an interface
// hierarchy, so the hot sampling path monomorphizes on a plain switch
// instead of a vtable call (design note, §9).
package dist

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/js-arias/mcwalk/rng"
	"gonum.org/v1/gonum/stat/distuv"
)

// Kind identifies the concrete shape of a Sampler.
type Kind int

// Valid kinds of distributions.
const (
	// Delta always returns A.
	Delta Kind = iota

	// Uniform returns a value uniform in [A, B).
	Uniform

	// Normal is a Gaussian with mean A and full-width-half-maximum B.
	Normal

	// IsotropicAzimuth is uniform in [0, 2π).
	IsotropicAzimuth

	// CosThetaHG returns cos θ from the Henyey-Greenstein phase
	// function with anisotropy A.
	CosThetaHG
)

// hgEps is the anisotropy magnitude below which CosThetaHG falls back
// to a uniform cos θ in [-1, 1) (§4.B).
const hgEps = 1e-6

// A Sampler is a scalar distribution over a random stream. The zero
// value is a Delta at 0.
type Sampler struct {
	Kind Kind

	// A and B hold the kind-specific parameters:
	//
	//	Delta:            A = constant value
	//	Uniform:          A, B = [A, B) bounds
	//	Normal:           A = mean, B = FWHM
	//	IsotropicAzimuth: unused
	//	CosThetaHG:       A = anisotropy g
	A, B float64
}

// NewDelta returns a Sampler that always returns c.
func NewDelta(c float64) Sampler {
	return Sampler{Kind: Delta, A: c}
}

// NewUniform returns a Sampler uniform in [a, b).
func NewUniform(a, b float64) Sampler {
	return Sampler{Kind: Uniform, A: a, B: b}
}

// NewNormal returns a Gaussian Sampler with the given mean and
// full-width-half-maximum.
func NewNormal(mu, fwhm float64) Sampler {
	return Sampler{Kind: Normal, A: mu, B: fwhm}
}

// NewIsotropicAzimuth returns a Sampler uniform in [0, 2π).
func NewIsotropicAzimuth() Sampler {
	return Sampler{Kind: IsotropicAzimuth}
}

// NewCosThetaHG returns a Sampler of cos θ under the Henyey-Greenstein
// phase function with the given anisotropy.
func NewCosThetaHG(g float64) Sampler {
	return Sampler{Kind: CosThetaHG, A: g}
}

// fwhmToSigma converts a full-width-half-maximum to a standard
// deviation: σ = FWHM / (2√(2 ln 2)).
const fwhmToSigmaFactor = 1.0 / (2 * 1.1774100225154747 /* sqrt(2*ln2) */)

// Sample draws a single value from the distribution, using r as the
// source of randomness. Every draw made during a walker's lifetime must
// come from the worker's own stream (§4.B).
func (s Sampler) Sample(r *rng.Stream) float64 {
	switch s.Kind {
	case Delta:
		return s.A
	case Uniform:
		return r.Uniform(s.A, s.B)
	case Normal:
		sigma := s.B * fwhmToSigmaFactor
		n := distuv.Normal{Mu: s.A, Sigma: sigma, Src: r}
		return n.Rand()
	case IsotropicAzimuth:
		return r.Uniform(0, 2*math.Pi)
	case CosThetaHG:
		g := s.A
		if math.Abs(g) < hgEps {
			return r.Uniform(-1, 1)
		}
		xi := r.Uniform01()
		num := 1 - g*g
		den := 1 - g + 2*g*xi
		term := num / den
		return (1 / (2 * g)) * (1 + g*g - term*term)
	default:
		panic(fmt.Sprintf("dist: unknown kind %d", s.Kind))
	}
}

// ensure *rng.Stream satisfies the interfaces distuv needs.
var (
	_ rand.Source64 = (*rng.Stream)(nil)
)
