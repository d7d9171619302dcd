// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package source implements the photon source: the composition of
// position, angular, and temporal distributions into a walker
// initializer.
package source

import (
	"math"

	"github.com/js-arias/mcwalk/dist"
	"github.com/js-arias/mcwalk/rng"
	"github.com/js-arias/mcwalk/walker"
)

// A Source composes three position samplers, a cos θ and an azimuth
// sampler, and a walk-time sampler into a walker initializer.
type Source struct {
	RX, RY, RZ dist.Sampler
	CosTheta   dist.Sampler
	Psi        dist.Sampler
	WalkTime   dist.Sampler
}

// New returns a Source with every component set to a point/isotropic
// default (a delta at 0 for position and time, and an isotropic
// direction). Set its fields directly, or use one of the named
// constructors below, to customize it.
func New() Source {
	return Source{
		RX:       dist.NewDelta(0),
		RY:       dist.NewDelta(0),
		RZ:       dist.NewDelta(0),
		CosTheta: dist.NewUniform(-1, 1),
		Psi:      dist.NewIsotropicAzimuth(),
		WalkTime: dist.NewDelta(0),
	}
}

// PencilBeam returns a Source that launches every walker from the
// origin, straight down the z axis, at t=0.
func PencilBeam() Source {
	return Source{
		RX:       dist.NewDelta(0),
		RY:       dist.NewDelta(0),
		RZ:       dist.NewDelta(0),
		CosTheta: dist.NewDelta(1),
		Psi:      dist.NewDelta(0),
		WalkTime: dist.NewDelta(0),
	}
}

// GaussianBeam returns a Source that draws x and y from independent
// normal distributions with the given full-width-half-maximum values,
// launching straight down the z axis from z=0.
func GaussianBeam(fwhmX, fwhmY float64) Source {
	return Source{
		RX:       dist.NewNormal(0, fwhmX),
		RY:       dist.NewNormal(0, fwhmY),
		RZ:       dist.NewDelta(0),
		CosTheta: dist.NewDelta(1),
		Psi:      dist.NewDelta(0),
		WalkTime: dist.NewDelta(0),
	}
}

// IsotropicPoint returns a Source that launches every walker from a
// fixed point (0, 0, z0) in an isotropic direction.
func IsotropicPoint(z0 float64) Source {
	return Source{
		RX:       dist.NewDelta(0),
		RY:       dist.NewDelta(0),
		RZ:       dist.NewDelta(z0),
		CosTheta: dist.NewUniform(-1, 1),
		Psi:      dist.NewIsotropicAzimuth(),
		WalkTime: dist.NewDelta(0),
	}
}

// Spin draws a new walker.State from the source's distributions, using
// r as the source of randomness (§4.D).
func (s Source) Spin(r *rng.Stream) walker.State {
	x := s.RX.Sample(r)
	y := s.RY.Sample(r)
	z := s.RZ.Sample(r)

	cosTheta := s.CosTheta.Sample(r)
	if cosTheta > 1 {
		cosTheta = 1
	}
	if cosTheta < -1 {
		cosTheta = -1
	}
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	psi := s.Psi.Sample(r)

	k := [3]float64{
		sinTheta * math.Cos(psi),
		sinTheta * math.Sin(psi),
		cosTheta,
	}

	t := s.WalkTime.Sample(r)

	return walker.State{
		R0:       [3]float64{x, y, z},
		K0:       k,
		WalkTime: t,
	}
}
