// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sample implements the layered sample model: an immutable
// stack of slabs, each characterized by a scattering mean free path,
// anisotropy, and refractive index, bounded above and below by
// sentinel half-spaces.
package sample

import (
	"fmt"
	"math"
)

// SpeedOfLight is c, in the same distance/time units as the rest of the
// sample (the engine is unit-agnostic; this constant only fixes the
// v = c/n relation).
const SpeedOfLight = 299792458.0

// A Material is an immutable optical medium.
type Material struct {
	// Ls is the scattering mean free path. +Inf marks a
	// non-scattering material.
	Ls float64

	// G is the anisotropy, in [-1, 1].
	G float64

	// N is the refractive index, > 0.
	N float64
}

// Mus is the scattering coefficient, 1/Ls.
func (m Material) Mus() float64 {
	return 1 / m.Ls
}

// V is the propagation speed in the material, c/n.
func (m Material) V() float64 {
	return SpeedOfLight / m.N
}

// Validate reports whether the material's parameters are physically
// sensible.
func (m Material) Validate() error {
	if m.Ls <= 0 {
		return fmt.Errorf("sample: material: invalid mean free path %g", m.Ls)
	}
	if m.G < -1 || m.G > 1 {
		return fmt.Errorf("sample: material: invalid anisotropy %g", m.G)
	}
	if m.N <= 0 {
		return fmt.Errorf("sample: material: invalid refractive index %g", m.N)
	}
	return nil
}

// A Layer is a slab of a Material with a given thickness. Thickness is
// only meaningful for the real layers (indices 1..NumLayers); the two
// sentinel half-spaces ignore it.
type Layer struct {
	Material  Material
	Thickness float64
}

// A Sample is an ordered stack of layers plus the two sentinel
// half-spaces (index 0 = above, index NumLayers+1 = below).
//
// Layer i occupies z in (ZBoundaries[i-1], ZBoundaries[i]]; the upper
// half-space is z <= ZBoundaries[0], the lower half-space is
// z > ZBoundaries[NumLayers]. Interfaces are inclusive on the upper
// side: a point with z equal to a boundary belongs to the layer above.
type Sample struct {
	layers      []Layer  // index 0..NumLayers+1, sentinels included
	zBoundaries []float64 // index 0..NumLayers, upper boundary of layer i
}

// New creates an empty sample bounded above and below by the given
// half-space materials.
func New(above, below Material) *Sample {
	return &Sample{
		layers: []Layer{
			{Material: above},
			{Material: below},
		},
		zBoundaries: []float64{0},
	}
}

// Add appends a real layer of the given material and thickness to the
// bottom of the stack. The top of the first added layer sits at z=0;
// further layers extend downward.
func (s *Sample) Add(m Material, thickness float64) error {
	if thickness <= 0 {
		return fmt.Errorf("sample: invalid thickness %g", thickness)
	}
	if err := m.Validate(); err != nil {
		return err
	}

	n := s.NumLayers()
	bottom := s.zBoundaries[n]
	newBoundary := bottom + thickness

	// insert before the lower half-space, which always sits last.
	below := s.layers[len(s.layers)-1]
	s.layers = append(s.layers[:len(s.layers)-1], Layer{Material: m, Thickness: thickness}, below)
	s.zBoundaries = append(s.zBoundaries, newBoundary)
	return nil
}

// Prelayer inserts a real layer directly beneath the upper half-space,
// above the current layer 1, shifting all existing boundaries downward
// by its thickness. Each call puts its layer on top of the stack, so
// calling Prelayer for a document's prelayer elements in reverse order
// leaves the first element topmost and the last one adjacent to the old
// layer 1 (§6: "prelayer children added above layer 0 in reverse
// document order").
func (s *Sample) Prelayer(m Material, thickness float64) error {
	if thickness <= 0 {
		return fmt.Errorf("sample: invalid thickness %g", thickness)
	}
	if err := m.Validate(); err != nil {
		return err
	}

	above := s.layers[0]
	s.layers = append([]Layer{above, {Material: m, Thickness: thickness}}, s.layers[1:]...)

	for i := range s.zBoundaries {
		s.zBoundaries[i] += thickness
	}
	// the boundary between the upper half-space and the (new) topmost
	// real layer stays anchored at 0; everything beneath it, including
	// the boundary the old layer 0 used to own, moved down above.
	s.zBoundaries = append([]float64{0}, s.zBoundaries...)
	return nil
}

// NumLayers returns the number of real (non-sentinel) layers.
func (s *Sample) NumLayers() int {
	return len(s.layers) - 2
}

// Layer returns the layer at the given index: 0 is the upper
// half-space, NumLayers()+1 the lower half-space, 1..NumLayers the real
// layers in top-to-bottom order.
func (s *Sample) Layer(i int) Layer {
	return s.layers[i]
}

// boundary returns ZBoundaries[i], the upper z bound of layer i (and
// the lower bound of layer i+1), for i in [0, NumLayers]; it returns
// -Inf for i < 0 (the upper half-space has no lower bound) and +Inf for
// i > NumLayers (nor has the lower half-space an upper bound).
//
// LayerAt scans ZBoundaries directly; callers that need the bound for a
// specific layer index should prefer LowerBound/UpperBound below.
func (s *Sample) boundary(i int) float64 {
	if i < 0 {
		return math.Inf(-1)
	}
	if i >= len(s.zBoundaries) {
		return math.Inf(1)
	}
	return s.zBoundaries[i]
}

// LowerBound returns the lower z bound of layer i (exclusive).
func (s *Sample) LowerBound(i int) float64 {
	return s.boundary(i - 1)
}

// UpperBound returns the upper z bound of layer i (inclusive).
func (s *Sample) UpperBound(i int) float64 {
	return s.boundary(i)
}

// LayerAt returns the index of the layer containing z. Interface points
// (z equal to a boundary) belong to the layer above: LayerAt returns
// the first layer whose upper boundary is >= z.
func (s *Sample) LayerAt(z float64) int {
	for i := 0; i <= s.NumLayers(); i++ {
		if z <= s.zBoundaries[i] {
			return i
		}
	}
	return s.NumLayers() + 1
}

// TransitTime returns the signed straight-line-at-normal-incidence
// transit time between z0 and z1, across every layer boundary the
// segment crosses, using each crossed layer's propagation speed. The
// sign is positive when z1 > z0.
func (s *Sample) TransitTime(z0, z1 float64) float64 {
	if z0 == z1 {
		return 0
	}
	sign := 1.0
	if z1 < z0 {
		z0, z1 = z1, z0
		sign = -1
	}

	var t float64
	z := z0
	for z < z1 {
		li := s.LayerAt(z + 1e-12)
		upper := s.UpperBound(li)
		next := z1
		if upper < next {
			next = upper
		}
		v := s.layers[li].Material.V()
		t += (next - z) / v
		if next <= z {
			break
		}
		z = next
	}
	return sign * t
}
