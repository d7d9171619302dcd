// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package viz renders a histogram's bin density as an image, using the
// Paul Tol color gradients of github.com/js-arias/blind.
package viz

import (
	"image"
	"image/color"
	"math"

	"github.com/js-arias/blind"

	"github.com/js-arias/mcwalk/histogram"
)

// A DensityMap is an image.Image whose pixels encode a histogram's
// normalized bin values through a Gradienter. Bin [i0][i1] maps to
// pixel (i1, i0), so a 1-D histogram (N1 == 1) renders as a single
// column of bins, one pixel wide.
type DensityMap struct {
	Hist *histogram.Histogram

	// Values is the normalized per-bin data to render (the output
	// of Histogram.Normalize or Histogram.MomentMean).
	Values []float64

	// Gradient selects the color scheme. RainbowPurpleToRed is used
	// when nil.
	Gradient Gradienter

	// Log, when true, renders log10(v) instead of v (clamped at a
	// small floor to avoid -Inf for empty bins).
	Log bool

	n0, n1 int
	lo, hi float64
}

// NewDensityMap builds a DensityMap over the given histogram and
// already-normalized values, scaling colors across the finite
// observed range of values.
func NewDensityMap(h *histogram.Histogram, values []float64) *DensityMap {
	n0, n1 := h.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	return &DensityMap{Hist: h, Values: values, n0: n0, n1: n1, lo: lo, hi: hi}
}

func (d *DensityMap) ColorModel() color.Model { return color.RGBAModel }

func (d *DensityMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.n1, d.n0)
}

func (d *DensityMap) At(x, y int) color.Color {
	if x < 0 || x >= d.n1 || y < 0 || y >= d.n0 {
		return color.RGBA{}
	}
	bin := y*d.n1 + x
	v := d.Values[bin]
	if math.IsNaN(v) {
		return color.RGBA{211, 211, 211, 255}
	}

	norm := 0.0
	if d.hi > d.lo {
		if d.Log {
			floor := 1e-12
			lv, lo, hi := math.Log10(math.Max(v, floor)), math.Log10(math.Max(d.lo, floor)), math.Log10(math.Max(d.hi, floor))
			if hi > lo {
				norm = (lv - lo) / (hi - lo)
			}
		} else {
			norm = (v - d.lo) / (d.hi - d.lo)
		}
	}

	g := d.Gradient
	if g == nil {
		g = RainbowPurpleToRed{}
	}
	return g.Gradient(norm)
}

// A Gradienter maps a value in [0, 1] to a color.
type Gradienter interface {
	Gradient(v float64) color.Color
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Incandescent is the incandescent color scheme of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_incandescent>.
type Incandescent struct{}

func (i Incandescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Incandescent, clamp01(v))
}

// Iridescent is the iridescent color scheme of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_iridescent>.
type Iridescent struct{}

func (i Iridescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Iridescent, clamp01(v))
}

// RainbowPurpleToRed is the rainbow color scheme of Paul Tol
// <https://personal.sron.nl/~pault/#fig:scheme_rainbow_smooth>
// starting at purple and ending at red.
type RainbowPurpleToRed struct{}

func (r RainbowPurpleToRed) Gradient(v float64) color.Color {
	return blind.Sequential(blind.RainbowPurpleToRed, clamp01(v))
}
