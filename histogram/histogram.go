// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package histogram implements 1-D and 2-D binning of walker exit
// data, with optional time-resolved spatial moments, mergeable across
// workers and normalizable for output.
package histogram

import (
	"math"

	"github.com/js-arias/mcwalk/mcerr"
	"github.com/js-arias/mcwalk/walker"
)

// A Domain selects the coordinate computed from a walker's result.
type Domain int

// Valid domains.
const (
	// Times bins on WalkTime.
	Times Domain = iota

	// K bins on acos(k.z), in degrees.
	K

	// Points bins on the radial exit position, hypot(rx, ry).
	Points
)

// An Axis configures one dimension of a Histogram.
type Axis struct {
	Domain         Domain
	Min, Max       float64
	BinSize        float64
}

// N is the number of bins on this axis, including the overflow bin
// (§3: "the extra bin is the overflow/clamp bin").
func (a Axis) N() int {
	return int(math.Ceil((a.Max-a.Min)/a.BinSize)) + 1
}

// PhotonMask selects which exit classes a Histogram accepts.
type PhotonMask uint8

// Bits of PhotonMask, one per exit class.
const (
	MaskTransmitted PhotonMask = 1 << iota
	MaskBallistic
	MaskReflected
	MaskBackReflected

	MaskAll = MaskTransmitted | MaskBallistic | MaskReflected | MaskBackReflected
)

// Accepts reports whether the mask includes the given exit class.
func (m PhotonMask) Accepts(c walker.ExitClass) bool {
	return m.accepts(c)
}

func (m PhotonMask) accepts(c walker.ExitClass) bool {
	switch c {
	case walker.Transmitted:
		return m&MaskTransmitted != 0
	case walker.Ballistic:
		return m&MaskBallistic != 0
	case walker.Reflected:
		return m&MaskReflected != 0
	case walker.BackReflected:
		return m&MaskBackReflected != 0
	default:
		return false
	}
}

// A Config describes the shape of a Histogram.
type Config struct {
	// Dims is 1 or 2.
	Dims int

	// Axes holds Dims entries.
	Axes [2]Axis

	// Moments, when non-empty, are the exponents p for which
	// mean(|ρ|^p) is accumulated per bin. Only valid when Dims==1
	// and Axes[0].Domain==Times (§3).
	Moments []float64

	// PhotonTypeMask selects which exit classes are binned. It
	// must be set (non-zero) before binning (§3).
	PhotonTypeMask PhotonMask
}

// Validate reports a *mcerr.Error with Kind ConfigInvalid if the
// configuration violates an invariant from §3/§7.
func (c Config) Validate() error {
	if c.Dims != 1 && c.Dims != 2 {
		return &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "histogram.Config.Validate", Err: errDims}
	}
	if len(c.Moments) > 0 && (c.Dims != 1 || c.Axes[0].Domain != Times) {
		return &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "histogram.Config.Validate", Err: errMoments}
	}
	if c.PhotonTypeMask == 0 {
		return &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "histogram.Config.Validate", Err: errMask}
	}
	for i := 0; i < c.Dims; i++ {
		a := c.Axes[i]
		if a.BinSize <= 0 || a.Max <= a.Min {
			return &mcerr.Error{Kind: mcerr.ConfigInvalid, Op: "histogram.Config.Validate", Err: errAxis}
		}
	}
	return nil
}

// A Histogram accumulates walker hits into bins.
type Histogram struct {
	Config Config

	// Counts has size N0*N1 (N1==1 for a 1-D histogram).
	Counts []float64

	// MomentSum has size len(Moments)*N0*N1, parallel to Counts,
	// nil when no moments were requested.
	MomentSum []float64

	n0, n1 int
}

// New creates an empty Histogram from a validated Config.
func New(cfg Config) (*Histogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n0 := cfg.Axes[0].N()
	n1 := 1
	if cfg.Dims == 2 {
		n1 = cfg.Axes[1].N()
	}
	h := &Histogram{
		Config: cfg,
		Counts: make([]float64, n0*n1),
		n0:     n0,
		n1:     n1,
	}
	if len(cfg.Moments) > 0 {
		h.MomentSum = make([]float64, len(cfg.Moments)*n0*n1)
	}
	return h, nil
}

func coordinate(d Domain, r walker.Result) float64 {
	switch d {
	case Times:
		return r.WalkTime
	case K:
		return math.Acos(r.Dir[2]) * 180 / math.Pi
	case Points:
		return math.Hypot(r.Point[0], r.Point[1])
	default:
		return math.NaN()
	}
}

func index(a Axis, v float64) int {
	n := a.N()
	i := int((v - a.Min) / a.BinSize)
	if i < 0 {
		i = 0
	}
	// any out-of-range value, below Min or beyond Max, goes to the
	// last (overflow) bin.
	if v < a.Min || i > n-1 {
		i = n - 1
	}
	return i
}

// Add bins a single walker result, after filtering by PhotonTypeMask.
func (h *Histogram) Add(r walker.Result) {
	if !h.Config.PhotonTypeMask.accepts(r.Class) {
		return
	}

	i0 := index(h.Config.Axes[0], coordinate(h.Config.Axes[0].Domain, r))
	i1 := 0
	if h.Config.Dims == 2 {
		i1 = index(h.Config.Axes[1], coordinate(h.Config.Axes[1].Domain, r))
	}
	bin := i0*h.n1 + i1
	h.Counts[bin]++

	if h.MomentSum == nil {
		return
	}
	rho := math.Hypot(r.Point[0], r.Point[1])
	nBins := h.n0 * h.n1
	for i, p := range h.Config.Moments {
		h.MomentSum[i*nBins+bin] += math.Pow(rho, p)
	}
}

// Merge folds other's counts and moment sums into h. This is the only
// inter-worker synchronization point (§5).
func (h *Histogram) Merge(other *Histogram) {
	for i, c := range other.Counts {
		h.Counts[i] += c
	}
	for i, m := range other.MomentSum {
		h.MomentSum[i] += m
	}
}

// Normalize returns the output-ready bin values for the given total
// photon count, applying the per-domain normalization of §4.G. Only
// the first axis contributes a geometric factor: the second axis of a
// 2-D histogram never does, regardless of its domain.
func (h *Histogram) Normalize(total int) []float64 {
	out := make([]float64, len(h.Counts))
	a0 := h.Config.Axes[0]
	for bin, c := range h.Counts {
		i0 := bin
		if h.n1 > 1 {
			i0 = bin / h.n1
		}
		f := axisNormFactor(a0, i0)
		out[bin] = c / float64(total) / f
	}
	return out
}

// axisNormFactor returns the per-bin geometric normalization factor for
// a single axis (besides the 1/total common to every domain), at bin
// index idx along that axis.
func axisNormFactor(a Axis, idx int) float64 {
	center := a.Min + (float64(idx)+0.5)*a.BinSize
	switch a.Domain {
	case Times:
		return 1
	case K:
		thetaC := center * math.Pi / 180
		binRad := a.BinSize * math.Pi / 180
		return 4 * math.Pi * math.Sin(thetaC) * math.Sin(binRad/2)
	case Points:
		return 2 * math.Pi * center * a.BinSize * a.BinSize
	default:
		return 1
	}
}

// MomentMean returns, for moment exponent index m, the per-bin mean
// moment[bin]/count[bin]. A bin with zero count yields math.NaN() as
// an explicit sentinel rather than a silent division by zero.
func (h *Histogram) MomentMean(m int) []float64 {
	nBins := h.n0 * h.n1
	out := make([]float64, nBins)
	for bin := range out {
		c := h.Counts[bin]
		if c == 0 {
			out[bin] = math.NaN()
			continue
		}
		out[bin] = h.MomentSum[m*nBins+bin] / c
	}
	return out
}

// Dims returns the bin counts of each configured axis, N0 and N1 (N1
// is 1 for a 1-D histogram).
func (h *Histogram) Dims() (n0, n1 int) {
	return h.n0, h.n1
}

var (
	errDims    = configErr("dims must be 1 or 2")
	errMoments = configErr("moments are only valid for a 1-D time histogram")
	errMask    = configErr("photon type mask must be set before binning")
	errAxis    = configErr("invalid axis: binSize must be > 0 and max > min")
)

type configErr string

func (e configErr) Error() string { return string(e) }
