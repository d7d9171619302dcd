// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Mchist bins the raw per-walker exit data recorded by mcwalk run
// --save into a one- or two-dimensional histogram, and prints it.
package main

import (
	"fmt"
	"strconv"

	"github.com/js-arias/command"

	"github.com/js-arias/mcwalk/histogram"
	"github.com/js-arias/mcwalk/output"
	"github.com/js-arias/mcwalk/walker"
)

var app = &command.Command{
	Usage: `mchist [-b size] [-c size] [-m M] [-n N] [-t tbrk]
	<file> <domain> [<domain2>]`,
	Short: "bin raw exit data into a histogram",
	Long: `
Command mchist reads the raw per-walker exit data written by mcwalk
run --save and bins it into a one- or two-dimensional histogram.

The first argument is the output file path. The second (and optional
third, for a 2-D histogram) argument is a domain token: times, kz, or
points.

The flag -b sets the bin size of the first axis (degrees, for kz). The
flag -c sets the bin size of the second axis, when a second domain is
given.

By default every bin is printed; -m M prints every M-th bin and -n N
prints every N-th bin of the second axis.

The flag -t selects which exit classes are binned, by letter: t
(transmitted), b (ballistic), r (reflected), k (back-reflected). The
default is tbrk, all four classes.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var binSize float64
var binSize2 float64
var everyM int
var everyN int
var typeMask string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&binSize, "b", 1, "")
	c.Flags().Float64Var(&binSize2, "c", 1, "")
	c.Flags().IntVar(&everyM, "m", 1, "")
	c.Flags().IntVar(&everyN, "n", 1, "")
	c.Flags().StringVar(&typeMask, "t", "tbrk", "")
}

func main() {
	app.Main()
}

func domainOf(token string) (histogram.Domain, float64, float64, error) {
	switch token {
	case "times":
		return histogram.Times, 0, 1e6, nil
	case "kz":
		return histogram.K, 0, 180, nil
	case "points":
		return histogram.Points, 0, 1e6, nil
	default:
		return 0, 0, 0, fmt.Errorf("unknown domain %q: expecting times, kz, or points", token)
	}
}

func classMask(s string) (histogram.PhotonMask, error) {
	var m histogram.PhotonMask
	for _, r := range s {
		switch r {
		case 't':
			m |= histogram.MaskTransmitted
		case 'b':
			m |= histogram.MaskBallistic
		case 'r':
			m |= histogram.MaskReflected
		case 'k':
			m |= histogram.MaskBackReflected
		default:
			return 0, fmt.Errorf("unknown exit class letter %q", string(r))
		}
	}
	if m == 0 {
		return 0, fmt.Errorf("empty exit class mask")
	}
	return m, nil
}

var classKeys = []struct {
	class walker.ExitClass
	key   string
}{
	{walker.Transmitted, "transmitted"},
	{walker.Ballistic, "ballistic"},
	{walker.Reflected, "reflected"},
	{walker.BackReflected, "back-reflected"},
}

func run(c *command.Command, args []string) error {
	if len(args) < 2 {
		return c.UsageError("expecting <file> <domain> [<domain2>]")
	}
	path := args[0]
	tok1 := args[1]

	mask, err := classMask(typeMask)
	if err != nil {
		return c.UsageError(err.Error())
	}

	d1, min1, max1, err := domainOf(tok1)
	if err != nil {
		return c.UsageError(err.Error())
	}

	cfg := histogram.Config{
		Dims:           1,
		Axes:           [2]histogram.Axis{{Domain: d1, Min: min1, Max: max1, BinSize: binSize}},
		PhotonTypeMask: mask,
	}
	if len(args) >= 3 {
		d2, min2, max2, err := domainOf(args[2])
		if err != nil {
			return c.UsageError(err.Error())
		}
		cfg.Dims = 2
		cfg.Axes[1] = histogram.Axis{Domain: d2, Min: min2, Max: max2, BinSize: binSize2}
	}

	h, err := histogram.New(cfg)
	if err != nil {
		return err
	}

	recs, err := output.ReadAll(path)
	if err != nil {
		return err
	}
	byKey := make(map[string]output.Record, len(recs))
	for _, r := range recs {
		byKey[r.Key] = r
	}

	for _, ck := range classKeys {
		if !mask.Accepts(ck.class) {
			continue
		}
		times := byKey["walk-times/"+ck.key].Dataset
		points := byKey["exit-points/"+ck.key].Dataset
		kz := byKey["exit-kz/"+ck.key].Dataset

		n := len(times)
		for i := 0; i < n; i++ {
			res := walker.Result{Class: ck.class, WalkTime: times[i]}
			if 2*i+1 < len(points) {
				res.Point[0] = points[2*i]
				res.Point[1] = points[2*i+1]
			}
			if i < len(kz) {
				res.Dir[2] = kz[i]
				res.Dir[0] = 0
				res.Dir[1] = 0
			}
			h.Add(res)
		}
	}

	total := 0
	for _, r := range recs {
		if r.Counters != nil {
			total = int(r.Counters.Transmitted + r.Counters.Ballistic + r.Counters.Reflected + r.Counters.BackReflected)
		}
	}
	if total == 0 {
		return c.UsageError(fmt.Sprintf("file %q has no counters record", path))
	}

	n0, n1 := h.Dims()
	values := h.Normalize(total)

	for i0 := 0; i0 < n0; i0 += everyM {
		if cfg.Dims == 1 {
			fmt.Printf("%d\t%s\n", i0, formatFloat(values[i0]))
			continue
		}
		for i1 := 0; i1 < n1; i1 += everyN {
			fmt.Printf("%d\t%d\t%s\n", i0, i1, formatFloat(values[i0*n1+i1]))
		}
	}

	return nil
}

func formatFloat(v float64) string {
	if v != v { // NaN
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
