// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package runparam implements reading and writing of the mcwalk run
// parameters: walker and worker counts, the base seed, and the default
// histogram bin sizes used by the cmd/mcwalk front end.
package runparam

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Param is a keyword to identify the type of a parameter in a run
// parameter file.
type Param string

// Valid parameters.
const (
	// Walkers is the total number of walkers to simulate.
	Walkers Param = "walkers"

	// Workers is the number of goroutines to split the walkers
	// across. Zero means runtime.NumCPU().
	Workers Param = "workers"

	// Seed is the base RNG seed (§4.A, §5).
	Seed Param = "seed"

	// BinSize is the default bin size for the 1-D output histogram.
	BinSize Param = "binsize"

	// SaveStates, when "true", requests that the per-worker final
	// RNG states be written alongside the output, for resuming.
	SaveStates Param = "savestates"
)

// RP represents a collection of run parameters.
type RP struct {
	name string

	walkers int
	workers int
	seed    uint64
	binSize float64
	save    bool
}

// New creates a new parameter collection with the package defaults: a
// single worker, a zero seed (for which cmd/mcwalk uses its process ID
// instead), and a bin size of 1.
func New(name string) *RP {
	return &RP{
		name:    name,
		walkers: 1_000_000,
		workers: 1,
		binSize: 1,
	}
}

var header = []string{
	"parameter",
	"value",
}

// Read reads a run parameter file from a TSV file.
//
// The TSV must contain the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# mcwalk run parameters
//	parameter	value
//	walkers	1000000
//	workers	8
//	seed	19680801
//	binsize	0.001
func Read(name string) (*RP, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("on file %q: expecting field %q", name, h)
		}
	}

	rp := New(name)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		f := "parameter"
		p := Param(strings.ToLower(row[fields[f]]))

		f = "value"
		switch p {
		case Walkers:
			v, err := strconv.Atoi(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			rp.walkers = v
		case Workers:
			v, err := strconv.Atoi(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			rp.workers = v
		case Seed:
			v, err := strconv.ParseUint(row[fields[f]], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			rp.seed = v
		case BinSize:
			v, err := strconv.ParseFloat(row[fields[f]], 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			rp.binSize = v
		case SaveStates:
			rp.save = strings.ToLower(row[fields[f]]) == "true"
		}
	}
	return rp, nil
}

// Walkers returns the total number of walkers to simulate.
func (rp *RP) Walkers() int { return rp.walkers }

// SetWalkers sets the total number of walkers to simulate.
func (rp *RP) SetWalkers(n int) { rp.walkers = n }

// Workers returns the number of worker goroutines.
func (rp *RP) Workers() int { return rp.workers }

// SetWorkers sets the number of worker goroutines.
func (rp *RP) SetWorkers(n int) { rp.workers = n }

// Seed returns the base RNG seed.
func (rp *RP) Seed() uint64 { return rp.seed }

// SetSeed sets the base RNG seed.
func (rp *RP) SetSeed(s uint64) { rp.seed = s }

// BinSize returns the default output histogram bin size.
func (rp *RP) BinSize() float64 { return rp.binSize }

// SetBinSize sets the default output histogram bin size.
func (rp *RP) SetBinSize(b float64) { rp.binSize = b }

// SaveStates reports whether per-worker RNG states should be saved.
func (rp *RP) SaveStates() bool { return rp.save }

// SetSaveStates sets whether per-worker RNG states should be saved.
func (rp *RP) SetSaveStates(v bool) { rp.save = v }

// Name returns the file name used for this parameter set.
func (rp *RP) Name() string { return rp.name }

// Write writes the run parameters into a file.
func (rp *RP) Write() (err error) {
	f, err := os.Create(rp.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# mcwalk run parameters\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", rp.name, err)
	}

	rows := [][]string{
		{string(Walkers), strconv.Itoa(rp.walkers)},
		{string(Workers), strconv.Itoa(rp.workers)},
		{string(Seed), strconv.FormatUint(rp.seed, 10)},
		{string(BinSize), strconv.FormatFloat(rp.binSize, 'g', -1, 64)},
		{string(SaveStates), strconv.FormatBool(rp.save)},
	}
	for _, row := range rows {
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", rp.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", rp.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", rp.name, err)
	}
	return nil
}
