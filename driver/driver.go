// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package driver partitions a simulation run across worker goroutines,
// each with thread-local RNG state, histogram, and counters, and joins
// their results into a single Aggregate. No mutable state is shared
// between workers during the walk loop; synchronization happens only
// at partition boundaries and at the final join.
package driver

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/js-arias/mcwalk/histogram"
	"github.com/js-arias/mcwalk/mcerr"
	"github.com/js-arias/mcwalk/rng"
	"github.com/js-arias/mcwalk/source"
	"github.com/js-arias/mcwalk/walker"
)

// A Cancel is a sync/atomic-backed flag, polled at the top of each
// walker iteration. Set it from a signal handler or another goroutine
// to stop a run early without corrupting partial results.
type Cancel struct {
	flag atomic.Bool
}

// Set requests cancellation.
func (c *Cancel) Set() { c.flag.Store(true) }

// Requested reports whether cancellation was requested.
func (c *Cancel) Requested() bool { return c.flag.Load() }

// A Progress is a lock-free, per-worker snapshot that a caller may poll
// at any time without synchronizing with the worker loop.
type Progress struct {
	CurrentWalker atomic.Uint64
	TotalWalkers  atomic.Uint64
	StartTime     atomic.Int64 // UnixNano
}

// Snapshot returns the current progress values.
func (p *Progress) Snapshot() (current, total uint64, start time.Time) {
	return p.CurrentWalker.Load(), p.TotalWalkers.Load(), time.Unix(0, p.StartTime.Load())
}

// HistogramSpec pairs a histogram configuration with the name it will
// be reported under in an Aggregate.
type HistogramSpec struct {
	Name   string
	Config histogram.Config
}

// A Config describes a full run: how many walkers to simulate, how
// many worker goroutines to split them across, the engine to run them
// through, and the histograms to accumulate.
type Config struct {
	// N is the total number of walkers to simulate.
	N int

	// Workers is the number of goroutines to partition N across. If
	// zero or negative, it defaults to 1.
	Workers int

	// BaseSeed seeds worker i with BaseSeed+uint64(i), unless
	// PresetStates supplies a saved stream for that worker.
	BaseSeed uint64

	// PresetStates, when non-nil, restores worker i's RNG stream
	// from PresetStates[i] (§4.A bit-exact resume). Workers
	// beyond len(PresetStates) fall back to BaseSeed+i.
	PresetStates [][]byte

	Source     source.Source
	Engine     *walker.Engine
	Histograms []HistogramSpec

	// SaveMask selects which exit classes keep their raw per-walker
	// results (exit point, exit direction, walk time) for later
	// binning by cmd/mchist, instead of only contributing to the
	// in-run Histograms (§6 save flags).
	SaveMask histogram.PhotonMask
}

// An Aggregate is the joined result of a run: per-exit-class counters,
// merged histograms keyed by name, the number of discarded anomalous
// walkers, each worker's final RNG stream state (for later resume),
// and the raw per-walker results kept for classes in SaveMask.
type Aggregate struct {
	Counts       map[walker.ExitClass]int
	Histograms   map[string]*histogram.Histogram
	Anomalies    int
	FinalStates  [][]byte
	WorkersUsed  int
	Raw          map[walker.ExitClass][]walker.Result
}

// partition splits n into w shares using floor(n/w), with the
// remainder distributed one each to the first n%w workers.
func partition(n, w int) []int {
	base := n / w
	rem := n % w
	shares := make([]int, w)
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

type workerResult struct {
	counts      map[walker.ExitClass]int
	histograms  map[string]*histogram.Histogram
	anomalies   int
	finalState  []byte
	raw         map[walker.ExitClass][]walker.Result
}

// Run executes cfg.N walkers across cfg.Workers goroutines and returns
// the joined Aggregate. It blocks until every worker finishes or cancel
// is set.
func Run(cfg Config, cancel *Cancel, progress []*Progress) Aggregate {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shares := partition(cfg.N, workers)

	results := make([]workerResult, workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	walkerIdxBase := 0
	for i := 0; i < workers; i++ {
		idxBase := walkerIdxBase
		walkerIdxBase += shares[i]

		var prog *Progress
		if i < len(progress) {
			prog = progress[i]
		}

		go func(i, n, idxBase int, prog *Progress) {
			defer wg.Done()
			results[i] = runWorker(cfg, i, n, idxBase, cancel, prog)
		}(i, shares[i], idxBase, prog)
	}
	wg.Wait()

	return join(results, workers)
}

func runWorker(cfg Config, workerIdx, n, idxBase int, cancel *Cancel, prog *Progress) workerResult {
	r := restoreOrSeed(cfg, workerIdx)

	hists := make(map[string]*histogram.Histogram, len(cfg.Histograms))
	for _, spec := range cfg.Histograms {
		h, err := histogram.New(spec.Config)
		if err != nil {
			// a bad histogram config is a configuration error
			// that should have been caught before Run; skip it
			// rather than panic mid-run.
			log.Error().Err(err).Str("histogram", spec.Name).Msg("skipping invalid histogram")
			continue
		}
		hists[spec.Name] = h
	}

	counts := make(map[walker.ExitClass]int)
	anomalies := 0
	var raw map[walker.ExitClass][]walker.Result
	if cfg.SaveMask != 0 {
		raw = make(map[walker.ExitClass][]walker.Result)
	}

	if prog != nil {
		prog.TotalWalkers.Store(uint64(n))
		prog.StartTime.Store(time.Now().UnixNano())
	}

	for i := 0; i < n; i++ {
		if cancel != nil && cancel.Requested() {
			break
		}
		if prog != nil {
			prog.CurrentWalker.Store(uint64(i))
		}

		walkerIdx := idxBase + i
		start := cfg.Source.Spin(r)
		res, err := cfg.Engine.Run(start, cfg.BaseSeed+uint64(workerIdx), walkerIdx, r)
		if err != nil {
			anomalies++
			var me *mcerr.Error
			if e, ok := err.(*mcerr.Error); ok {
				me = e
			}
			log.Warn().
				Err(err).
				Uint64("seed", cfg.BaseSeed+uint64(workerIdx)).
				Int("walker", walkerIdx).
				Interface("kind", me).
				Msg("discarding walker after numerical anomaly")
			continue
		}

		counts[res.Class]++
		for _, h := range hists {
			h.Add(res)
		}
		if raw != nil && cfg.SaveMask.Accepts(res.Class) {
			raw[res.Class] = append(raw[res.Class], res)
		}
	}

	state, _ := r.MarshalBinary()

	return workerResult{
		counts:     counts,
		histograms: hists,
		anomalies:  anomalies,
		finalState: state,
		raw:        raw,
	}
}

func restoreOrSeed(cfg Config, workerIdx int) *rng.Stream {
	if workerIdx < len(cfg.PresetStates) && cfg.PresetStates[workerIdx] != nil {
		r := rng.NewStream(cfg.BaseSeed + uint64(workerIdx))
		if err := r.UnmarshalBinary(cfg.PresetStates[workerIdx]); err == nil {
			return r
		}
		log.Warn().Int("worker", workerIdx).Msg("failed to restore preset RNG state, falling back to seed")
	}
	return rng.NewStream(cfg.BaseSeed + uint64(workerIdx))
}

func join(results []workerResult, workers int) Aggregate {
	agg := Aggregate{
		Counts:      make(map[walker.ExitClass]int),
		Histograms:  make(map[string]*histogram.Histogram),
		FinalStates: make([][]byte, workers),
		WorkersUsed: workers,
		Raw:         make(map[walker.ExitClass][]walker.Result),
	}

	for i, wr := range results {
		agg.Anomalies += wr.anomalies
		agg.FinalStates[i] = wr.finalState
		for class, n := range wr.counts {
			agg.Counts[class] += n
		}
		for name, h := range wr.histograms {
			if existing, ok := agg.Histograms[name]; ok {
				existing.Merge(h)
				continue
			}
			agg.Histograms[name] = h
		}
		for class, rs := range wr.raw {
			agg.Raw[class] = append(agg.Raw[class], rs...)
		}
	}
	return agg
}
