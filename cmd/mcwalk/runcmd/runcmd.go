// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package runcmd implements a command to run a photon transport
// simulation from a project file.
package runcmd

import (
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/js-arias/command"
	"github.com/rs/zerolog/log"

	"github.com/js-arias/mcwalk/driver"
	"github.com/js-arias/mcwalk/histogram"
	"github.com/js-arias/mcwalk/output"
	"github.com/js-arias/mcwalk/project"
	"github.com/js-arias/mcwalk/runparam"
	"github.com/js-arias/mcwalk/viz"
	"github.com/js-arias/mcwalk/walker"
	"github.com/js-arias/mcwalk/xmlconfig"
)

var Command = &command.Command{
	Usage: `run [--png <file>] <project-file>`,
	Short: "run a photon transport simulation",
	Long: `
Command run reads a project file, loads its XML sample/source
description and run parameters, simulates the configured number of
walkers across worker goroutines, and writes the resulting histogram
and exit-class counters to the project's output dataset.

An interrupt signal (SIGINT) requests a clean early stop: walkers
already in flight finish, no new ones are spawned, and the partial
results are written normally.

A SIGUSR1 prints the current progress of every worker (walkers done out
of walkers assigned, and elapsed time) to the log without affecting the
run.

The flag --png, when given, renders the output histogram as a density
map image at the given path.

The flag --save selects, by letter (t, b, r, k for transmitted,
ballistic, reflected, back-reflected), which exit classes keep their
raw per-walker exit times, exit points, and exit z direction cosines
in the output file, for later binning with mchist.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var pngPath string
var saveFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&pngPath, "png", "", "")
	c.Flags().StringVar(&saveFlag, "save", "", "")
}

func parseSaveMask(s string) histogram.PhotonMask {
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
		}
	}
	return m
}

func classKey(c walker.ExitClass) string {
	switch c {
	case walker.Transmitted:
		return "transmitted"
	case walker.Ballistic:
		return "ballistic"
	case walker.Reflected:
		return "reflected"
	case walker.BackReflected:
		return "back-reflected"
	default:
		return "unknown"
	}
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	cfgPath := p.Path(project.Config)
	if cfgPath == "" {
		return c.UsageError(fmt.Sprintf("sample/source config not defined in project %q", args[0]))
	}
	cfg, err := xmlconfig.Read(cfgPath)
	if err != nil {
		return err
	}

	rpPath := p.Path(project.RunParam)
	if rpPath == "" {
		return c.UsageError(fmt.Sprintf("run parameters not defined in project %q", args[0]))
	}
	rp, err := runparam.Read(rpPath)
	if err != nil {
		return err
	}

	outPath := p.Path(project.Output)
	if outPath == "" {
		return c.UsageError(fmt.Sprintf("output not defined in project %q", args[0]))
	}

	workers := rp.Workers()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	seed := rp.Seed()
	if seed == 0 {
		seed = uint64(os.Getpid())
	}

	hist, err := histogram.New(histogram.Config{
		Dims:           1,
		Axes:           [2]histogram.Axis{{Domain: histogram.Times, Min: 0, Max: rp.BinSize() * 4096, BinSize: rp.BinSize()}},
		PhotonTypeMask: histogram.MaskAll,
	})
	if err != nil {
		return fmt.Errorf("while building output histogram: %v", err)
	}

	engine := walker.NewEngine(cfg.Sample)

	cancel := &driver.Cancel{}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		log.Warn().Msg("interrupt received, stopping after in-flight walkers")
		cancel.Set()
	}()
	defer signal.Stop(sig)

	progress := make([]*driver.Progress, workers)
	for i := range progress {
		progress[i] = &driver.Progress{}
	}

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	go func() {
		for range usr1 {
			for i, p := range progress {
				done, total, start := p.Snapshot()
				log.Info().
					Int("worker", i).
					Uint64("done", done).
					Uint64("total", total).
					Dur("elapsed", time.Since(start)).
					Msg("progress")
			}
		}
	}()
	defer signal.Stop(usr1)

	runCfg := driver.Config{
		N:        rp.Walkers(),
		Workers:  workers,
		BaseSeed: seed,
		Source:   cfg.Source,
		Engine:   engine,
		Histograms: []driver.HistogramSpec{
			{Name: "output", Config: hist.Config},
		},
		SaveMask: parseSaveMask(saveFlag),
	}

	agg := driver.Run(runCfg, cancel, progress)

	log.Info().
		Int("transmitted", agg.Counts[walker.Transmitted]).
		Int("ballistic", agg.Counts[walker.Ballistic]).
		Int("reflected", agg.Counts[walker.Reflected]).
		Int("back-reflected", agg.Counts[walker.BackReflected]).
		Int("anomalies", agg.Anomalies).
		Msg("run finished")

	sink, err := output.Create(outPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	total := agg.Counts[walker.Transmitted] + agg.Counts[walker.Ballistic] +
		agg.Counts[walker.Reflected] + agg.Counts[walker.BackReflected]

	out := agg.Histograms["output"]
	if err := sink.WriteDataset("times", out.Normalize(total)); err != nil {
		return err
	}
	if err := sink.WriteCounters("counters", output.Counters{
		Transmitted:   int64(agg.Counts[walker.Transmitted]),
		Ballistic:     int64(agg.Counts[walker.Ballistic]),
		Reflected:     int64(agg.Counts[walker.Reflected]),
		BackReflected: int64(agg.Counts[walker.BackReflected]),
	}); err != nil {
		return err
	}
	if rp.SaveStates() {
		for i, state := range agg.FinalStates {
			if err := sink.WriteText(fmt.Sprintf("rngstate.%d", i), state); err != nil {
				return err
			}
		}
	}

	for class, results := range agg.Raw {
		key := classKey(class)

		times := make([]float64, len(results))
		points := make([]float64, 0, len(results)*2)
		kz := make([]float64, len(results))
		for i, res := range results {
			times[i] = res.WalkTime
			points = append(points, res.Point[0], res.Point[1])
			kz[i] = res.Dir[2]
		}
		if err := sink.WriteDataset("walk-times/"+key, times); err != nil {
			return err
		}
		if err := sink.WriteDataset("exit-points/"+key, points); err != nil {
			return err
		}
		if err := sink.WriteDataset("exit-kz/"+key, kz); err != nil {
			return err
		}
	}

	if pngPath != "" {
		dm := viz.NewDensityMap(out, out.Normalize(total))
		f, err := os.Create(pngPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := png.Encode(f, dm); err != nil {
			return fmt.Errorf("while writing %q: %v", pngPath, err)
		}
	}

	return nil
}
