// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package runparam_test

import (
	"os"
	"testing"

	"github.com/js-arias/mcwalk/runparam"
)

func TestRunParam(t *testing.T) {
	name := "tmp-run-parameters-for-test.tab"
	rp := runparam.New(name)
	testRP(t, rp, nil, name)

	rp.SetWalkers(5_000_000)
	rp.SetWorkers(8)
	rp.SetSeed(19680801)
	rp.SetBinSize(0.001)
	rp.SetSaveStates(true)

	defer os.Remove(name)
	if err := rp.Write(); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}

	np, err := runparam.Read(name)
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	testRP(t, np, rp, name)
}

func testRP(t testing.TB, rp, want *runparam.RP, name string) {
	t.Helper()

	if want == nil {
		want = runparam.New(name)
	}

	if rp.Name() != want.Name() {
		t.Errorf("name: got %q, want %q", rp.Name(), want.Name())
	}
	if rp.Walkers() != want.Walkers() {
		t.Errorf("walkers: got %d, want %d", rp.Walkers(), want.Walkers())
	}
	if rp.Workers() != want.Workers() {
		t.Errorf("workers: got %d, want %d", rp.Workers(), want.Workers())
	}
	if rp.Seed() != want.Seed() {
		t.Errorf("seed: got %d, want %d", rp.Seed(), want.Seed())
	}
	if rp.BinSize() != want.BinSize() {
		t.Errorf("bin size: got %v, want %v", rp.BinSize(), want.BinSize())
	}
	if rp.SaveStates() != want.SaveStates() {
		t.Errorf("save states: got %v, want %v", rp.SaveStates(), want.SaveStates())
	}
}

func TestReadMissingField(t *testing.T) {
	name := "tmp-bad-run-parameters-for-test.tab"
	if err := os.WriteFile(name, []byte("# mcwalk run parameters\nparameter\nwalkers\t10\n"), 0o644); err != nil {
		t.Fatalf("error writing fixture: %v", err)
	}
	defer os.Remove(name)

	if _, err := runparam.Read(name); err == nil {
		t.Fatalf("expected an error for a header missing the %q field", "value")
	}
}
