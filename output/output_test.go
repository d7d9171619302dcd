// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output_test

import (
	"path/filepath"
	"testing"

	"github.com/js-arias/mcwalk/output"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")

	sink, err := output.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dataset := make([]float64, 20000) // spans several chunk boundaries
	for i := range dataset {
		dataset[i] = float64(i) * 0.5
	}
	if err := sink.WriteDataset("times", dataset); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}
	if err := sink.WriteCounters("counters", output.Counters{
		Transmitted: 56426, Ballistic: 0, Reflected: 903482, BackReflected: 40092,
	}); err != nil {
		t.Fatalf("WriteCounters: %v", err)
	}
	if err := sink.WriteText("XMLDescription", []byte("<mcwalk/>")); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs, err := output.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	if recs[0].Key != "times" || len(recs[0].Dataset) != len(dataset) {
		t.Fatalf("dataset record mismatch: key %q, len %d", recs[0].Key, len(recs[0].Dataset))
	}
	for i, v := range recs[0].Dataset {
		if v != dataset[i] {
			t.Fatalf("dataset[%d]: got %v, want %v", i, v, dataset[i])
		}
	}

	if recs[1].Counters == nil || recs[1].Counters.Transmitted != 56426 || recs[1].Counters.Reflected != 903482 {
		t.Fatalf("counters record mismatch: %+v", recs[1].Counters)
	}

	if string(recs[2].Text) != "<mcwalk/>" {
		t.Fatalf("text record mismatch: got %q", recs[2].Text)
	}
}

// TestWriteCountersSumsAcrossWrites checks §4.H: a counters record is
// summed across writes to the same key, not replaced.
func TestWriteCountersSumsAcrossWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")

	sink, err := output.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sink.WriteCounters("counters", output.Counters{Transmitted: 10, Ballistic: 1}); err != nil {
		t.Fatalf("WriteCounters: %v", err)
	}
	if err := sink.WriteCounters("counters", output.Counters{Transmitted: 5, Reflected: 2}); err != nil {
		t.Fatalf("WriteCounters: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	recs, err := output.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	// the second write's record must hold the running total, not just
	// its own snapshot.
	got := recs[1].Counters
	if got == nil || got.Transmitted != 15 || got.Ballistic != 1 || got.Reflected != 2 {
		t.Fatalf("second counters record = %+v, want summed totals {15 1 2 0}", got)
	}
}

func TestCreateReportsIoFailure(t *testing.T) {
	_, err := output.Create(filepath.Join(t.TempDir(), "missing-dir", "out.bin"))
	if err == nil {
		t.Fatalf("expected an error creating a file in a non-existent directory")
	}
}

func TestReadAllReportsIoFailure(t *testing.T) {
	_, err := output.ReadAll(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if err == nil {
		t.Fatalf("expected an error reading a non-existent file")
	}
}
