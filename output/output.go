// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package output implements a dependency-free, chunked binary sink for
// simulation results: histogram datasets, exit-class counters, the
// originating XML configuration text, and per-worker RNG snapshots.
//
// No hierarchical array file library exists anywhere in the retrieval
// pack this module was grounded on (see DESIGN.md), so this package
// plays the role such a library would: an append-only file of
// length-prefixed records, read back by key.
package output

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/js-arias/mcwalk/mcerr"
)

// chunkSize is the number of float64 values written per dataset chunk
// (DOMAIN STACK: "~8192-entry chunks" standing in for an HDF5
// chunked dataset).
const chunkSize = 8192

// record kinds, written as a single byte before each record.
const (
	kindDataset byte = iota
	kindCounters
	kindText
)

// A Sink is an append-only collection of named records: float64
// datasets, a counters record, and keyed text blobs (an XML
// description, or a serialized RNG stream).
type Sink struct {
	f *os.File
	w *bufio.Writer

	// counters accumulates the running total written under each
	// counters key, so that WriteCounters sums across calls instead
	// of recording an independent snapshot each time (§4.H).
	counters map[string]Counters
}

// Create creates a new sink at path, truncating any existing file.
func Create(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Create", Err: err}
	}
	return &Sink{f: f, w: bufio.NewWriter(f), counters: make(map[string]Counters)}, nil
}

// Close flushes and closes the sink.
func (s *Sink) Close() error {
	if err := s.w.Flush(); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.Close", Err: err}
	}
	if err := s.f.Close(); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.Close", Err: err}
	}
	return nil
}

func writeKey(w io.Writer, key string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(key))); err != nil {
		return err
	}
	_, err := io.WriteString(w, key)
	return err
}

// WriteDataset appends a named float64 dataset, split into chunks of
// chunkSize entries (the final chunk may be shorter).
func (s *Sink) WriteDataset(key string, data []float64) error {
	if err := s.writeHeader(kindDataset, key, len(data)); err != nil {
		return err
	}
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		if err := binary.Write(s.w, binary.LittleEndian, uint32(len(chunk))); err != nil {
			return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.WriteDataset", Err: err}
		}
		if err := binary.Write(s.w, binary.LittleEndian, chunk); err != nil {
			return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.WriteDataset", Err: err}
		}
	}
	return nil
}

func (s *Sink) writeHeader(kind byte, key string, n int) error {
	if err := s.w.WriteByte(kind); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.writeHeader", Err: err}
	}
	if err := writeKey(s.w, key); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.writeHeader", Err: err}
	}
	if err := binary.Write(s.w, binary.LittleEndian, uint64(n)); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.writeHeader", Err: err}
	}
	return nil
}

// Counters holds the four exit-class totals of a run (§4.F/§4.G).
type Counters struct {
	Transmitted   int64
	Ballistic     int64
	Reflected     int64
	BackReflected int64
}

// WriteCounters appends the run's exit-class counters record, summed
// with every previous counters record written under the same key
// (§4.H: "write a counters record ... summed across writes"). A reader
// that keeps only the last record seen per key (as cmd/mchist does)
// observes the running total.
func (s *Sink) WriteCounters(key string, c Counters) error {
	total := s.counters[key]
	total.Transmitted += c.Transmitted
	total.Ballistic += c.Ballistic
	total.Reflected += c.Reflected
	total.BackReflected += c.BackReflected
	s.counters[key] = total

	if err := s.writeHeader(kindCounters, key, 4); err != nil {
		return err
	}
	vals := [4]int64{total.Transmitted, total.Ballistic, total.Reflected, total.BackReflected}
	if err := binary.Write(s.w, binary.LittleEndian, vals); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.WriteCounters", Err: err}
	}
	return nil
}

// WriteText appends a named variable-length text blob: an XML
// configuration, or a serialized RNG stream snapshot.
func (s *Sink) WriteText(key string, text []byte) error {
	if err := s.writeHeader(kindText, key, len(text)); err != nil {
		return err
	}
	if _, err := s.w.Write(text); err != nil {
		return &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.Sink.WriteText", Err: err}
	}
	return nil
}

// A Record describes one entry read back from a Sink, tagged by its
// kind: exactly one of Dataset, Counters, or Text is populated.
type Record struct {
	Key      string
	Dataset  []float64
	Counters *Counters
	Text     []byte
}

// ReadAll reads every record from the file at path, in write order.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var recs []Record
	for {
		kindByte, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
		}

		key, err := readKey(r)
		if err != nil {
			return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
		}
		var n uint64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
		}

		switch kindByte {
		case kindDataset:
			data, err := readDataset(r, int(n))
			if err != nil {
				return nil, err
			}
			recs = append(recs, Record{Key: key, Dataset: data})
		case kindCounters:
			var vals [4]int64
			if err := binary.Read(r, binary.LittleEndian, &vals); err != nil {
				return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
			}
			recs = append(recs, Record{Key: key, Counters: &Counters{
				Transmitted: vals[0], Ballistic: vals[1], Reflected: vals[2], BackReflected: vals[3],
			}})
		case kindText:
			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: err}
			}
			recs = append(recs, Record{Key: key, Text: buf})
		default:
			return nil, &mcerr.Error{Kind: mcerr.IoFailure, Op: "output.ReadAll", Err: fmt.Errorf("unknown record kind %d", kindByte)}
		}
	}
	return recs, nil
}

func readKey(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readDataset(r io.Reader, total int) ([]float64, error) {
	data := make([]float64, 0, total)
	for len(data) < total {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		chunk := make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}
	return data, nil
}
