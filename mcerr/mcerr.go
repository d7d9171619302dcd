// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mcerr implements the classified error kinds used across the
// simulation engine, following the standard library's *fs.PathError
// idiom: a small wrapper type that carries a machine-checkable Kind
// plus the context an operator needs (the operation, and for
// per-walker failures, the originating seed and walker index).
package mcerr

import "fmt"

// Kind classifies an error for recovery-policy purposes (§7).
type Kind int

// Valid error kinds.
const (
	// ConfigInvalid marks a missing source/sample, a bad histogram
	// configuration, or an exponent requested on a non-time
	// histogram. Surfaced before the run starts; aborts it.
	ConfigInvalid Kind = iota

	// IoFailure marks an inability to open, create, or extend a
	// dataset. Reported with the target path; never corrupts
	// in-memory state, so the caller may retry with a different
	// target.
	IoFailure

	// ParseError marks malformed XML input or an unknown
	// distribution token. Surfaced before the run starts; aborts
	// it.
	ParseError

	// NumericalAnomaly marks a non-finite intermediate value
	// encountered while advancing a walker. The walker that
	// produced it is discarded, never folded into results; the
	// run continues.
	NumericalAnomaly
)

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "config invalid"
	case IoFailure:
		return "io failure"
	case ParseError:
		return "parse error"
	case NumericalAnomaly:
		return "numerical anomaly"
	default:
		return "unknown error kind"
	}
}

// An Error is a classified error produced by the engine.
type Error struct {
	// Kind classifies the error.
	Kind Kind

	// Op names the operation that failed, e.g. "walker.Run".
	Op string

	// Seed and Walker identify the originating worker stream and
	// walker index, when Kind is NumericalAnomaly. Both are zero
	// otherwise.
	Seed   uint64
	Walker int

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Kind == NumericalAnomaly {
		msg = fmt.Sprintf("%s (seed %d, walker %d)", msg, e.Seed, e.Walker)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, &mcerr.Error{Kind: mcerr.IoFailure}) style checks work
// without matching Op/Seed/Walker/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
