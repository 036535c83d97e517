// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package harness

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrConstruction indicates a transaction or block could not be
	// constructed locally before it was ever submitted to the node.
	ErrConstruction = ErrorKind("ErrConstruction")

	// ErrNodeFailure indicates a call to the node failed at the transport
	// or RPC level rather than producing a pool or block level verdict.
	ErrNodeFailure = ErrorKind("ErrNodeFailure")

	// ErrOutcomeMismatch indicates the node accepted a submission the
	// scripted sequence expected it to reject, or rejected one it
	// expected it to accept.
	ErrOutcomeMismatch = ErrorKind("ErrOutcomeMismatch")

	// ErrRejectMismatch indicates the node rejected a submission as
	// expected, but with a different reject code or reason than the
	// scripted sequence requires.
	ErrRejectMismatch = ErrorKind("ErrRejectMismatch")

	// ErrMedianTimeMismatch indicates the median time reported by the
	// node does not match the value the scripted sequence requires at
	// that point.
	ErrMedianTimeMismatch = ErrorKind("ErrMedianTimeMismatch")

	// ErrTimeout indicates a bounded wait for an observable node state
	// change expired before the state was observed.
	ErrTimeout = ErrorKind("ErrTimeout")

	// ErrNoSpendableOutputs indicates the scripted sequence required a
	// spendable output when the output stack was empty.
	ErrNoSpendableOutputs = ErrorKind("ErrNoSpendableOutputs")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a scripted sequence failure.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific reason
// for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
