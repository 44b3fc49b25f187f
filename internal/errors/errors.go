// Package errors defines the error types used by the veilstr generator
// and runtime packages.
//
// Only the build-time pipeline produces recoverable errors. The runtime
// decode and compare paths never fail: given correctly generated
// ciphertext they always succeed, and there is no checksum to detect
// corrupted constants.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for entropy narrowing
var (
	// ErrUnsupportedKind indicates an unknown scalar kind was requested
	// from the entropy narrowing function.
	ErrUnsupportedKind = errors.New("entropy: unsupported scalar kind")
)

// Sentinel errors for wide-text conversion
var (
	// ErrMalformedUTF8 indicates a literal contains a byte sequence that
	// is not a valid UTF-8 leading byte pattern.
	ErrMalformedUTF8 = errors.New("wide: malformed utf-8 sequence")

	// ErrUnitCountMismatch indicates the emitted UTF-16 unit count did
	// not match the precomputed length. This is a generator defect.
	ErrUnitCountMismatch = errors.New("wide: unit count mismatch")
)

// Sentinel errors for the generator pipeline
var (
	// ErrNotAStringLiteral indicates a marker call argument is not a
	// basic string literal and cannot be obfuscated.
	ErrNotAStringLiteral = errors.New("gen: marker argument is not a string literal")

	// ErrRoundTripFailed indicates an encoded literal did not decode
	// back to its source text during generator verification.
	ErrRoundTripFailed = errors.New("gen: encoded literal failed round-trip verification")

	// ErrSymbolCollision indicates two distinct literals derived the
	// same generated symbol name even after rehashing.
	ErrSymbolCollision = errors.New("gen: generated symbol collision")

	// ErrBadGeneratedFile indicates an existing generated file could not
	// be parsed while merging new literals into it.
	ErrBadGeneratedFile = errors.New("gen: cannot parse existing generated file")
)

// GenError wraps a pipeline error with the operation that failed.
type GenError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *GenError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenError) Unwrap() error {
	return e.Err
}

// NewGenError creates a GenError with the given operation and underlying error.
func NewGenError(op string, err error) *GenError {
	return &GenError{Op: op, Err: err}
}

// PositionError attaches a source position to a build-time error so the
// generator can point at the offending call site.
type PositionError struct {
	Position string // file:line:column of the marker call
	Err      error  // Underlying error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Position, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// NewPositionError creates a PositionError for the given position.
func NewPositionError(pos string, err error) *PositionError {
	return &PositionError{Position: pos, Err: err}
}

// Is reports whether target matches err or any error it wraps.
// Re-exported so callers need not import both error packages.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
