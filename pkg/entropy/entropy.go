// Package entropy implements the deterministic hash and bit-mixing core
// of veilstr.
//
// Every value produced here is a pure function of literal source-location
// metadata and a fixed per-build seed. That property is what allows the
// generator to compute keys ahead of compilation and the runtime to
// derive matching parameters without any shared state.
//
// Mathematical Foundation:
//
// Hash is the classic DJB2 rolling hash: h = h*33 + b over the input
// bytes, order sensitive, cheap, and good enough for folding short path
// strings. Mix is a splitmix64 finalizer: an odd-constant increment
// followed by three xorshift/odd-multiply rounds and a final xorshift.
// The finalizer's avalanche property (a single-bit input change flips
// about half the output bits) is what spreads near-identical source
// locations across the 64-bit space.
package entropy

import (
	"math"

	"github.com/veilstr/veilstr/internal/constants"
	verrors "github.com/veilstr/veilstr/internal/errors"
)

// Hash computes the DJB2 rolling hash of s.
//
// Deterministic and order sensitive: changing any byte of the input
// changes the result. Used both to fold the seed configuration string
// and to fold file paths into call-site entropy.
func Hash(s string) uint32 {
	result := constants.HashBasis
	for i := 0; i < len(s); i++ {
		result = result*constants.HashMultiplier + uint32(s[i])
	}
	return result
}

// Mix applies the splitmix64 finalizer to x.
func Mix(x uint64) uint64 {
	z := x + constants.SplitmixGamma
	z = (z ^ (z >> 30)) * constants.SplitmixMul1
	z = (z ^ (z >> 27)) * constants.SplitmixMul2
	return z ^ (z >> 31)
}

// SeedFrom derives the process-wide build seed from a seed configuration
// string. An empty configuration falls back to the fixed default rather
// than failing.
func SeedFrom(config string) uint64 {
	if config == "" {
		config = constants.DefaultSeedConfig
	}
	return Mix(uint64(Hash(config)))
}

// Entropy derives a well-distributed 64-bit value from a seed and a
// source location. Distinct call sites almost always yield distinct
// values; the same call site always yields the same value under the
// same seed.
func Entropy(seed uint64, file string, line, column uint32) uint64 {
	return Mix(Mix(Mix(seed^uint64(Hash(file)))^uint64(line)) ^ uint64(column))
}

// --- Scalar narrowing ---
//
// The narrowing functions adapt a 64-bit entropy value to a target
// scalar's natural range. Integers truncate to their bit width, a bool
// is true iff the signed interpretation is non-negative, and floats are
// built by forcing a fixed exponent (biased 0, value in [1.0, 2.0)) and
// filling the mantissa from the high-order entropy bits. The float path
// is a pure bit reinterpretation, not an arithmetic draw.

// Uint8 narrows e to a uint8.
func Uint8(e uint64) uint8 { return uint8(e) }

// Uint16 narrows e to a uint16.
func Uint16(e uint64) uint16 { return uint16(e) }

// Uint32 narrows e to a uint32.
func Uint32(e uint64) uint32 { return uint32(e) }

// Uint64 narrows e to a uint64.
func Uint64(e uint64) uint64 { return e }

// Int8 narrows e to an int8 (two's-complement truncation).
func Int8(e uint64) int8 { return int8(e) }

// Int16 narrows e to an int16 (two's-complement truncation).
func Int16(e uint64) int16 { return int16(e) }

// Int32 narrows e to an int32 (two's-complement truncation).
func Int32(e uint64) int32 { return int32(e) }

// Int64 narrows e to an int64 (two's-complement reinterpretation).
func Int64(e uint64) int64 { return int64(e) }

// Bool narrows e to a bool: true iff the signed interpretation of e is
// non-negative.
func Bool(e uint64) bool { return int64(e) >= 0 }

// Float32 narrows e to a float32 in [1.0, 2.0) by forcing a biased
// exponent of zero and filling the 23 mantissa bits from the high bits
// of e.
func Float32(e uint64) float32 {
	return math.Float32frombits(0x7f<<23 | uint32(e)>>9)
}

// Float64 narrows e to a float64 in [1.0, 2.0) by forcing a biased
// exponent of zero and filling the 52 mantissa bits from the high bits
// of e.
func Float64(e uint64) float64 {
	return math.Float64frombits(0x3ff<<52 | e>>12)
}

// Narrow validates kind and narrows e to that scalar kind, returning the
// result widened back to uint64 for uniform handling by the generator.
// Bool is reported as 0 or 1; float kinds return the raw bit pattern.
//
// An unsupported kind is a build-time fatal condition for callers: the
// returned error wraps ErrUnsupportedKind.
func Narrow(kind string, e uint64) (uint64, error) {
	switch kind {
	case "uint8", "byte":
		return uint64(Uint8(e)), nil
	case "uint16":
		return uint64(Uint16(e)), nil
	case "uint32":
		return uint64(Uint32(e)), nil
	case "uint64", "uintptr", "uint":
		return Uint64(e), nil
	case "int8":
		return uint64(uint8(Int8(e))), nil
	case "int16":
		return uint64(uint16(Int16(e))), nil
	case "int32", "rune":
		return uint64(uint32(Int32(e))), nil
	case "int64", "int":
		return uint64(Int64(e)), nil
	case "bool":
		if Bool(e) {
			return 1, nil
		}
		return 0, nil
	case "float32":
		return uint64(math.Float32bits(Float32(e))), nil
	case "float64":
		return math.Float64bits(Float64(e)), nil
	default:
		return 0, verrors.NewGenError("Narrow "+kind, verrors.ErrUnsupportedKind)
	}
}
