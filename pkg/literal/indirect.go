// indirect.go implements the call-site obfuscation layer: masked
// resolution of the decode routine addresses and the shifted data
// pointers the routines undo internally.
//
// A Go func value is a pointer to a funcval. The references stored here
// are those pointers as plain integers; resolution adds the caller's
// masking scalar, reads the sum through an opaque (non-foldable) load,
// subtracts the scalar back out, and reinterprets the integer as a func
// value. The compiler cannot fold the arithmetic into a direct
// reference because the load is opaque to it.
//
// Portability note: this assumes addresses are plain integers and that
// the referenced objects do not move. Package-level funcvals and heap
// slices satisfy that on the gc runtime.

package literal

import (
	"sync/atomic"
	"unsafe"

	"github.com/veilstr/veilstr/internal/constants"
	"github.com/veilstr/veilstr/pkg/cipher"
	"github.com/veilstr/veilstr/pkg/entropy"
)

// seedConfig is injected at link time via
//
//	-ldflags "-X github.com/veilstr/veilstr/pkg/literal.seedConfig=..."
//
// and falls back to the fixed default when absent. It only has to be
// self-consistent within one binary; it does not need to match the
// generator's seed.
var seedConfig string

// xrefShift is the per-process element shift applied to ciphertext data
// pointers, in [32, 63].
var xrefShift uintptr

func init() {
	e := entropy.Entropy(entropy.SeedFrom(seedConfig), "pkg/literal/indirect.go", 1, 1)
	xrefShift = uintptr(entropy.Uint8(e)&constants.XrefShiftMask) + constants.XrefShiftBase
}

// Shift returns the current data pointer shift. Exposed for diagnostics.
func Shift() int { return int(xrefShift) }

type byteDecoder func(dst, src uintptr, n int, key uint32)
type byteComparer func(src, clear uintptr, n int, key uint32) bool
type wordDecoder func(dst, src uintptr, n int, key uint32)
type wordComparer func(src, clear uintptr, n int, key uint32) bool

// decodeBytes replays the key schedule over n bytes at src (which
// arrives pre-offset by n*xrefShift and is undone here) into dst.
//
// The nocheckptr directive covers the shifted src: until the offset is
// undone the intermediate value points outside the ciphertext
// allocation, which checkptr-instrumented builds would reject.
//
//go:noinline
//go:nocheckptr
func decodeBytes(dst, src uintptr, n int, key uint32) {
	src += uintptr(n) * xrefShift
	for i := 0; i < n; i++ {
		key = cipher.NextRound(key)
		*(*byte)(unsafe.Pointer(dst + uintptr(i))) = *(*byte)(unsafe.Pointer(src + uintptr(i))) ^ byte(key)
	}
}

// eqBytes compares n cleartext bytes at clear against the key stream
// XOR ciphertext at src, short-circuiting on the first mismatch.
//
//go:noinline
//go:nocheckptr
func eqBytes(src, clear uintptr, n int, key uint32) bool {
	src += uintptr(n) * xrefShift
	for i := 0; i < n; i++ {
		key = cipher.NextRound(key)
		if *(*byte)(unsafe.Pointer(clear + uintptr(i))) != *(*byte)(unsafe.Pointer(src + uintptr(i)))^byte(key) {
			return false
		}
	}
	return true
}

//go:noinline
//go:nocheckptr
func decodeWords(dst, src uintptr, n int, key uint32) {
	src += uintptr(n) * xrefShift * 2
	for i := 0; i < n; i++ {
		key = cipher.NextRound(key)
		*(*uint16)(unsafe.Pointer(dst + uintptr(i)*2)) = *(*uint16)(unsafe.Pointer(src + uintptr(i)*2)) ^ uint16(key)
	}
}

//go:noinline
//go:nocheckptr
func eqWords(src, clear uintptr, n int, key uint32) bool {
	src += uintptr(n) * xrefShift * 2
	for i := 0; i < n; i++ {
		key = cipher.NextRound(key)
		if *(*uint16)(unsafe.Pointer(clear + uintptr(i)*2)) != *(*uint16)(unsafe.Pointer(src + uintptr(i)*2))^uint16(key) {
			return false
		}
	}
	return true
}

// Funcval references for the decode routines. Held as func-typed
// variables so their addresses exist as data, then captured as integers.
var (
	decodeBytesFn byteDecoder  = decodeBytes
	eqBytesFn     byteComparer = eqBytes
	decodeWordsFn wordDecoder  = decodeWords
	eqWordsFn     wordComparer = eqWords

	decodeBytesRef = *(*uintptr)(unsafe.Pointer(&decodeBytesFn))
	eqBytesRef     = *(*uintptr)(unsafe.Pointer(&eqBytesFn))
	decodeWordsRef = *(*uintptr)(unsafe.Pointer(&decodeWordsFn))
	eqWordsRef     = *(*uintptr)(unsafe.Pointer(&eqWordsFn))
)

// opaque reads p through an atomic load the compiler must preserve,
// keeping the mask arithmetic around it from constant-folding into a
// direct reference.
//
//go:noinline
func opaque(p *uintptr) uintptr {
	return atomic.LoadUintptr(p)
}

func resolveByteDecoder(x uintptr) byteDecoder {
	masked := decodeBytesRef + x
	p := opaque(&masked) - x
	return *(*byteDecoder)(unsafe.Pointer(&p))
}

func resolveByteComparer(x uintptr) byteComparer {
	masked := eqBytesRef + x
	p := opaque(&masked) - x
	return *(*byteComparer)(unsafe.Pointer(&p))
}

func resolveWordDecoder(x uintptr) wordDecoder {
	masked := decodeWordsRef + x
	p := opaque(&masked) - x
	return *(*wordDecoder)(unsafe.Pointer(&p))
}

func resolveWordComparer(x uintptr) wordComparer {
	masked := eqWordsRef + x
	p := opaque(&masked) - x
	return *(*wordComparer)(unsafe.Pointer(&p))
}
