// Package literal holds obfuscated string constants and the runtime
// routines that decode them.
//
// An ObfString (or ObfWString for the UTF-16 wide form) is the only
// artifact the generator persists into a binary: a 32-bit key and the
// ciphertext, sized exactly to the code-unit count of the source text.
// The plaintext never exists in static data.
//
// Decoding is deliberately indirect. The decode routines are reached
// through a masked address (the stored value is routine address plus a
// caller-supplied scalar, read through an opaque load and unmasked at
// the call site), and the data pointer handed to a routine is offset by
// len times a per-process shift that the routine undoes internally.
// Neither the routine address nor the ciphertext address appears as a
// direct operand at the call site. Both layers are deterrence against
// static scanning, not correctness mechanisms.
//
// Decode and compare never fail at runtime. Corrupted ciphertext decodes
// to garbage silently; there is no checksum.
package literal

import (
	"runtime"
	"unsafe"

	"github.com/veilstr/veilstr/internal/constants"
	"github.com/veilstr/veilstr/pkg/cipher"
	"github.com/veilstr/veilstr/pkg/wide"
)

// ObfString is an obfuscated narrow (UTF-8) string constant: the
// per-literal key and the ciphertext baked into the binary. Immutable
// after construction.
type ObfString struct {
	key  uint32
	data []byte
}

// MakeBytes wraps precomputed ciphertext. This is the constructor the
// generated code calls; the data must have been produced by the
// generator with the same key.
func MakeBytes(key uint32, data []byte) ObfString {
	return ObfString{key: key, data: data}
}

// ObfuscateBytes encodes text under key. This is the build-time
// construction path used by the generator.
func ObfuscateBytes(key uint32, text string) ObfString {
	return ObfString{key: key, data: cipher.EncodeBytes(key, []byte(text))}
}

// Key returns the literal's key.
func (s ObfString) Key() uint32 { return s.key }

// Len returns the ciphertext length in bytes, which equals the UTF-8
// byte count of the source text.
func (s ObfString) Len() int { return len(s.data) }

// Data returns a copy of the ciphertext.
func (s ObfString) Data() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Deobfuscate decodes the literal into a fresh caller-owned buffer.
//
// x is the caller-supplied masking scalar; the generator emits a
// per-call-site 16-bit value for it. Any value works, only the low 16
// bits are used.
func (s ObfString) Deobfuscate(x uintptr) Buffer {
	n := len(s.data)
	buf := make([]byte, n)
	if n == 0 {
		return Buffer{b: buf}
	}
	x &= constants.MaskScalarBits
	src := uintptr(unsafe.Pointer(&s.data[0])) - uintptr(n)*xrefShift
	resolveByteDecoder(x)(uintptr(unsafe.Pointer(&buf[0])), src, n, s.key)
	runtime.KeepAlive(s.data)
	runtime.KeepAlive(buf)
	return Buffer{b: buf}
}

// Eq reports whether candidate equals the literal's plaintext without
// materializing the plaintext. Short-circuits on length mismatch and on
// the first unequal byte; not constant-time.
func (s ObfString) Eq(candidate string, x uintptr) bool {
	n := len(s.data)
	if len(candidate) != n {
		return false
	}
	if n == 0 {
		return true
	}
	x &= constants.MaskScalarBits
	src := uintptr(unsafe.Pointer(&s.data[0])) - uintptr(n)*xrefShift
	clear := uintptr(unsafe.Pointer(unsafe.StringData(candidate)))
	ok := resolveByteComparer(x)(src, clear, n, s.key)
	runtime.KeepAlive(s.data)
	runtime.KeepAlive(candidate)
	return ok
}

// Buffer is a decoded narrow string buffer, exclusively owned by the
// caller that decoded it.
type Buffer struct {
	b []byte
}

// Bytes returns the decoded bytes.
func (b Buffer) Bytes() []byte { return b.b }

// String returns the decoded text. In verification builds (the veilcheck
// build tag) it validates that the bytes form well-formed UTF-8 and
// panics otherwise; release builds trust the construction path and skip
// the check.
func (b Buffer) String() string {
	verifyNarrow(b.b)
	return string(b.b)
}

// ObfWString is an obfuscated wide (UTF-16) string constant.
type ObfWString struct {
	key  uint32
	data []uint16
}

// MakeWords wraps precomputed wide ciphertext for generated code.
func MakeWords(key uint32, data []uint16) ObfWString {
	return ObfWString{key: key, data: data}
}

// ObfuscateWords converts text to UTF-16 and encodes it under key. The
// build-time construction path for wide literals; malformed UTF-8 is a
// build-time error.
func ObfuscateWords(key uint32, text string) (ObfWString, error) {
	units, err := wide.Encode(text)
	if err != nil {
		return ObfWString{}, err
	}
	return ObfWString{key: key, data: cipher.EncodeWords(key, units)}, nil
}

// Key returns the literal's key.
func (s ObfWString) Key() uint32 { return s.key }

// Len returns the ciphertext length in UTF-16 units, counting surrogate
// pairs as two.
func (s ObfWString) Len() int { return len(s.data) }

// Data returns a copy of the ciphertext units.
func (s ObfWString) Data() []uint16 {
	out := make([]uint16, len(s.data))
	copy(out, s.data)
	return out
}

// Deobfuscate decodes the wide literal into a fresh caller-owned buffer.
func (s ObfWString) Deobfuscate(x uintptr) WBuffer {
	n := len(s.data)
	buf := make([]uint16, n)
	if n == 0 {
		return WBuffer{w: buf}
	}
	x &= constants.MaskScalarBits
	src := uintptr(unsafe.Pointer(&s.data[0])) - uintptr(n)*xrefShift*2
	resolveWordDecoder(x)(uintptr(unsafe.Pointer(&buf[0])), src, n, s.key)
	runtime.KeepAlive(s.data)
	runtime.KeepAlive(buf)
	return WBuffer{w: buf}
}

// Eq reports whether candidate equals the literal's plaintext units.
// Same semantics as ObfString.Eq.
func (s ObfWString) Eq(candidate []uint16, x uintptr) bool {
	n := len(s.data)
	if len(candidate) != n {
		return false
	}
	if n == 0 {
		return true
	}
	x &= constants.MaskScalarBits
	src := uintptr(unsafe.Pointer(&s.data[0])) - uintptr(n)*xrefShift*2
	clear := uintptr(unsafe.Pointer(&candidate[0]))
	ok := resolveWordComparer(x)(src, clear, n, s.key)
	runtime.KeepAlive(s.data)
	runtime.KeepAlive(candidate)
	return ok
}

// WBuffer is a decoded wide string buffer.
type WBuffer struct {
	w []uint16
}

// Words returns the decoded UTF-16 units.
func (b WBuffer) Words() []uint16 { return b.w }

// String decodes the UTF-16 units for display, recombining surrogate
// pairs.
func (b WBuffer) String() string {
	return wide.Decode(b.w)
}
