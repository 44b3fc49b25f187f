package veilstr

import (
	"github.com/veilstr/veilstr/pkg/wide"
)

// S marks a string literal for obfuscation. In unprocessed source it is
// the identity function; the generator replaces the call with a decode
// of the obfuscated constant. The argument must be a basic string
// literal, not a variable or expression.
func S(s string) string { return s }

// W marks a string literal for obfuscation as a UTF-16 word sequence.
// In unprocessed source it converts eagerly; the generator replaces the
// call with a decode of the precomputed word constant.
func W(s string) []uint16 {
	w, err := wide.Encode(s)
	if err != nil {
		panic("veilstr: " + err.Error())
	}
	return w
}

// Eq marks a comparison of candidate against the string literal lit.
// In unprocessed source it is a plain comparison; the generator replaces
// the call with a comparison against the obfuscated constant that never
// materializes the literal's plaintext. Not constant time.
func Eq(candidate, lit string) bool { return candidate == lit }

// WEq marks a comparison of a UTF-16 candidate against the string
// literal lit, converted to UTF-16. Semantics mirror Eq.
func WEq(candidate []uint16, lit string) bool {
	w := W(lit)
	if len(candidate) != len(w) {
		return false
	}
	for i, u := range w {
		if candidate[i] != u {
			return false
		}
	}
	return true
}
