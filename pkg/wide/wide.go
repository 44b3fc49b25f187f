// Package wide converts UTF-8 text to UTF-16 code units for the wide
// form of obfuscated literals.
//
// The converter is two-pass: Len walks the input once to compute the
// exact unit count (code points at or above U+10000 take a surrogate
// pair, everything else a single unit), and Encode walks it again to
// emit the units. The passes must agree; a mismatch is a generator
// defect, not a runtime condition.
//
// Malformed input is a build-time fatal error. Literals come from Go
// source text, which the compiler already requires to be valid UTF-8, so
// the error paths exist to catch generator misuse rather than user data.
package wide

import (
	"unicode/utf16"

	"github.com/veilstr/veilstr/internal/constants"
	verrors "github.com/veilstr/veilstr/internal/errors"
)

// nextRune decodes one code point starting at s[i], branching on the
// leading byte pattern, and returns the code point and the index of the
// next sequence.
func nextRune(s string, i int) (uint32, int, error) {
	b := s[i]
	switch {
	case b&0x80 == 0x00:
		return uint32(b), i + 1, nil
	case b&0xe0 == 0xc0:
		if i+1 >= len(s) {
			return 0, 0, verrors.ErrMalformedUTF8
		}
		cp := uint32(b&0x1f)<<6 | uint32(s[i+1]&0x3f)
		return cp, i + 2, nil
	case b&0xf0 == 0xe0:
		if i+2 >= len(s) {
			return 0, 0, verrors.ErrMalformedUTF8
		}
		cp := uint32(b&0x0f)<<12 | uint32(s[i+1]&0x3f)<<6 | uint32(s[i+2]&0x3f)
		return cp, i + 3, nil
	case b&0xf8 == 0xf0:
		if i+3 >= len(s) {
			return 0, 0, verrors.ErrMalformedUTF8
		}
		cp := uint32(b&0x07)<<18 | uint32(s[i+1]&0x3f)<<12 | uint32(s[i+2]&0x3f)<<6 | uint32(s[i+3]&0x3f)
		return cp, i + 4, nil
	default:
		return 0, 0, verrors.ErrMalformedUTF8
	}
}

// Len returns the number of UTF-16 code units required to encode s,
// counting surrogate pairs as two units.
func Len(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); {
		cp, next, err := nextRune(s, i)
		if err != nil {
			return 0, verrors.NewGenError("wide.Len", err)
		}
		if cp >= constants.SupplementaryBase {
			n += 2
		} else {
			n++
		}
		i = next
	}
	return n, nil
}

// Encode converts s to UTF-16 code units, emitting surrogate pairs for
// code points at or above U+10000. The returned slice length always
// equals the Len precount.
func Encode(s string) ([]uint16, error) {
	n, err := Len(s)
	if err != nil {
		return nil, err
	}
	data := make([]uint16, n)
	j := 0
	for i := 0; i < len(s); {
		cp, next, err := nextRune(s, i)
		if err != nil {
			return nil, verrors.NewGenError("wide.Encode", err)
		}
		if cp >= constants.SupplementaryBase {
			data[j] = uint16(constants.SurrogateHighBase + (cp-constants.SupplementaryBase)/0x400)
			data[j+1] = uint16(constants.SurrogateLowBase + (cp-constants.SupplementaryBase)%0x400)
			j += 2
		} else {
			data[j] = uint16(cp)
			j++
		}
		i = next
	}
	if j != n {
		return nil, verrors.NewGenError("wide.Encode", verrors.ErrUnitCountMismatch)
	}
	return data, nil
}

// Decode reconstructs a string from UTF-16 code units, recombining
// surrogate pairs. Unpaired surrogates become the replacement character.
// Used on the display path and in tests; the obfuscation pipeline itself
// only ever encodes.
func Decode(units []uint16) string {
	return string(utf16.Decode(units))
}
