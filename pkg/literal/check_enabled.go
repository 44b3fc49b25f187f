//go:build veilcheck
// +build veilcheck

package literal

import "unicode/utf8"

// verifyNarrow aborts loudly if a decoded narrow buffer is not valid
// UTF-8. The bytes originate from a valid UTF-8 literal, so a failure
// here means corrupted generated data or a generator defect.
func verifyNarrow(b []byte) {
	if !utf8.Valid(b) {
		panic("veilstr: decoded buffer is not valid utf-8")
	}
}

// CheckEnabled reports whether decode verification is built in.
func CheckEnabled() bool {
	return true
}
