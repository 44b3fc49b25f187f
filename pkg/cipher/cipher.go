// Package cipher implements the keyed XOR stream used to obfuscate
// string literals.
//
// The key schedule is a 32-bit xorshift permutation: starting from a
// per-literal key, each application of NextRound produces the next key
// state, and each code unit is XORed with the low byte (or word) of that
// state. The schedule is a full-period permutation of the nonzero 32-bit
// space, and because XOR is its own inverse, decoding replays exactly
// the same round sequence as encoding.
//
// This is not cryptography. The threat model is static extraction of
// plaintext from a compiled binary; an attacker who can observe decoded
// memory or execute the binary is out of scope.
package cipher

// NextRound evolves the key schedule state by one step using a
// three-stage xorshift.
func NextRound(x uint32) uint32 {
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return x
}

// EncodeBytes obfuscates text with the key stream starting at key and
// returns the ciphertext. The output length equals len(text); a
// zero-length text yields a zero-length ciphertext.
func EncodeBytes(key uint32, text []byte) []byte {
	data := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		key = NextRound(key)
		data[i] = text[i] ^ byte(key)
	}
	return data
}

// DecodeBytes reverses EncodeBytes by replaying the identical round
// sequence.
func DecodeBytes(key uint32, data []byte) []byte {
	text := make([]byte, len(data))
	for i := 0; i < len(data); i++ {
		key = NextRound(key)
		text[i] = data[i] ^ byte(key)
	}
	return text
}

// EqBytes reports whether candidate equals the plaintext of data under
// key, without materializing the plaintext. It short-circuits on length
// mismatch and on the first unequal unit; the comparison is deliberately
// not constant-time.
func EqBytes(key uint32, data []byte, candidate string) bool {
	if len(candidate) != len(data) {
		return false
	}
	for i := 0; i < len(data); i++ {
		key = NextRound(key)
		if candidate[i] != data[i]^byte(key) {
			return false
		}
	}
	return true
}

// EncodeWords obfuscates a UTF-16 unit sequence with the key stream
// starting at key, XORing each unit with the low word of the evolving
// state.
func EncodeWords(key uint32, text []uint16) []uint16 {
	data := make([]uint16, len(text))
	for i := 0; i < len(text); i++ {
		key = NextRound(key)
		data[i] = text[i] ^ uint16(key)
	}
	return data
}

// DecodeWords reverses EncodeWords.
func DecodeWords(key uint32, data []uint16) []uint16 {
	text := make([]uint16, len(data))
	for i := 0; i < len(data); i++ {
		key = NextRound(key)
		text[i] = data[i] ^ uint16(key)
	}
	return text
}

// EqWords reports whether candidate equals the plaintext units of data
// under key. Same short-circuit semantics as EqBytes.
func EqWords(key uint32, data []uint16, candidate []uint16) bool {
	if len(candidate) != len(data) {
		return false
	}
	for i := 0; i < len(data); i++ {
		key = NextRound(key)
		if candidate[i] != data[i]^uint16(key) {
			return false
		}
	}
	return true
}
