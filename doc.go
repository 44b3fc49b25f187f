// Package veilstr provides compile-time string literal obfuscation for Go.
//
// String constants passed through veilstr's marker functions are removed
// from the compiled binary: the veilstr-gen tool rewrites each marked
// call site before compilation, replacing the plaintext with a XOR
// ciphertext constant and a runtime decode call. Plaintext exists only
// transiently on the stack or heap at the moment of use.
//
// # Quick Start
//
// Mark literals in source with the identity functions from this package:
//
//	import "github.com/veilstr/veilstr"
//
//	password := veilstr.S("hunter2")
//	wide := veilstr.W("Windows wants UTF-16")
//	if veilstr.Eq(input, "admin") { ... }
//
// Then run the generator over the tree before building:
//
//	veilstr-gen gen --dir .
//
// The generator rewrites each marker in place and emits a veilstr_gen.go
// file per package holding the obfuscated constants. Unprocessed sources
// still compile and run, the markers are identity functions, so the tool
// can be wired into a go:generate step or a build script without making
// development builds depend on it.
//
// # Package Structure
//
// The library is organized into several packages:
//
//   - pkg/gen: The source scanning and rewriting pipeline
//   - pkg/literal: Runtime representation and decoding of obfuscated constants
//   - pkg/cipher: The keystream cipher shared by generator and runtime
//   - pkg/entropy: Deterministic per-site key derivation
//   - pkg/wide: UTF-8 to UTF-16 conversion for wide literals
//   - internal/constants: Derivation and layout parameters
//   - internal/errors: Custom error types for detailed error handling
//
// # Properties
//
// The obfuscation provides:
//
//   - No plaintext at rest: marked literals never appear byte-for-byte in the binary
//   - Deterministic builds: keys derive from a seed plus the call site position
//   - Reseeding: changing the seed reobfuscates every literal in the tree
//   - Masked decode addresses: ciphertext pointers and decoder addresses are offset in memory
//   - Wide string support: UTF-16 literals with surrogate pairs for Windows APIs
//
// This is obfuscation, not encryption. The key is stored next to the
// ciphertext and comparisons are not constant time. The goal is keeping
// literals out of strings(1) and casual static analysis, not resisting a
// determined reverse engineer.
//
// # Testing
//
//	go test ./...                                   # All tests
//	go test -fuzz=FuzzCipherRoundTrip ./test/fuzz   # Fuzz tests
//	go test -tags veilcheck ./...                   # With decode verification
//	go test -bench=. ./pkg/cipher                   # Benchmarks
//
// For more information, see: https://github.com/veilstr/veilstr
package veilstr
