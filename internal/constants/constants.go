// Package constants defines the obfuscation parameters shared by the
// veilstr code generator and its runtime support packages.
//
// All values here are build-time parameters: changing any of them changes
// the output of the generator and must be followed by a full regeneration
// of every protected package.
package constants

// Seed configuration
const (
	// SeedEnvVar names the environment variable holding the seed
	// configuration string for a build.
	SeedEnvVar = "VEILSTR_SEED"

	// DefaultSeedConfig is the fallback seed configuration used when no
	// seed is supplied. A missing seed must never fail the build.
	DefaultSeedConfig = "VEILSTR/default-seed/v1"

	// RuntimeSeedSymbol is the linker symbol that injects the seed
	// configuration into the runtime literal package:
	//
	//	-ldflags "-X github.com/veilstr/veilstr/pkg/literal.seedConfig=..."
	RuntimeSeedSymbol = "github.com/veilstr/veilstr/pkg/literal.seedConfig"
)

// Hash and mixer parameters (DJB2 rolling hash, splitmix64 finalizer)
const (
	// HashBasis is the DJB2 starting value.
	HashBasis uint32 = 3581

	// HashMultiplier is the DJB2 per-byte multiplier.
	HashMultiplier uint32 = 33

	// SplitmixGamma is the odd increment added before finalization.
	SplitmixGamma uint64 = 0x9e3779b97f4a7c15

	// SplitmixMul1 and SplitmixMul2 are the odd finalization multipliers.
	SplitmixMul1 uint64 = 0xbf58476d1ce4e5b9
	SplitmixMul2 uint64 = 0x94d049bb133111eb
)

// Data reference obfuscation
const (
	// XrefShiftBase is the minimum element shift applied to ciphertext
	// data pointers handed to the decode routines.
	XrefShiftBase = 32

	// XrefShiftMask selects the randomized portion of the shift, giving
	// an effective shift range of [32, 63].
	XrefShiftMask = 31

	// MaskScalarBits limits caller-supplied masking scalars to 16 bits.
	MaskScalarBits = 0xffff
)

// UTF-16 conversion parameters
const (
	// SupplementaryBase is the first code point requiring a surrogate pair.
	SupplementaryBase = 0x10000

	// SurrogateHighBase and SurrogateLowBase are the surrogate range bases.
	SurrogateHighBase = 0xD800
	SurrogateLowBase  = 0xDC00
)

// Generator output
const (
	// GeneratedFileName is the per-package file the generator emits.
	GeneratedFileName = "veilstr_gen.go"

	// SymbolPrefix prefixes every generated literal symbol.
	SymbolPrefix = "vs"

	// MarkerImportPath is the import path whose marker calls the
	// generator rewrites.
	MarkerImportPath = "github.com/veilstr/veilstr"

	// RuntimeImportPath is the package the generated file imports.
	RuntimeImportPath = "github.com/veilstr/veilstr/pkg/literal"

	// DefaultDecoyCount is the number of chaff entries emitted per
	// generated file when not overridden.
	DefaultDecoyCount = 4

	// DecoyDomain separates the decoy XOF stream from other seed uses.
	DecoyDomain = "veilstr-decoy-v1"

	// DigestDomain separates the generated-file digest from other
	// SHAKE-256 uses.
	DigestDomain = "veilstr-digest-v1"

	// DigestSize is the emitted digest length in bytes.
	DigestSize = 16
)

// Logging environment
const (
	// LogLevelEnvVar overrides the generator log level.
	LogLevelEnvVar = "VEILSTR_LOG_LEVEL"

	// JSONLogEnvVar switches generator logs to JSON when set to "1".
	JSONLogEnvVar = "VEILSTR_JSON_LOG"
)
