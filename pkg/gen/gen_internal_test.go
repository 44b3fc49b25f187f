package gen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/veilstr/veilstr/pkg/cipher"
)

// TestRenderEntryNarrow verifies narrow entries render as MakeBytes
// declarations carrying only ciphertext.
func TestRenderEntryNarrow(t *testing.T) {
	e := &Entry{
		Symbol: "vs01020304",
		Key:    0xdeadbeef,
		Bytes:  cipher.EncodeBytes(0xdeadbeef, []byte("hi")),
	}
	line := renderEntry(e)
	if !strings.HasPrefix(line, "vs01020304 = literal.MakeBytes(0xdeadbeef, []byte{") {
		t.Errorf("unexpected rendering: %s", line)
	}
	if strings.Contains(line, "hi") {
		t.Error("rendering should not contain plaintext")
	}
}

// TestRenderEntryWide verifies wide entries render as MakeWords
// declarations.
func TestRenderEntryWide(t *testing.T) {
	e := &Entry{
		Symbol: "vsaabbccdd",
		Wide:   true,
		Key:    0x1234,
		Words:  cipher.EncodeWords(0x1234, []uint16{'o', 'k'}),
	}
	line := renderEntry(e)
	if !strings.HasPrefix(line, "vsaabbccdd = literal.MakeWords(0x00001234, []uint16{") {
		t.Errorf("unexpected rendering: %s", line)
	}
}

// TestDecoyDeterminism verifies the chaff stream is a pure function of
// its seed.
func TestDecoyDeterminism(t *testing.T) {
	a := decoyBlobs(0x1111, 4)
	b := decoyBlobs(0x1111, 4)
	if len(a) != 4 || len(b) != 4 {
		t.Fatalf("expected 4 blobs, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("blob %d differs between identical seeds", i)
		}
		if len(a[i]) < 8 || len(a[i]) >= 40 {
			t.Errorf("blob %d size %d outside [8, 40)", i, len(a[i]))
		}
	}

	c := decoyBlobs(0x2222, 4)
	same := true
	for i := range a {
		if !bytes.Equal(a[i], c[i]) {
			same = false
		}
	}
	if same {
		t.Error("different seeds should yield different chaff")
	}

	if decoyBlobs(0x1111, 0) != nil {
		t.Error("zero count should yield no blobs")
	}
}

// TestTableDigestStability verifies the digest is stable for identical
// tables and sensitive to any change.
func TestTableDigestStability(t *testing.T) {
	lines := []string{"vsa = literal.MakeBytes(0x01, []byte{0x02})"}
	a := tableDigest(lines, 4)
	b := tableDigest(lines, 4)
	if a != b {
		t.Error("digest should be deterministic")
	}
	if len(a) != 32 { // 16 bytes hex-encoded
		t.Errorf("digest length %d, want 32", len(a))
	}
	if tableDigest(lines, 5) == a {
		t.Error("digest should depend on decoy count")
	}
	changed := []string{"vsa = literal.MakeBytes(0x01, []byte{0x03})"}
	if tableDigest(changed, 4) == a {
		t.Error("digest should depend on table content")
	}
}

// TestSymbolTableCollisions verifies colliding names are never
// reassigned to a different entry.
func TestSymbolTableCollisions(t *testing.T) {
	table := newSymbolTable()
	table.reserve("vs00000001", "vs00000001 = literal.MakeBytes(0x00000009, []byte{0x42})")

	e := &Entry{Bytes: []byte{1}, Key: 2}
	// Hash chosen so the first candidate collides with the carried-over
	// name, whose declaration differs from this entry.
	if err := table.insert(e, 0x00000001_00000000); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if e.Symbol == "vs00000001" {
		t.Error("insert should not reuse a carried-over name for a different entry")
	}
	if len(table.entries) != 1 {
		t.Errorf("table has %d entries, want 1 (carried-over declarations excluded)", len(table.entries))
	}
}

// TestSymbolTableRebind verifies a marker that rebinds to an entry
// identical to a carried-over declaration reuses its symbol without
// re-emitting it.
func TestSymbolTableRebind(t *testing.T) {
	e := &Entry{Bytes: []byte{0x42}, Key: 9, Symbol: "vs00000001"}
	line := renderEntry(e)

	table := newSymbolTable()
	table.reserve("vs00000001", line)

	rebound := &Entry{Bytes: []byte{0x42}, Key: 9}
	if err := table.insert(rebound, 0x00000001_00000000); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if rebound.Symbol != "vs00000001" {
		t.Errorf("rebound symbol = %q, want the carried-over name", rebound.Symbol)
	}
	if len(table.entries) != 0 {
		t.Errorf("table has %d entries, want 0 (identical declaration already emitted)", len(table.entries))
	}
}
