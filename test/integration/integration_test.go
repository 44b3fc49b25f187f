// Package integration provides end-to-end integration tests for the
// veilstr toolchain.
//
// These tests verify the complete flow from marked source through the
// generator to runtime decoding of the emitted constants.
package integration

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/veilstr/veilstr/pkg/cipher"
	"github.com/veilstr/veilstr/pkg/gen"
	"github.com/veilstr/veilstr/pkg/literal"
	"github.com/veilstr/veilstr/pkg/wide"
)

// protectedLiterals is the plaintext planted in the scratch tree. Every
// one of them must be recoverable from the generated constants and absent
// from the processed sources.
var protectedLiterals = []string{
	"integration secret one",
	"integration secret two",
	"кирилл and 🌍 wide text",
	"compared secret",
}

const sourceTemplate = `package scratch

import "github.com/veilstr/veilstr"

func use(input string) (string, string, []uint16, bool) {
	a := veilstr.S("integration secret one")
	b := veilstr.S("integration secret two")
	w := veilstr.W("кирилл and 🌍 wide text")
	ok := veilstr.Eq(input, "compared secret")
	return a, b, w, ok
}
`

// runPipeline processes a scratch tree holding sourceTemplate and returns
// the tree's directory.
func runPipeline(t *testing.T, seed string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scratch.go"), []byte(sourceTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := gen.New(gen.Config{Dir: dir, Seed: seed, Logger: hclog.NewNullLogger()})
	if err != nil {
		t.Fatalf("gen.New failed: %v", err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return dir
}

// loadConstants parses a generated file and reconstructs the runtime
// values it declares.
func loadConstants(t *testing.T, path string) (narrow []literal.ObfString, wides []literal.ObfWString) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		t.Fatalf("cannot parse %s: %v", path, err)
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || len(call.Args) != 2 {
			return true
		}
		if sel.Sel.Name != "MakeBytes" && sel.Sel.Name != "MakeWords" {
			return true
		}

		key, err := strconv.ParseUint(call.Args[0].(*ast.BasicLit).Value, 0, 32)
		if err != nil {
			t.Fatalf("bad key literal: %v", err)
		}
		comp := call.Args[1].(*ast.CompositeLit)

		if sel.Sel.Name == "MakeBytes" {
			data := make([]byte, 0, len(comp.Elts))
			for _, el := range comp.Elts {
				v, _ := strconv.ParseUint(el.(*ast.BasicLit).Value, 0, 8)
				data = append(data, byte(v))
			}
			narrow = append(narrow, literal.MakeBytes(uint32(key), data))
		} else {
			data := make([]uint16, 0, len(comp.Elts))
			for _, el := range comp.Elts {
				v, _ := strconv.ParseUint(el.(*ast.BasicLit).Value, 0, 16)
				data = append(data, uint16(v))
			}
			wides = append(wides, literal.MakeWords(uint32(key), data))
		}
		return true
	})
	return narrow, wides
}

// TestGeneratedConstantsDecodeAtRuntime verifies the full chain: the
// generator's emitted constants decode through the runtime path back to
// the planted plaintext.
func TestGeneratedConstantsDecodeAtRuntime(t *testing.T) {
	dir := runPipeline(t, "integration-seed")
	narrow, wides := loadConstants(t, filepath.Join(dir, "veilstr_gen.go"))

	if len(narrow) != 3 || len(wides) != 1 {
		t.Fatalf("got %d narrow and %d wide constants, want 3 and 1", len(narrow), len(wides))
	}

	decoded := map[string]bool{}
	for _, c := range narrow {
		for _, mask := range []uintptr{0, 1, 0x7fff, 0xffff} {
			decoded[c.Deobfuscate(mask).String()] = true
		}
	}
	for _, c := range wides {
		decoded[c.Deobfuscate(0xbeef).String()] = true
	}

	for _, want := range protectedLiterals {
		if !decoded[want] {
			t.Errorf("literal %q not recovered from generated constants", want)
		}
	}
}

// TestProcessedTreeHoldsNoPlaintext verifies the plaintext is gone from
// every file the generator leaves behind.
func TestProcessedTreeHoldsNoPlaintext(t *testing.T) {
	dir := runPipeline(t, "integration-seed")

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, plain := range protectedLiterals {
			if strings.Contains(string(content), plain) {
				t.Errorf("%s still contains %q", d.Name(), plain)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// TestGeneratedComparisonMatchesOriginal verifies the rewritten Eq path
// agrees with a plain string comparison.
func TestGeneratedComparisonMatchesOriginal(t *testing.T) {
	dir := runPipeline(t, "integration-seed")
	narrow, _ := loadConstants(t, filepath.Join(dir, "veilstr_gen.go"))

	var cmp *literal.ObfString
	for i := range narrow {
		if narrow[i].Deobfuscate(0).String() == "compared secret" {
			cmp = &narrow[i]
		}
	}
	if cmp == nil {
		t.Fatal("comparison constant not found")
	}

	cases := []struct {
		candidate string
		want      bool
	}{
		{"compared secret", true},
		{"compared secreT", false},
		{"compared", false},
		{"", false},
		{"compared secret ", false},
	}
	for _, tc := range cases {
		if got := cmp.Eq(tc.candidate, 0x1234); got != tc.want {
			t.Errorf("Eq(%q) = %v, want %v", tc.candidate, got, tc.want)
		}
	}
}

// TestDistinctSitesGetDistinctKeys verifies two identical literals at
// different positions obfuscate differently.
func TestDistinctSitesGetDistinctKeys(t *testing.T) {
	source := `package scratch

import "github.com/veilstr/veilstr"

func twice() (string, string) {
	return veilstr.S("repeated text"), veilstr.S("repeated text")
}
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scratch.go"), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := gen.New(gen.Config{Dir: dir, Seed: "site-seed", Logger: hclog.NewNullLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	narrow, _ := loadConstants(t, filepath.Join(dir, "veilstr_gen.go"))
	if len(narrow) != 2 {
		t.Fatalf("got %d constants, want 2", len(narrow))
	}
	if narrow[0].Key() == narrow[1].Key() {
		t.Error("identical literals at distinct sites share a key")
	}
	if string(narrow[0].Data()) == string(narrow[1].Data()) {
		t.Error("identical literals at distinct sites share ciphertext")
	}
	for _, c := range narrow {
		if c.Deobfuscate(0).String() != "repeated text" {
			t.Errorf("constant decodes to %q", c.Deobfuscate(0).String())
		}
	}
}

// TestWideConstantsMatchStdlibEncoding verifies the generated wide
// ciphertext decodes to the same units the standard library produces.
func TestWideConstantsMatchStdlibEncoding(t *testing.T) {
	dir := runPipeline(t, "integration-seed")
	_, wides := loadConstants(t, filepath.Join(dir, "veilstr_gen.go"))
	if len(wides) != 1 {
		t.Fatalf("got %d wide constants, want 1", len(wides))
	}

	want, err := wide.Encode("кирилл and 🌍 wide text")
	if err != nil {
		t.Fatal(err)
	}
	got := cipher.DecodeWords(wides[0].Key(), wides[0].Data())
	if len(got) != len(want) {
		t.Fatalf("decoded %d units, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unit %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
