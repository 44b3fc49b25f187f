// scanner.go finds veilstr marker calls in parsed sources and rewrites
// them to reference generated constants.

package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"os"
	"strconv"

	"github.com/veilstr/veilstr/internal/constants"
	verrors "github.com/veilstr/veilstr/internal/errors"
	"github.com/veilstr/veilstr/pkg/cipher"
	"github.com/veilstr/veilstr/pkg/wide"
)

// marker is one recognized marker call awaiting rewriting.
type marker struct {
	call *ast.CallExpr
	kind string // "S", "W", "Eq" or "WEq"
	lit  *ast.BasicLit
	text string // unquoted literal
}

func (m *marker) wide() bool {
	return m.kind == "W" || m.kind == "WEq"
}

// markerImportName returns the local identifier bound to the veilstr
// marker package in file, or "" if the package is not imported.
func markerImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != constants.MarkerImportPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return ""
			}
			return imp.Name.Name
		}
		return "veilstr"
	}
	return ""
}

// scanFile collects the marker calls in file. A marker whose literal
// argument is not a basic string literal is a build-time fatal error.
func (p *Pipeline) scanFile(fset *token.FileSet, file *ast.File) ([]*marker, error) {
	pkgIdent := markerImportName(file)
	if pkgIdent == "" {
		return nil, nil
	}

	var markers []*marker
	var scanErr error
	ast.Inspect(file, func(n ast.Node) bool {
		if scanErr != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok || ident.Name != pkgIdent {
			return true
		}

		var argIdx int
		switch sel.Sel.Name {
		case "S", "W":
			argIdx = 0
		case "Eq", "WEq":
			argIdx = 1
		default:
			return true
		}
		if len(call.Args) != argIdx+1 {
			return true
		}

		lit, ok := call.Args[argIdx].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			pos := fset.Position(call.Pos())
			scanErr = verrors.NewPositionError(pos.String(), verrors.ErrNotAStringLiteral)
			return false
		}
		text, err := strconv.Unquote(lit.Value)
		if err != nil {
			pos := fset.Position(lit.Pos())
			scanErr = verrors.NewPositionError(pos.String(), verrors.ErrNotAStringLiteral)
			return false
		}

		markers = append(markers, &marker{
			call: call,
			kind: sel.Sel.Name,
			lit:  lit,
			text: text,
		})
		// The literal argument cannot contain nested markers.
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return markers, nil
}

// rewriteMarker mutates the marker call in place so it references the
// generated symbol instead of carrying plaintext:
//
//	veilstr.S("...")      -> <sym>.Deobfuscate(0x....).String()
//	veilstr.W("...")      -> <sym>.Deobfuscate(0x....).Words()
//	veilstr.Eq(s, "...")  -> <sym>.Eq(s, 0x....)
//	veilstr.WEq(w, "...") -> <sym>.Eq(w, 0x....)
func rewriteMarker(m *marker, symbol string, mask uint16) {
	maskLit := &ast.BasicLit{Kind: token.INT, Value: fmt.Sprintf("%#x", mask)}

	switch m.kind {
	case "S", "W":
		method := "String"
		if m.kind == "W" {
			method = "Words"
		}
		deobf := &ast.CallExpr{
			Fun: &ast.SelectorExpr{
				X:   ast.NewIdent(symbol),
				Sel: ast.NewIdent("Deobfuscate"),
			},
			Args: []ast.Expr{maskLit},
		}
		m.call.Fun = &ast.SelectorExpr{X: deobf, Sel: ast.NewIdent(method)}
		m.call.Args = nil
	case "Eq", "WEq":
		candidate := m.call.Args[0]
		m.call.Fun = &ast.SelectorExpr{
			X:   ast.NewIdent(symbol),
			Sel: ast.NewIdent("Eq"),
		}
		m.call.Args = []ast.Expr{candidate, maskLit}
	}
}

// pruneMarkerImport removes the marker package import when no reference
// to it survives rewriting, keeping the emitted file compilable.
func pruneMarkerImport(file *ast.File) {
	name := markerImportName(file)
	if name == "" {
		return
	}

	used := false
	ast.Inspect(file, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if ident, ok := sel.X.(*ast.Ident); ok && ident.Name == name {
				used = true
				return false
			}
		}
		return true
	})
	if used {
		return
	}

	keptDecls := file.Decls[:0]
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			keptDecls = append(keptDecls, decl)
			continue
		}
		kept := gd.Specs[:0]
		for _, spec := range gd.Specs {
			is := spec.(*ast.ImportSpec)
			if path, err := strconv.Unquote(is.Path.Value); err == nil && path == constants.MarkerImportPath {
				continue
			}
			kept = append(kept, spec)
		}
		gd.Specs = kept
		// A declaration emptied by the prune would print as a dangling
		// import block.
		if len(gd.Specs) > 0 {
			keptDecls = append(keptDecls, decl)
		}
	}
	file.Decls = keptDecls

	kept := file.Imports[:0]
	for _, is := range file.Imports {
		if path, err := strconv.Unquote(is.Path.Value); err == nil && path == constants.MarkerImportPath {
			continue
		}
		kept = append(kept, is)
	}
	file.Imports = kept
}

// Entry is one obfuscated literal bound for emission.
type Entry struct {
	Symbol string
	Wide   bool
	Key    uint32
	Bytes  []byte   // narrow ciphertext
	Words  []uint16 // wide ciphertext
	File   string   // path relative to the scan root
	Line   int
	Col    int
}

func (e *Entry) unitCount() int {
	if e.Wide {
		return len(e.Words)
	}
	return len(e.Bytes)
}

// newEntry encodes a marker's literal under key and verifies the round
// trip before anything is emitted.
func newEntry(m *marker, key uint32, file string, line, col int) (*Entry, error) {
	entry := &Entry{
		Wide: m.wide(),
		Key:  key,
		File: file,
		Line: line,
		Col:  col,
	}
	if entry.Wide {
		units, err := wide.Encode(m.text)
		if err != nil {
			return nil, err
		}
		entry.Words = cipher.EncodeWords(key, units)
		if !cipher.EqWords(key, entry.Words, units) {
			return nil, verrors.ErrRoundTripFailed
		}
		return entry, nil
	}
	entry.Bytes = cipher.EncodeBytes(key, []byte(m.text))
	if !cipher.EqBytes(key, entry.Bytes, m.text) {
		return nil, verrors.ErrRoundTripFailed
	}
	return entry, nil
}

// writeFormatted renders the mutated AST through gofmt and writes it
// back over the source file.
func writeFormatted(filename string, fset *token.FileSet, file *ast.File) error {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return verrors.NewGenError("gen.format "+filename, err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return verrors.NewGenError("gen.write "+filename, err)
	}
	return nil
}
