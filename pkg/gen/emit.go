// emit.go renders the per-package generated file holding ciphertext
// constants and chaff, and merges entries from a previous run.

package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"strings"

	"github.com/veilstr/veilstr/internal/constants"
	verrors "github.com/veilstr/veilstr/internal/errors"
	"github.com/veilstr/veilstr/pkg/entropy"
)

const digestMarker = "// veilstr:digest "

// renderGenerated assembles the generated file for one package from the
// surviving entries of a previous run plus the newly bound entries, and
// returns the formatted content together with its table digest.
func (p *Pipeline) renderGenerated(pkgName string, existing []string, entries []*Entry) ([]byte, string, error) {
	lines := make([]string, 0, len(existing)+len(entries))
	lines = append(lines, existing...)
	for _, e := range entries {
		lines = append(lines, renderEntry(e))
	}

	digest := tableDigest(lines, p.cfg.Decoys)

	var sb strings.Builder
	sb.WriteString("// Code generated by veilstr-gen. DO NOT EDIT.\n")
	sb.WriteString("//\n")
	sb.WriteString(digestMarker + digest + "\n\n")
	fmt.Fprintf(&sb, "package %s\n\n", pkgName)
	fmt.Fprintf(&sb, "import \"%s\"\n\n", constants.RuntimeImportPath)

	sb.WriteString("var (\n")
	for _, line := range lines {
		sb.WriteString("\t" + line + "\n")
	}
	sb.WriteString(")\n")

	if p.cfg.Decoys > 0 {
		decoySeed := entropy.Mix(p.seed ^ uint64(entropy.Hash(pkgName)))
		blobs := decoyBlobs(decoySeed, p.cfg.Decoys)
		sb.WriteString("\n// Chaff entries shaped like real ciphertext, folded at init so the\n")
		sb.WriteString("// linker keeps them in the constant pool.\n")
		sb.WriteString("var vsChaff = [][]byte{\n")
		for _, b := range blobs {
			sb.WriteString("\t{")
			for i, c := range b {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "0x%02x", c)
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("}\n\n")
		sb.WriteString("var vsChaffSum byte\n\n")
		sb.WriteString("func init() {\n")
		sb.WriteString("\tfor _, b := range vsChaff {\n")
		sb.WriteString("\t\tfor _, c := range b {\n")
		sb.WriteString("\t\t\tvsChaffSum ^= c\n")
		sb.WriteString("\t\t}\n")
		sb.WriteString("\t}\n")
		sb.WriteString("}\n")
	}

	content, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, "", verrors.NewGenError("gen.render", err)
	}
	return content, digest, nil
}

// renderEntry renders one literal declaration.
func renderEntry(e *Entry) string {
	var sb strings.Builder
	if e.Wide {
		fmt.Fprintf(&sb, "%s = literal.MakeWords(0x%08x, []uint16{", e.Symbol, e.Key)
		for i, w := range e.Words {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "0x%04x", w)
		}
	} else {
		fmt.Fprintf(&sb, "%s = literal.MakeBytes(0x%08x, []byte{", e.Symbol, e.Key)
		for i, c := range e.Bytes {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "0x%02x", c)
		}
	}
	sb.WriteString("})")
	return sb.String()
}

// loadExisting reads a previously generated file and returns its literal
// declarations (rendered back to source text) and its stamped digest.
// A missing file is not an error.
func loadExisting(path string) ([]string, string, error) {
	src, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", verrors.NewGenError("gen.loadExisting", err)
	}

	var digest string
	for _, line := range strings.Split(string(src), "\n") {
		if strings.HasPrefix(line, digestMarker) {
			digest = strings.TrimSpace(strings.TrimPrefix(line, digestMarker))
			break
		}
		if !strings.HasPrefix(line, "//") && strings.TrimSpace(line) != "" {
			break
		}
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, 0)
	if err != nil {
		return nil, "", verrors.NewGenError("gen.loadExisting", verrors.ErrBadGeneratedFile)
	}

	var lines []string
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Names) != 1 || len(vs.Values) != 1 {
				continue
			}
			if !isLiteralCtor(vs.Values[0]) {
				continue
			}
			var buf bytes.Buffer
			if err := printer.Fprint(&buf, fset, vs.Values[0]); err != nil {
				return nil, "", verrors.NewGenError("gen.loadExisting", err)
			}
			lines = append(lines, vs.Names[0].Name+" = "+buf.String())
		}
	}
	return lines, digest, nil
}

// isLiteralCtor reports whether expr is a literal.MakeBytes or
// literal.MakeWords call, distinguishing real entries from chaff.
func isLiteralCtor(expr ast.Expr) bool {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok || ident.Name != "literal" {
		return false
	}
	return sel.Sel.Name == "MakeBytes" || sel.Sel.Name == "MakeWords"
}
