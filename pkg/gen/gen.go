// Package gen implements the veilstr build-time pipeline: it scans Go
// sources for marker calls, derives a key from each call site's source
// location and the build seed, encodes the literal, rewrites the call
// site, and emits the ciphertext constants into a generated file.
//
// After the pipeline runs, the plaintext of a protected literal exists
// only in the developer's sources, never in anything the main build
// compiles: the rewritten call references an ObfString constant holding
// key and ciphertext.
//
// The pipeline is a pure function of (sources, seed): running it twice
// over unchanged inputs produces identical output, and a run that finds
// no markers leaves the tree untouched.
package gen

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/veilstr/veilstr/internal/constants"
	verrors "github.com/veilstr/veilstr/internal/errors"
	"github.com/veilstr/veilstr/pkg/entropy"
	"github.com/veilstr/veilstr/pkg/telemetry"
)

// Config configures a generator run.
type Config struct {
	// Dir is the root of the source tree to scan.
	Dir string

	// Seed is the seed configuration string. Empty selects the
	// VEILSTR_SEED environment variable, then the fixed default.
	Seed string

	// Decoys is the number of chaff entries per generated file.
	// Negative disables decoys; zero selects the default.
	Decoys int

	// DryRun reports what would change without writing anything.
	DryRun bool

	// Logger receives pipeline logs. Nil selects a default logger.
	Logger hclog.Logger

	// Tracer receives pipeline spans. Nil selects the no-op tracer.
	Tracer telemetry.Tracer
}

// Report summarizes a generator run.
type Report struct {
	FilesScanned   int // Go files parsed
	FilesRewritten int // source files with rewritten marker calls
	Literals       int // narrow literals obfuscated
	WideLiterals   int // wide literals obfuscated
	Packages       int // packages that received a generated file
	UpToDate       int // packages skipped because nothing changed
}

// Pipeline is a configured generator.
type Pipeline struct {
	cfg    Config
	seed   uint64
	logger hclog.Logger
	tracer telemetry.Tracer
}

// New creates a Pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	seedConfig := cfg.Seed
	if seedConfig == "" {
		seedConfig = os.Getenv(constants.SeedEnvVar)
	}
	if cfg.Decoys == 0 {
		cfg.Decoys = constants.DefaultDecoyCount
	}
	if cfg.Decoys < 0 {
		cfg.Decoys = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NewLogger("veilstr-gen", telemetry.LogLevel(), nil)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.NoOpTracer{}
	}
	return &Pipeline{
		cfg:    cfg,
		seed:   entropy.SeedFrom(seedConfig),
		logger: logger,
		tracer: tracer,
	}, nil
}

// Run executes the pipeline over the configured tree.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	ctx, end := p.tracer.StartSpan(ctx, "veilstr.gen",
		telemetry.WithAttributes(map[string]interface{}{"dir": p.cfg.Dir}))

	report := &Report{}
	err := p.run(ctx, report)
	end(err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	dirs, err := p.collectDirs()
	if err != nil {
		return verrors.NewGenError("gen.Run", err)
	}

	for _, dir := range dirs {
		if err := p.processDir(ctx, dir, report); err != nil {
			return err
		}
	}

	p.logger.Info("generation complete",
		"files", report.FilesScanned,
		"rewritten", report.FilesRewritten,
		"literals", report.Literals+report.WideLiterals,
		"packages", report.Packages)
	return nil
}

// collectDirs walks the tree and returns every directory containing Go
// files, skipping vendor, testdata, and hidden or underscore-prefixed
// directories.
func (p *Pipeline) collectDirs() ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	err := filepath.WalkDir(p.cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != p.cfg.Dir && (name == "vendor" || name == "testdata" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

// processDir scans one package directory, rewrites its marker calls, and
// emits or refreshes its generated file.
func (p *Pipeline) processDir(ctx context.Context, dir string, report *Report) error {
	_, end := p.tracer.StartSpan(ctx, "veilstr.gen.package",
		telemetry.WithAttributes(map[string]interface{}{"dir": dir}))

	err := p.processDirInner(dir, report)
	end(err)
	return err
}

func (p *Pipeline) processDirInner(dir string, report *Report) error {
	names, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return verrors.NewGenError("gen.processDir", err)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	type parsed struct {
		name string
		file *ast.File
	}
	var files []parsed

	for _, name := range names {
		if filepath.Base(name) == constants.GeneratedFileName {
			continue
		}
		file, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			return verrors.NewGenError("gen.parse", err)
		}
		files = append(files, parsed{name: name, file: file})
		report.FilesScanned++
	}

	genPath := filepath.Join(dir, constants.GeneratedFileName)
	existing, existingDigest, err := loadExisting(genPath)
	if err != nil {
		return err
	}

	table := newSymbolTable()
	for _, line := range existing {
		if name, _, ok := strings.Cut(line, " "); ok {
			table.reserve(name, line)
		}
	}
	var rewritten []parsed
	var pkgName string

	for _, f := range files {
		markers, err := p.scanFile(fset, f.file)
		if err != nil {
			return err
		}
		if len(markers) == 0 {
			continue
		}
		// The generated file must live in the package whose sources
		// reference its symbols, so the clause comes from a
		// marker-bearing file, never from a sibling _test package.
		if pkgName == "" {
			pkgName = f.file.Name.Name
		}
		for _, m := range markers {
			entry, mask, err := p.bindLiteral(fset, table, m)
			if err != nil {
				return err
			}
			rewriteMarker(m, entry.Symbol, mask)
			if entry.Wide {
				report.WideLiterals++
			} else {
				report.Literals++
			}
		}
		pruneMarkerImport(f.file)
		rewritten = append(rewritten, f)
	}

	if len(table.entries) == 0 && len(rewritten) == 0 {
		return nil
	}

	content, digest, err := p.renderGenerated(pkgName, existing, table.entries)
	if err != nil {
		return err
	}
	// A matching digest means every marker bound to an entry already
	// present in the generated file; the sources still need their
	// rewrites written.
	writeGen := digest != existingDigest
	if !writeGen {
		report.UpToDate++
	}

	if p.cfg.DryRun {
		p.logger.Info("dry run: would rewrite package", "dir", dir,
			"literals", len(table.entries), "digest", digest)
		if writeGen {
			report.Packages++
		}
		report.FilesRewritten += len(rewritten)
		return nil
	}

	for _, f := range rewritten {
		if err := writeFormatted(f.name, fset, f.file); err != nil {
			return err
		}
		report.FilesRewritten++
		p.logger.Debug("rewrote source file", "file", f.name)
	}
	if writeGen {
		if err := os.WriteFile(genPath, content, 0o644); err != nil {
			return verrors.NewGenError("gen.emit", err)
		}
		report.Packages++
		p.logger.Info("emitted generated file", "file", genPath,
			"literals", len(table.entries), "digest", digest)
	}
	return nil
}

// bindLiteral derives the key, masking scalar, and symbol for a marker's
// call site, encodes the literal, and verifies the round trip.
func (p *Pipeline) bindLiteral(fset *token.FileSet, table *symbolTable, m *marker) (*Entry, uint16, error) {
	pos := fset.Position(m.lit.Pos())
	rel, err := filepath.Rel(p.cfg.Dir, pos.Filename)
	if err != nil {
		rel = pos.Filename
	}
	rel = filepath.ToSlash(rel)

	e := entropy.Entropy(p.seed, rel, uint32(pos.Line), uint32(pos.Column))
	key := entropy.Uint32(e)
	h := entropy.Mix(e)
	mask := entropy.Uint16(h)

	entry, err := newEntry(m, key, rel, pos.Line, pos.Column)
	if err != nil {
		return nil, 0, verrors.NewPositionError(pos.String(), err)
	}
	if err := table.insert(entry, h); err != nil {
		return nil, 0, verrors.NewPositionError(pos.String(), err)
	}
	p.logger.Debug("obfuscated literal",
		"site", fmt.Sprintf("%s:%d:%d", rel, pos.Line, pos.Column),
		"symbol", entry.Symbol, "wide", entry.Wide, "units", entry.unitCount())
	return entry, mask, nil
}

// symbolTable accumulates entries for one package and guards against
// generated-name collisions. Names carried over from a previous run's
// generated file are held with their rendered declaration so a marker
// that rebinds to an identical entry reuses the old symbol instead of
// emitting a duplicate.
type symbolTable struct {
	entries  []*Entry
	byName   map[string]*Entry
	reserved map[string]string // symbol -> rendered declaration
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		byName:   make(map[string]*Entry),
		reserved: make(map[string]string),
	}
}

// reserve records a name and its declaration from a previous run.
func (t *symbolTable) reserve(name, line string) {
	if _, taken := t.reserved[name]; !taken {
		t.reserved[name] = line
	}
}

// insert assigns entry a symbol derived from h and records it. A
// collision with an identical carried-over declaration reuses that
// symbol without re-emitting; any other collision remixes the hash a
// bounded number of times.
func (t *symbolTable) insert(entry *Entry, h uint64) error {
	for try := 0; try < 8; try++ {
		name := fmt.Sprintf("%s%08x", constants.SymbolPrefix, entropy.Uint32(h>>32))
		_, taken := t.byName[name]
		line, carried := t.reserved[name]
		if !taken && carried {
			entry.Symbol = name
			if renderEntry(entry) == line {
				// Same site, same seed: already emitted.
				t.byName[name] = entry
				return nil
			}
		}
		if !taken && !carried {
			entry.Symbol = name
			t.byName[name] = entry
			t.entries = append(t.entries, entry)
			return nil
		}
		h = entropy.Mix(h)
	}
	return verrors.ErrSymbolCollision
}
