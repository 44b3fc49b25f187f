// Command veilstr-gen rewrites marked string literals into obfuscated
// constants before compilation.
//
// Usage:
//
//	veilstr-gen gen --dir . --seed "$VEILSTR_SEED"
//	veilstr-gen seed
//	veilstr-gen version
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilstr/veilstr/pkg/gen"
	"github.com/veilstr/veilstr/pkg/telemetry"
	"github.com/veilstr/veilstr/pkg/version"
)

var (
	dirFlag    string
	seedFlag   string
	decoysFlag int
	dryRunFlag bool
	logLevel   string
	traceFlag  bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "veilstr-gen",
		Short:         "Obfuscate marked string literals in a Go source tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Scan a tree, rewrite marker calls, and emit obfuscated constants",
		RunE:  runGen,
	}
	genCmd.Flags().StringVar(&dirFlag, "dir", ".", "Root of the source tree to process")
	genCmd.Flags().StringVar(&seedFlag, "seed", "", "Obfuscation seed (defaults to VEILSTR_SEED)")
	genCmd.Flags().IntVar(&decoysFlag, "decoys", 0, "Decoy blobs per package (0 uses the default, negative disables)")
	genCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report what would change without writing files")
	genCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	genCmd.Flags().BoolVar(&traceFlag, "trace", false, "Print per-package span timings after the run")
	root.AddCommand(genCmd)

	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Generate a random obfuscation seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := make([]byte, 16)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("cannot read random seed: %w", err)
			}
			fmt.Println(hex.EncodeToString(buf))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})

	return root
}

func runGen(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = telemetry.LogLevel()
	}
	logger := telemetry.NewLogger("veilstr-gen", level, nil)

	cfg := gen.Config{
		Dir:    dirFlag,
		Seed:   seedFlag,
		Decoys: decoysFlag,
		DryRun: dryRunFlag,
		Logger: logger,
	}

	var recorder *telemetry.SimpleTracer
	if traceFlag {
		recorder = telemetry.NewSimpleTracer()
		cfg.Tracer = recorder
	}

	pipeline, err := gen.New(cfg)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("scanned %d files, rewrote %d, obfuscated %d literals (%d wide) across %d packages\n",
		report.FilesScanned, report.FilesRewritten,
		report.Literals+report.WideLiterals, report.WideLiterals, report.Packages)
	if report.UpToDate > 0 {
		fmt.Printf("%d packages already up to date\n", report.UpToDate)
	}
	if dryRunFlag {
		fmt.Println("dry run: no files written")
	}

	if recorder != nil {
		for _, span := range recorder.Spans() {
			fmt.Printf("  %-24s %12s  %v\n", span.Name, span.Duration, span.Attributes)
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "veilstr-gen:", err)
		os.Exit(1)
	}
}
