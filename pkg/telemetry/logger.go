// Package telemetry provides logging and tracing for the veilstr
// generator pipeline.
//
// Logging is hclog-based and environment-configurable. Tracing is a
// small pluggable interface with an in-memory recorder for tests and an
// OpenTelemetry backend behind the otel build tag, so the default build
// carries no exporter dependencies at runtime.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/veilstr/veilstr/internal/constants"
)

// NewLogger creates an hclog logger with standard settings. A nil output
// defaults to stderr. JSON output is selected with VEILSTR_JSON_LOG=1.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: os.Getenv(constants.JSONLogEnvVar) == "1",
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// LogLevel returns the configured log level from the environment,
// defaulting to warn so generator runs stay quiet inside builds.
func LogLevel() string {
	level := os.Getenv(constants.LogLevelEnvVar)
	if level == "" {
		level = "warn"
	}
	return level
}
