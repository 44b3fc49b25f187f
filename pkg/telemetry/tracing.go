package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Tracer traces generator phases. The interface allows plugging in
// different backends (OpenTelemetry, or the in-memory recorder below).
type Tracer interface {
	// StartSpan starts a new span with the given name.
	// Returns a context containing the span and a function to end the span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder is a function that ends a span.
// Call with nil error for success, or pass an error to mark the span as failed.
type SpanEnder func(err error)

// SpanOption configures span behavior.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes map[string]interface{}
}

// WithAttributes sets span attributes.
func WithAttributes(attrs map[string]interface{}) SpanOption {
	return func(c *spanConfig) {
		c.attributes = attrs
	}
}

// --- NoOp Tracer ---

// NoOpTracer is a tracer that does nothing. The default when tracing is
// not configured.
type NoOpTracer struct{}

// StartSpan returns the context unchanged and a no-op end function.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(err error) {}
}

// --- Simple Tracer ---

// SimpleTracer records spans in memory. Useful for testing and for the
// generator's own --trace summary output.
type SimpleTracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
	next  uint64
}

// RecordedSpan represents a completed span.
type RecordedSpan struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Attributes map[string]interface{}
	Error      error
	SpanID     string
	ParentID   string
}

// NewSimpleTracer creates a new SimpleTracer.
func NewSimpleTracer() *SimpleTracer {
	return &SimpleTracer{
		spans: make([]RecordedSpan, 0),
	}
}

type simpleSpanKey struct{}

// StartSpan starts a new span.
func (t *SimpleTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := &spanConfig{attributes: make(map[string]interface{})}
	for _, opt := range opts {
		opt(cfg)
	}

	t.mu.Lock()
	t.next++
	id := fmt.Sprintf("span-%d", t.next)
	t.mu.Unlock()

	parent, _ := ctx.Value(simpleSpanKey{}).(string)
	start := time.Now()
	ctx = context.WithValue(ctx, simpleSpanKey{}, id)

	return ctx, func(err error) {
		end := time.Now()
		t.mu.Lock()
		defer t.mu.Unlock()
		t.spans = append(t.spans, RecordedSpan{
			Name:       name,
			StartTime:  start,
			EndTime:    end,
			Duration:   end.Sub(start),
			Attributes: cfg.attributes,
			Error:      err,
			SpanID:     id,
			ParentID:   parent,
		})
	}
}

// Spans returns a copy of the recorded spans.
func (t *SimpleTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

// Reset discards recorded spans.
func (t *SimpleTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}
