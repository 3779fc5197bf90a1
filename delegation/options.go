package delegation

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/cmwaters/liquid/metrics"
)

// Option is a set of configurable parameters. If left empty, defaults
// will be used
type Option func(e *Engine)

// WithLogger sets the logger used for vote changes and tally passes
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics reports engine activity to the given collector
func WithMetrics(collector metrics.TallyCollector) Option {
	return func(e *Engine) {
		e.metrics = collector
	}
}

// WithTracerProvider sets where tally spans are recorded. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}
