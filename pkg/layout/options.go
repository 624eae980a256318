package layout

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxDepth bounds the nesting of elements and components.
const DefaultMaxDepth = 256

const tracerName = "github.com/vango-dev/idom/pkg/layout"

type options struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	maxDepth  int
	ctx       context.Context
	onWarning func(UnknownTargetWarning)
}

// Option configures a Layout.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used for render and dispatch spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMaxDepth sets the depth limit. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithContext sets the context components see through Hooks.Context.
// The server puts the connection into it.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithWarningHandler registers a function called for every
// UnknownTargetWarning, in addition to logging it.
func WithWarningHandler(fn func(UnknownTargetWarning)) Option {
	return func(o *options) {
		o.onWarning = fn
	}
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		maxDepth: DefaultMaxDepth,
		ctx:      context.Background(),
	}
}
