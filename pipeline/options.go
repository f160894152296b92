package pipeline

import (
	"log/slog"

	"github.com/dcshock/corridor/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dcshock/corridor/pipeline"

// Option configures a Task or Runner.
type Option func(*options)

type options struct {
	emitter event.Emitter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// WithEmitter shares e instead of giving the entity its own event.Bus.
func WithEmitter(e event.Emitter) Option {
	return func(o *options) {
		if e != nil {
			o.emitter = e
		}
	}
}

// WithLogger sets the logger. Kind and name attributes are added to it.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer that execution and phase spans are started on.
// The default is the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.emitter == nil {
		o.emitter = event.NewBus()
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "pipeline")
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}
