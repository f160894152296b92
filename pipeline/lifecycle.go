package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dcshock/corridor/event"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the position of one execution in the lifecycle.
type State int

const (
	StateIdle State = iota
	StatePreRunning
	StateActionRunning
	StateTasksRunning
	StatePostRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreRunning:
		return "preRunning"
	case StateActionRunning:
		return "actionRunning"
	case StateTasksRunning:
		return "tasksRunning"
	case StatePostRunning:
		return "postRunning"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Executable is anything a Runner can run: a Task or another Runner.
type Executable interface {
	Name() string
	Execute(ctx context.Context, input interface{}) (interface{}, error)
}

type runIDKey struct{}

// WithRunID returns a context whose executions use id as their run ID.
// Nested executions inherit the run ID of the outermost one.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID carried by ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func ensureRunID(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return WithRunID(ctx, id), id
}

// lifecycle is the part shared by Task and Runner: identity, events, the pre
// and post waterfalls and the phase state machine.
type lifecycle struct {
	kind   string
	name   string
	events event.Emitter
	logger *slog.Logger
	tracer trace.Tracer

	sealed atomic.Bool
	pre    []Step
	post   []Step
}

func (l *lifecycle) init(kind, name string, opts []Option) {
	o := buildOptions(opts)
	l.kind = kind
	l.name = name
	l.events = o.emitter
	l.logger = o.logger.With("kind", kind, "name", name)
	l.tracer = o.tracer
}

// Name returns the entity name.
func (l *lifecycle) Name() string { return l.name }

// Events returns the emitter lifecycle events are published on.
func (l *lifecycle) Events() event.Emitter { return l.events }

// On subscribes h to topic on the entity's emitter.
func (l *lifecycle) On(topic string, h event.Handler) (off func()) {
	return l.events.On(topic, h)
}

// Cancel emits cancel:<name> with reason and returns a *CancelError. A step
// aborts the current execution by returning it:
//
//	return nil, owner.Cancel("quota exceeded")
func (l *lifecycle) Cancel(reason string) error {
	l.logger.Warn("canceled", "reason", reason)
	l.events.Emit(event.Event{
		Topic:   event.CancelTopic(l.name),
		Kind:    l.kind,
		Name:    l.name,
		Phase:   event.PhaseCancel,
		Payload: reason,
	})
	return &CancelError{Name: l.name, Reason: reason}
}

func (l *lifecycle) mustConfigure() {
	if l.sealed.Load() {
		panic(fmt.Errorf("%s '%s': %w", label(l.kind), l.name, ErrSealed))
	}
}

func bindAll(owner Owner, bindings []Binding) []Step {
	steps := make([]Step, 0, len(bindings))
	for _, b := range bindings {
		if b == nil {
			steps = append(steps, Step{})
			continue
		}
		steps = append(steps, b.Bind(owner))
	}
	return steps
}

// middle is the phase between pre and post: the action of a Task or the
// tasks of a Runner.
type middle struct {
	phase string
	state State
	run   func(ctx context.Context, input interface{}) (interface{}, error)
}

// execution is the state of one Execute call.
type execution struct {
	l     *lifecycle
	runID string
	state State
}

func (l *lifecycle) execute(ctx context.Context, input interface{}, mid middle) (interface{}, error) {
	l.sealed.Store(true)
	ctx, runID := ensureRunID(ctx)
	ctx, span := l.tracer.Start(ctx, l.kind+" "+l.name, trace.WithAttributes(
		attribute.String("corridor.kind", l.kind),
		attribute.String("corridor.name", l.name),
		attribute.String("corridor.run_id", runID),
	))
	defer span.End()

	x := &execution{l: l, runID: runID, state: StateIdle}
	start := time.Now()

	out, err := x.phase(ctx, event.PhasePre, StatePreRunning, input, func(ctx context.Context, in interface{}) (interface{}, error) {
		return Cascade(ctx, l.pre, in)
	})
	if err != nil {
		return nil, x.fail(span, event.PhasePre, err)
	}
	out, err = x.phase(ctx, mid.phase, mid.state, out, mid.run)
	if err != nil {
		return nil, x.fail(span, mid.phase, err)
	}
	out, err = x.phase(ctx, event.PhasePost, StatePostRunning, out, func(ctx context.Context, in interface{}) (interface{}, error) {
		return Cascade(ctx, l.post, in)
	})
	if err != nil {
		return nil, x.fail(span, event.PhasePost, err)
	}

	x.state = StateDone
	l.logger.Debug("execution done", "run_id", runID, "state", x.state, "elapsed", time.Since(start))
	return out, nil
}

func (x *execution) phase(ctx context.Context, phase string, state State, input interface{}, run func(context.Context, interface{}) (interface{}, error)) (interface{}, error) {
	x.state = state
	ctx, span := x.l.tracer.Start(ctx, phase)
	defer span.End()

	x.emit(phase, event.Start, nil, 0)
	x.l.logger.Debug("phase started", "run_id", x.runID, "phase", phase)
	start := time.Now()

	out, err := run(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	elapsed := time.Since(start)
	x.emit(phase, event.End, nil, elapsed)
	x.l.logger.Debug("phase finished", "run_id", x.runID, "phase", phase, "elapsed", elapsed)
	return out, nil
}

func (x *execution) fail(span trace.Span, phase string, err error) error {
	x.state = StateFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	x.l.logger.Error("execution failed", "run_id", x.runID, "phase", phase, "error", err)
	x.emit(event.PhaseFail, "", err, 0)
	return &ExecutionError{Kind: x.l.kind, Name: x.l.name, Phase: phase, Err: err}
}

func (x *execution) emit(phase, boundary string, payload interface{}, elapsed time.Duration) {
	x.l.events.Emit(event.Event{
		Topic:    event.Topic(x.l.kind, x.l.name, phase, boundary),
		Kind:     x.l.kind,
		Name:     x.l.name,
		Phase:    phase,
		Boundary: boundary,
		Payload:  payload,
		RunID:    x.runID,
		State:    x.state.String(),
		Elapsed:  elapsed,
	})
}
