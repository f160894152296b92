package pipeline

import (
	"context"

	"github.com/dcshock/corridor/event"
)

// Task is a named unit of work: pre steps, one action, post steps.
//
//	t := pipeline.NewTask("t1").
//		Pre(pipeline.Sync(addOne)).
//		Action(pipeline.Sync(addOne)).
//		Post(logResult)
//	out, err := t.Execute(ctx, 1)
//
// Configure a Task from one goroutine before executing it; the first Execute
// seals the configuration. Execute itself may be called concurrently.
type Task struct {
	lifecycle
	action    Step
	hasAction bool
}

// NewTask returns an empty Task named name.
func NewTask(name string, opts ...Option) *Task {
	t := &Task{}
	t.init(event.KindTask, name, opts)
	return t
}

// Pre appends steps to run before the action. The first receives the
// execution input.
func (t *Task) Pre(bindings ...Binding) *Task {
	t.mustConfigure()
	t.pre = append(t.pre, bindAll(t, bindings)...)
	return t
}

// Post appends steps to run after the action. The first receives the action result.
func (t *Task) Post(bindings ...Binding) *Task {
	t.mustConfigure()
	t.post = append(t.post, bindAll(t, bindings)...)
	return t
}

// Action sets the step that receives the pre result. A nil binding clears it.
func (t *Task) Action(b Binding) *Task {
	t.mustConfigure()
	if b == nil {
		t.action, t.hasAction = Step{}, false
		return t
	}
	t.action, t.hasAction = b.Bind(t), true
	return t
}

// Execute runs pre, action and post and returns the post result. It fails
// with a *ConfigError if no action is set and with an *ExecutionError if any
// step fails.
func (t *Task) Execute(ctx context.Context, input interface{}) (interface{}, error) {
	if !t.hasAction {
		return nil, &ConfigError{Kind: t.kind, Name: t.name, Err: ErrNoAction}
	}
	return t.execute(ctx, input, middle{
		phase: event.PhaseAction,
		state: StateActionRunning,
		run: func(ctx context.Context, in interface{}) (interface{}, error) {
			return Cascade(ctx, []Step{t.action}, in)
		},
	})
}

var (
	_ Owner      = (*Task)(nil)
	_ Executable = (*Task)(nil)
)
