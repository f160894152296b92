package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/dcshock/corridor/event"
	"golang.org/x/sync/errgroup"
)

// Runner runs a list of tasks between its own pre and post steps. By default
// tasks run as a waterfall, each receiving the previous task's result. After
// Concurrent every task receives the pre result and the post steps receive
// the task results as a []interface{} in configuration order.
type Runner struct {
	lifecycle
	tasks        []Executable
	concurrent   bool
	ignoreErrors bool
	limit        int
}

// NewRunner returns a sequential Runner with no tasks.
func NewRunner(name string, opts ...Option) *Runner {
	r := &Runner{}
	r.init(event.KindRunner, name, opts)
	return r
}

// Pre appends steps to run before the tasks.
func (r *Runner) Pre(bindings ...Binding) *Runner {
	r.mustConfigure()
	r.pre = append(r.pre, bindAll(r, bindings)...)
	return r
}

// Post appends steps to run on the tasks result.
func (r *Runner) Post(bindings ...Binding) *Runner {
	r.mustConfigure()
	r.post = append(r.post, bindAll(r, bindings)...)
	return r
}

// Tasks appends tasks. Nested runners are accepted.
func (r *Runner) Tasks(tasks ...Executable) *Runner {
	r.mustConfigure()
	for _, t := range tasks {
		if t != nil {
			r.tasks = append(r.tasks, t)
		}
	}
	return r
}

// Only keeps the configured tasks whose name is in names.
func (r *Runner) Only(names ...string) *Runner {
	r.mustConfigure()
	r.tasks = slices.DeleteFunc(r.tasks, func(t Executable) bool {
		return !slices.Contains(names, t.Name())
	})
	return r
}

// Concurrent switches the tasks phase to fan-out. With ignoreErrors false the
// first task failure fails the phase; with ignoreErrors true failed tasks are
// dropped from the result and the phase fails only if every task failed.
func (r *Runner) Concurrent(ignoreErrors bool) *Runner {
	r.mustConfigure()
	r.concurrent = true
	r.ignoreErrors = ignoreErrors
	return r
}

// Limit bounds how many tasks run at once in concurrent mode. n <= 0 means no bound.
func (r *Runner) Limit(n int) *Runner {
	r.mustConfigure()
	r.limit = n
	return r
}

// Len returns the number of configured tasks.
func (r *Runner) Len() int { return len(r.tasks) }

// Execute runs pre, the tasks and post and returns the post result. It fails
// with a *ConfigError if there are no tasks and with an *ExecutionError if a
// step or, depending on the failure policy, a task fails.
func (r *Runner) Execute(ctx context.Context, input interface{}) (interface{}, error) {
	if len(r.tasks) == 0 {
		return nil, &ConfigError{Kind: r.kind, Name: r.name, Err: ErrNoTasks}
	}
	return r.execute(ctx, input, middle{
		phase: event.PhaseTasks,
		state: StateTasksRunning,
		run:   r.runTasks,
	})
}

func (r *Runner) runTasks(ctx context.Context, input interface{}) (interface{}, error) {
	switch {
	case !r.concurrent:
		steps := make([]Step, len(r.tasks))
		for i, t := range r.tasks {
			steps[i] = Func(t.Execute)
		}
		return Cascade(ctx, steps, input)
	case r.ignoreErrors:
		return r.settleAll(ctx, input)
	default:
		return r.failFast(ctx, input)
	}
}

// failFast returns as soon as one task fails. Tasks already running are left
// to finish. Without a limit every task is dispatched; with one, no task still
// waiting for a slot is started after a failure.
func (r *Runner) failFast(ctx context.Context, input interface{}) (interface{}, error) {
	results := make([]interface{}, len(r.tasks))
	first := make(chan error, 1)
	var failed atomic.Bool

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	go func() {
		for i, t := range r.tasks {
			if r.limit > 0 && failed.Load() {
				break
			}
			g.Go(func() error {
				out, err := t.Execute(ctx, input)
				if err != nil {
					if failed.CompareAndSwap(false, true) {
						first <- err
					}
					return err
				}
				results[i] = out
				return nil
			})
		}
		if g.Wait() == nil {
			close(first)
		}
	}()

	select {
	case err, ok := <-first:
		if ok {
			return nil, err
		}
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settleAll waits for every task and keeps the successful results.
func (r *Runner) settleAll(ctx context.Context, input interface{}) (interface{}, error) {
	var sem chan struct{}
	if r.limit > 0 {
		sem = make(chan struct{}, r.limit)
	}
	futures := make([]Future, len(r.tasks))
	for i, t := range r.tasks {
		futures[i] = Go(func() (interface{}, error) {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			return t.Execute(ctx, input)
		})
	}

	results := make([]interface{}, 0, len(futures))
	var errs []error
	for _, f := range futures {
		s := Promised(ctx, f)
		if s.Err != nil {
			errs = append(errs, s.Err)
			continue
		}
		results = append(results, s.Data)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllTasksFailed, errors.Join(errs...))
	}
	if len(errs) > 0 {
		r.logger.Warn("tasks failed", "run_id", RunID(ctx), "failed", len(errs), "succeeded", len(results))
	}
	return results, nil
}

var (
	_ Owner      = (*Runner)(nil)
	_ Executable = (*Runner)(nil)
)
