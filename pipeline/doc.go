// Package pipeline composes named units of work out of small steps.
//
// A Step transforms the accumulated value. Steps are tagged with how they
// produce their result: Func and Sync return it directly, Async returns a
// Future, and Legacy completes through an error-first Callback. Cascade runs
// a list of steps as a waterfall: each step receives its predecessor's result
// and the first error stops the waterfall.
//
// A Task runs pre steps, one action and post steps:
//
//	t1 := pipeline.NewTask("t1").
//		Pre(pipeline.Sync(addOne)).
//		Action(pipeline.Sync(addOne))
//	out, err := t1.Execute(ctx, 1) // 3, nil
//
// A Runner groups tasks (or other runners) between its own pre and post steps.
// By default the tasks run as a waterfall; Concurrent(false) dispatches all of
// them with the same input and fails on the first failure, Concurrent(true)
// waits for all of them and keeps the successful results. Concurrent results
// are a []interface{} in configuration order; Gather converts them to a typed
// slice.
//
// # Events
//
// Every phase boundary is published on the entity's event.Emitter, e.g.
// task:t1:pre:start or runner:r:tasks:end, along with cancel:<name> when a step
// calls Cancel and <kind>:<name>:fail when an execution fails. Entities get
// their own event.Bus unless WithEmitter shares one.
//
// # Errors
//
// Execute fails with a *ConfigError when a Task has no action or a Runner has
// no tasks, and with an *ExecutionError naming the failed phase otherwise. The
// original cause is kept: errors.Is and errors.As see through both. A step
// aborts its execution by returning the error of Owner.Cancel; use Binder to
// get hold of the owner:
//
//	pipeline.Binder(func(o pipeline.Owner) pipeline.Step {
//		return pipeline.Func(func(ctx context.Context, in interface{}) (interface{}, error) {
//			return nil, o.Cancel("not today")
//		})
//	})
//
// # Legacy callbacks
//
// A step that returns Invoke(then, args...) hands args to a following Legacy
// step as its positional arguments. The legacy function is adapted with
// Promisify; then receives its outcome and returns the value passed on:
//
//	pipeline.Func(func(ctx context.Context, in interface{}) (interface{}, error) {
//		return pipeline.Invoke(func(err error, data interface{}) (interface{}, error) {
//			return data, err
//		}, 1, 2), nil
//	}),
//	pipeline.Legacy(func(args []interface{}, done pipeline.Callback) {
//		done(nil, args[0].(int)+args[1].(int))
//	}),
package pipeline
