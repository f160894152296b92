package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dcshock/corridor/event"
)

// Kind tags how a Step produces its result.
type Kind int

const (
	// KindSync steps return their result directly.
	KindSync Kind = iota
	// KindAsync steps return a Future.
	KindAsync
	// KindLegacy steps complete through an error-first callback.
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	case KindLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SyncFunc transforms the accumulated value.
type SyncFunc func(ctx context.Context, input interface{}) (interface{}, error)

// AsyncFunc transforms the accumulated value into a Future.
type AsyncFunc func(ctx context.Context, input interface{}) Future

// Callback is an error-first completion function.
type Callback func(err error, data interface{})

// LegacyFunc receives positional arguments and reports completion through done.
type LegacyFunc func(args []interface{}, done Callback)

// ConvertFunc converts a value of type A to type B.
type ConvertFunc[A, B any] func(ctx context.Context, a A) (B, error)

// Step is a single transformation in a waterfall. Build one with Func, Sync,
// Async or Legacy; the zero Step fails with ErrNilStep.
type Step struct {
	Kind   Kind
	sync   SyncFunc
	async  AsyncFunc
	legacy LegacyFunc
}

// Func returns a synchronous Step.
func Func(fn SyncFunc) Step {
	return Step{Kind: KindSync, sync: fn}
}

// Sync returns a synchronous Step whose input must be of type A.
// Use it between steps whose types differ, like a typed adapter:
// Sync(func(ctx context.Context, n int) (string, error) { ... }).
func Sync[A, B any](convert ConvertFunc[A, B]) Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		a, err := as[A]("sync", input)
		if err != nil {
			return nil, err
		}
		return convert(ctx, a)
	})
}

// Async returns an asynchronous Step whose input must be of type A.
func Async[A any](fn func(ctx context.Context, a A) Future) Step {
	return Step{Kind: KindAsync, async: func(ctx context.Context, input interface{}) Future {
		a, err := as[A]("async", input)
		if err != nil {
			return Rejected(err)
		}
		return fn(ctx, a)
	}}
}

// Legacy returns a Step tagged KindLegacy. The waterfall adapts it with
// Promisify; see Cascade for how arguments and continuations are passed.
func Legacy(fn LegacyFunc) Step {
	return Step{Kind: KindLegacy, legacy: fn}
}

// Bind implements Binding; a Step is already bound.
func (s Step) Bind(Owner) Step { return s }

// Owner is the entity a Step is bound to.
type Owner interface {
	Name() string
	// Cancel emits cancel:<name> and returns the cancellation error for the
	// calling step to return.
	Cancel(reason string) error
	Events() event.Emitter
}

// Binding is accepted wherever steps are configured. It is bound to the owning
// Task or Runner once, when configured.
type Binding interface {
	Bind(owner Owner) Step
}

// Binder builds a Step from its owner, e.g. to let the step cancel the task:
//
//	pipeline.Binder(func(o pipeline.Owner) pipeline.Step {
//		return pipeline.Func(func(ctx context.Context, in interface{}) (interface{}, error) {
//			if in == nil {
//				return nil, o.Cancel("no input")
//			}
//			return in, nil
//		})
//	})
type Binder func(owner Owner) Step

// Bind implements Binding.
func (b Binder) Bind(owner Owner) Step { return b(owner) }

// as asserts input to A. A nil input is accepted when A can hold nil.
func as[A any](op string, input interface{}) (A, error) {
	if a, ok := input.(A); ok {
		return a, nil
	}
	var zero A
	if input == nil {
		switch reflect.TypeOf(&zero).Elem().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
	}
	return zero, fmt.Errorf("%s: expected %v, got %T", op, reflect.TypeOf(&zero).Elem(), input)
}
