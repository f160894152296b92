package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// MaxCallArgs is the most positional arguments a Call may carry. Together
// with the callback a legacy function receives at most ten values.
const MaxCallArgs = 9

// Then continues a Call with the settled outcome of the legacy step. Its
// result becomes the next step's input; a returned error fails the waterfall.
type Then func(err error, data interface{}) (interface{}, error)

// Call is an accumulated value addressed to the next KindLegacy step: Args are
// passed as its positional arguments and Then receives its outcome.
type Call struct {
	Args []interface{}
	Then Then
}

// Invoke returns a Call for args, continued by then. A step returns it to hand
// positional arguments to a following legacy step.
func Invoke(then Then, args ...interface{}) Call {
	return Call{Args: args, Then: then}
}

// Promisify adapts an error-first function to a Future. Only the first
// completion counts; a panic settles the Future with an error.
func Promisify(fn LegacyFunc, args []interface{}) Future {
	ch := make(chan Settled, 1)
	var once sync.Once
	settle := func(s Settled) {
		once.Do(func() {
			ch <- s
			close(ch)
		})
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				settle(Settled{Err: fmt.Errorf("pipeline: panic: %v", r)})
			}
		}()
		fn(args, func(err error, data interface{}) {
			if err != nil {
				settle(Settled{Err: err})
				return
			}
			settle(Settled{Data: data})
		})
	}()
	return ch
}

// Cascade runs steps as a waterfall: the first receives initial and each
// following step receives its predecessor's result. Step i+1 never starts
// before step i has settled. The first error stops the waterfall and is
// returned unmodified. With no steps, initial is returned as is.
//
// A KindLegacy step is called with the arguments of an accumulated Call, or
// with the accumulated value as its only argument otherwise. Its outcome goes
// through Call.Then when there is one; without Then an error fails the
// waterfall and the data flows on.
func Cascade(ctx context.Context, steps []Step, initial interface{}) (interface{}, error) {
	acc := initial
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.run(ctx, acc)
		if err != nil {
			return nil, err
		}
		acc = out
	}
	return acc, nil
}

func (s Step) run(ctx context.Context, input interface{}) (interface{}, error) {
	switch s.Kind {
	case KindSync:
		if s.sync == nil {
			return nil, ErrNilStep
		}
		return s.sync(ctx, input)
	case KindAsync:
		if s.async == nil {
			return nil, ErrNilStep
		}
		res := Promised(ctx, s.async(ctx, input))
		return res.Data, res.Err
	case KindLegacy:
		if s.legacy == nil {
			return nil, ErrNilStep
		}
		return s.callLegacy(ctx, input)
	default:
		return nil, fmt.Errorf("pipeline: unknown step kind %v", s.Kind)
	}
}

func (s Step) callLegacy(ctx context.Context, input interface{}) (interface{}, error) {
	var call Call
	switch v := input.(type) {
	case Call:
		call = v
	case *Call:
		if v == nil {
			call = Call{Args: []interface{}{nil}}
		} else {
			call = *v
		}
	default:
		call = Call{Args: []interface{}{input}}
	}
	if len(call.Args) > MaxCallArgs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyArgs, len(call.Args), MaxCallArgs)
	}

	res := Promised(ctx, Promisify(s.legacy, call.Args))
	if call.Then != nil {
		return call.Then(res.Err, res.Data)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data, nil
}
