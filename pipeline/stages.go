// Package pipeline: standard steps for common waterfall patterns.

package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Identity returns a step that passes the input through unchanged.
func Identity() Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		return input, nil
	})
}

// Tap returns a step that calls fn(ctx, input) then passes input through unchanged.
// Use for logging or side effects without changing the value.
func Tap(fn func(context.Context, interface{})) Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		fn(ctx, input)
		return input, nil
	})
}

// Validate returns a step that passes input through only if predicate(v) is true.
// Otherwise it fails with errMsg ("validation failed" when empty).
// Input must be of type T.
func Validate[T any](predicate func(T) bool, errMsg string) Step {
	if errMsg == "" {
		errMsg = "validation failed"
	}
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		v, err := as[T]("validate", input)
		if err != nil {
			return nil, err
		}
		if !predicate(v) {
			return nil, errors.New(errMsg)
		}
		return input, nil
	})
}

// Constant returns a step that ignores input and always outputs value.
func Constant(value interface{}) Step {
	return Func(func(ctx context.Context, _ interface{}) (interface{}, error) {
		return value, nil
	})
}

// MapSlice returns a step that converts []T to []U using convert for each element.
func MapSlice[T, U any](convert ConvertFunc[T, U]) Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		slice, err := as[[]T]("mapslice", input)
		if err != nil {
			return nil, err
		}
		out := make([]U, 0, len(slice))
		for i, v := range slice {
			u, err := convert(ctx, v)
			if err != nil {
				return nil, fmt.Errorf("mapslice[%d]: %w", i, err)
			}
			out = append(out, u)
		}
		return out, nil
	})
}

// FilterSlice returns a step that keeps only elements of []T for which keep(v) is true.
func FilterSlice[T any](keep func(T) bool) Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		slice, err := as[[]T]("filterslice", input)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(slice))
		for _, v := range slice {
			if keep(v) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// Gather returns a step that converts a []interface{}, such as the result of
// a concurrent Runner, into a []T. Elements that are not a T fail the step.
func Gather[T any]() Step {
	return Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		items, err := as[[]interface{}]("gather", input)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(items))
		for i, item := range items {
			v, ok := item.(T)
			if !ok {
				var zero T
				return nil, fmt.Errorf("gather[%d]: expected %T, got %T", i, zero, item)
			}
			out = append(out, v)
		}
		return out, nil
	})
}
