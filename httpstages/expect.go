package httpstages

import (
	"context"
	"fmt"
	"reflect"

	"github.com/dcshock/corridor/pipeline"
)

// Expect returns a step that runs the predicate on the input. If the predicate returns an error,
// the step fails with it. Otherwise the input is passed through unchanged.
// Use after ParseJSON to verify the decoded result (e.g. check status field, required keys).
func Expect(predicate func(interface{}) error) pipeline.Step {
	if predicate == nil {
		panic("httpstages.Expect: predicate must not be nil")
	}
	return pipeline.Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		if err := predicate(input); err != nil {
			return nil, fmt.Errorf("expect: %w", err)
		}
		return input, nil
	})
}

// ExpectEqual returns a step that checks the input equals expected using reflect.DeepEqual.
func ExpectEqual(expected interface{}) pipeline.Step {
	return Expect(func(v interface{}) error {
		if !reflect.DeepEqual(v, expected) {
			return fmt.Errorf("got %v, want %v", v, expected)
		}
		return nil
	})
}

// ExpectField returns a step that checks a decoded JSON object has key set to want.
// Numbers decode as float64.
func ExpectField(key string, want interface{}) pipeline.Step {
	return Expect(func(v interface{}) error {
		m, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("expected JSON object, got %T", v)
		}
		if got := m[key]; !reflect.DeepEqual(got, want) {
			return fmt.Errorf("%s is %v, want %v", key, got, want)
		}
		return nil
	})
}
