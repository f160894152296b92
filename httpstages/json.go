package httpstages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dcshock/corridor/pipeline"
)

// ParseJSON returns a step that unmarshals the input from JSON into a value.
// Input must be []byte or string (response body). Output is the decoded value (e.g. map[string]interface{} for objects).
func ParseJSON() pipeline.Step {
	return pipeline.Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		raw, err := body("parsejson", input)
		if err != nil {
			return nil, err
		}
		var out interface{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejson: %w", err)
		}
		return out, nil
	})
}

// ParseJSONTo returns a step that unmarshals the input from JSON into a value of type T.
// Input must be []byte or string. Output is *T.
func ParseJSONTo[T any]() pipeline.Step {
	return pipeline.Func(func(ctx context.Context, input interface{}) (interface{}, error) {
		raw, err := body("parsejsonto", input)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejsonto: %w", err)
		}
		return &out, nil
	})
}

func body(op string, input interface{}) ([]byte, error) {
	switch v := input.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%s: input must be []byte or string, got %T", op, input)
	}
}
