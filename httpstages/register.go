package httpstages

import (
	"fmt"
	"net/http"

	"github.com/dcshock/corridor/config"
	"github.com/dcshock/corridor/pipeline"
)

// Step names added by Register.
const (
	NameGet         = "http.get"
	NameFetch       = "http.fetch"
	NameParseJSON   = "json.parse"
	NameExpectField = "expect.field"
	NameExpectEqual = "expect.equal"
)

// Register adds the HTTP and JSON steps to reg so definition files can refer to them:
//
//	http.get      args: url
//	http.fetch    input is the URL
//	json.parse
//	expect.field  args: key, value
//	expect.equal  args: value
func Register(reg *config.Registry, client *http.Client) {
	reg.RegisterFactory(NameGet, func(args map[string]interface{}) (pipeline.Binding, error) {
		url, err := stringArg(args, "url")
		if err != nil {
			return nil, err
		}
		return Get(client, url), nil
	})
	reg.Register(NameFetch, Fetch(client))
	reg.Register(NameParseJSON, ParseJSON())
	reg.RegisterFactory(NameExpectField, func(args map[string]interface{}) (pipeline.Binding, error) {
		key, err := stringArg(args, "key")
		if err != nil {
			return nil, err
		}
		want, ok := args["value"]
		if !ok {
			return nil, fmt.Errorf("arg %q required", "value")
		}
		return ExpectField(key, jsonValue(want)), nil
	})
	reg.RegisterFactory(NameExpectEqual, func(args map[string]interface{}) (pipeline.Binding, error) {
		want, ok := args["value"]
		if !ok {
			return nil, fmt.Errorf("arg %q required", "value")
		}
		return ExpectEqual(jsonValue(want)), nil
	})
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("arg %q required", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("arg %q must be a non-empty string, got %T", key, v)
	}
	return s, nil
}

// jsonValue converts YAML scalars to the types encoding/json decodes into,
// so an expected value from a definition file compares equal to a parsed body.
func jsonValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, e := range n {
			out[i] = jsonValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, e := range n {
			out[k] = jsonValue(e)
		}
		return out
	default:
		return v
	}
}
