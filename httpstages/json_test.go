package httpstages

import (
	"testing"
)

func TestParseJSON(t *testing.T) {
	out, err := run(ParseJSON(), []byte(`{"a":1,"b":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := out.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", out)
	}
	if m["a"] != float64(1) || m["b"] != "x" {
		t.Errorf("map: %v", m)
	}
}

func TestParseJSON_Inputs(t *testing.T) {
	cases := []struct {
		name    string
		input   interface{}
		wantErr bool
	}{
		{"string", `[1,2]`, false},
		{"bytes", []byte(`"s"`), false},
		{"number", 42, true},
		{"nil", nil, true},
		{"malformed", `{"a":`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(ParseJSON(), tc.input)
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseJSONTo(t *testing.T) {
	type status struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	out, err := run(ParseJSONTo[status](), `{"a":1,"b":"x"}`)
	if err != nil {
		t.Fatal(err)
	}
	ptr, ok := out.(*status)
	if !ok {
		t.Fatalf("expected *status, got %T", out)
	}
	if ptr.A != 1 || ptr.B != "x" {
		t.Errorf("got %+v", ptr)
	}
}
