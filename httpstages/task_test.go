package httpstages

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dcshock/corridor/pipeline"
)

func TestTask_GetParseExpect(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"ok","version":1}`)

	task := pipeline.NewTask("http-check").
		Pre(Get(ts.Client(), ts.URL)).
		Action(ParseJSON()).
		Post(ExpectField("status", "ok"))
	out, err := task.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := out.(map[string]interface{})
	if !ok || m["version"] != float64(1) {
		t.Errorf("expected decoded object, got %v", out)
	}
}

func TestTask_ExpectFails(t *testing.T) {
	ts := serve(t, http.StatusOK, `{"status":"down"}`)

	task := pipeline.NewTask("http-check").
		Pre(Get(ts.Client(), ts.URL)).
		Action(ParseJSON()).
		Post(ExpectField("status", "ok"))
	_, err := task.Execute(context.Background(), nil)
	var ee *pipeline.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *pipeline.ExecutionError, got %v", err)
	}
	if ee.Phase != "post" || ee.Name != "http-check" {
		t.Errorf("execution error: %+v", ee)
	}
}

func TestRunner_ConcurrentFetch(t *testing.T) {
	up := serve(t, http.StatusOK, `{"status":"ok"}`)
	down := serve(t, http.StatusServiceUnavailable, "")

	check := func(name, url string) *pipeline.Task {
		return pipeline.NewTask(name).
			Pre(pipeline.Constant(url)).
			Action(Fetch(up.Client())).
			Post(ParseJSON())
	}
	r := pipeline.NewRunner("health").
		Tasks(check("up", up.URL), check("down", down.URL)).
		Concurrent(true)
	out, err := r.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	results, ok := out.([]interface{})
	if !ok || len(results) != 1 {
		t.Fatalf("expected one surviving result, got %v", out)
	}
	if m, _ := results[0].(map[string]interface{}); m["status"] != "ok" {
		t.Errorf("result: %v", results[0])
	}
}
