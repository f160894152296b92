package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dcshock/corridor/pipeline"
	"github.com/dcshock/corridor/schedule"
)

func double() pipeline.Step {
	return pipeline.Sync(func(ctx context.Context, n int) (int, error) { return n * 2, nil })
}

func addFactory(args map[string]interface{}) (pipeline.Binding, error) {
	n, ok := args["n"].(int)
	if !ok {
		return nil, fmt.Errorf("arg n must be an int, got %T", args["n"])
	}
	return pipeline.Sync(func(ctx context.Context, v int) (int, error) { return v + n, nil }), nil
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("id", pipeline.Identity())
	reg.Register("double", double())
	reg.RegisterFactory("add", addFactory)
	reg.Register("sum", pipeline.Func(func(ctx context.Context, in interface{}) (interface{}, error) {
		total := 0
		for _, v := range in.([]interface{}) {
			total += v.(int)
		}
		return total, nil
	}))
	return reg
}

func TestRegistry_RegisterGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("id", pipeline.Identity())
	b, ok := reg.Get("id")
	if !ok || b == nil {
		t.Fatal("Get(id) should return binding")
	}
	_, ok = reg.Get("missing")
	if ok {
		t.Error("Get(missing) should return false")
	}
}

func TestRegistry_ZeroValue(t *testing.T) {
	var reg Registry
	reg.Register("id", pipeline.Identity())
	if _, ok := reg.Get("id"); !ok {
		t.Fatal("zero Registry should accept registrations")
	}
}

func TestRegistry_MustGet_Panic(t *testing.T) {
	reg := NewRegistry()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustGet(missing) should panic")
		}
		if msg, _ := r.(string); !strings.HasPrefix(msg, "config: ") {
			t.Errorf("panic message: %v", r)
		}
	}()
	reg.MustGet("missing")
}

func TestRegistry_Names(t *testing.T) {
	reg := testRegistry()
	want := []string{"add", "double", "id", "sum"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names: got %v, want %v", got, want)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := testRegistry()

	b, err := reg.Resolve(StepRef{Name: "add", Args: map[string]interface{}{"n": 3}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := pipeline.Cascade(context.Background(), []pipeline.Step{b.Bind(nil)}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if out != 7 {
		t.Errorf("add 3 to 4: got %v", out)
	}

	if _, err := reg.Resolve(StepRef{Name: "add"}); err == nil || !strings.Contains(err.Error(), `step "add"`) {
		t.Errorf("factory error should name the step, got %v", err)
	}
	if _, err := reg.Resolve(StepRef{Name: "id", Args: map[string]interface{}{"x": 1}}); err == nil {
		t.Error("args for a plain binding should be an error")
	}
	if _, err := reg.Resolve(StepRef{Name: "nope"}); err == nil {
		t.Error("unknown step should be an error")
	}
}

func TestParse_StepRefForms(t *testing.T) {
	data := `
logging:
  level: debug
  format: json
tasks:
  math:
    pre:
      - id
      - name: add
        args:
          n: 1
    action: double
    post: [id]
runners:
  all:
    name: all-things
    tasks: [math]
    concurrent: true
    ignore_errors: true
    limit: 2
    schedule: "@every 1m"
    input: 5
`
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if f.Logging.Level != "debug" || f.Logging.Format != "json" {
		t.Errorf("logging: %+v", f.Logging)
	}
	task := f.Tasks["math"]
	if len(task.Pre) != 2 || task.Pre[0].Name != "id" || task.Pre[1].Name != "add" {
		t.Fatalf("pre: %+v", task.Pre)
	}
	if task.Pre[1].Args["n"] != 1 {
		t.Errorf("add args: %v", task.Pre[1].Args)
	}
	if task.Action.Name != "double" || len(task.Post) != 1 {
		t.Errorf("task: %+v", task)
	}
	r := f.Runners["all"]
	if r.Name != "all-things" || !r.Concurrent || !r.IgnoreErrors || r.Limit != 2 {
		t.Errorf("runner: %+v", r)
	}
	if r.Schedule != "@every 1m" || r.Input != 5 {
		t.Errorf("schedule/input: %q %v", r.Schedule, r.Input)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("tasks: [")); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  t1:\n    action: id\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Tasks["t1"].Action.Name != "id" {
		t.Errorf("t1: %+v", f.Tasks["t1"])
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildTask(t *testing.T) {
	reg := testRegistry()
	cfg := TaskConfig{
		Pre:    []StepRef{{Name: "add", Args: map[string]interface{}{"n": 1}}},
		Action: StepRef{Name: "double"},
		Post:   []StepRef{{Name: "id"}},
	}
	task, err := BuildTask(reg, "math", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if task.Name() != "math" {
		t.Errorf("name should default to key, got %q", task.Name())
	}
	out, err := task.Execute(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	if out != 42 {
		t.Errorf("expected 42, got %v", out)
	}
}

func TestBuildTask_Errors(t *testing.T) {
	reg := testRegistry()
	cases := map[string]TaskConfig{
		"no action":      {Pre: []StepRef{{Name: "id"}}},
		"unknown action": {Action: StepRef{Name: "nope"}},
		"unknown pre":    {Pre: []StepRef{{Name: "id"}, {Name: "nope"}}, Action: StepRef{Name: "id"}},
		"unnamed post":   {Action: StepRef{Name: "id"}, Post: []StepRef{{}}},
		"factory args":   {Action: StepRef{Name: "add", Args: map[string]interface{}{"n": "x"}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := BuildTask(reg, "t", cfg); err == nil {
				t.Fatal("expected error")
			} else if !strings.Contains(err.Error(), `task "t"`) {
				t.Errorf("error should name the task: %v", err)
			}
		})
	}
}

func TestBuildRunner_Errors(t *testing.T) {
	reg := testRegistry()
	none := func(string) (pipeline.Executable, bool) { return nil, false }
	cases := map[string]RunnerConfig{
		"no tasks":      {},
		"unknown task":  {Tasks: []string{"ghost"}},
		"ignore errors": {Tasks: []string{"ghost"}, IgnoreErrors: true},
		"unknown post":  {Tasks: []string{"ghost"}, Post: []StepRef{{Name: "nope"}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := BuildRunner(reg, "r", cfg, none); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuild_SequentialAndConcurrent(t *testing.T) {
	data := `
tasks:
  one:
    action: {name: add, args: {n: 1}}
  two:
    action: double
runners:
  seq:
    tasks: [one, two]
  fan:
    tasks: [one, two]
    concurrent: true
    post: [sum]
`
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	set, err := Build(testRegistry(), f)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	out, err := set.Runners["seq"].Execute(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if out != 10 {
		t.Errorf("seq: (4+1)*2 expected 10, got %v", out)
	}

	out, err = set.Runners["fan"].Execute(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if out != 13 {
		t.Errorf("fan: (4+1)+(4*2) expected 13, got %v", out)
	}
}

func TestBuild_NestedRunnersAndOnly(t *testing.T) {
	data := `
tasks:
  one:
    action: {name: add, args: {n: 1}}
  two:
    action: double
runners:
  outer:
    tasks: [inner, two]
  inner:
    tasks: [one, two]
    only: [one]
`
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	set, err := Build(testRegistry(), f)
	if err != nil {
		t.Fatal(err)
	}
	if n := set.Runners["inner"].Len(); n != 1 {
		t.Errorf("inner should keep only task one, has %d", n)
	}
	exec, ok := set.Executable("outer")
	if !ok {
		t.Fatal("outer not found")
	}
	out, err := exec.Execute(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if out != 10 {
		t.Errorf("expected (4+1)*2 = 10, got %v", out)
	}
	if _, ok := set.Executable("one"); !ok {
		t.Error("tasks should be found by Executable")
	}
	if _, ok := set.Executable("ghost"); ok {
		t.Error("unknown name should not be found")
	}
}

func TestBuild_Cycle(t *testing.T) {
	data := `
tasks:
  one:
    action: id
runners:
  a:
    tasks: [one, b]
  b:
    tasks: [a]
`
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Build(testRegistry(), f)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestBuild_DuplicateName(t *testing.T) {
	f := &File{
		Tasks:   map[string]TaskConfig{"x": {Action: StepRef{Name: "id"}}},
		Runners: map[string]RunnerConfig{"x": {Tasks: []string{"x"}}},
	}
	if _, err := Build(testRegistry(), f); err == nil {
		t.Fatal("expected error for name used by task and runner")
	}
	if _, err := Build(testRegistry(), nil); err == nil {
		t.Fatal("expected error for nil file")
	}
}

func TestBuild_FailurePropagates(t *testing.T) {
	reg := testRegistry()
	boom := errors.New("boom")
	reg.Register("fail", pipeline.Func(func(ctx context.Context, in interface{}) (interface{}, error) {
		return nil, boom
	}))
	f := &File{
		Tasks:   map[string]TaskConfig{"bad": {Action: StepRef{Name: "fail"}}},
		Runners: map[string]RunnerConfig{"r": {Tasks: []string{"bad"}}},
	}
	set, err := Build(reg, f)
	if err != nil {
		t.Fatal(err)
	}
	_, err = set.Runners["r"].Execute(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSet_Schedule(t *testing.T) {
	data := `
tasks:
  one:
    action: id
runners:
  hourly:
    tasks: [one]
    schedule: "@hourly"
  manual:
    tasks: [one]
`
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	set, err := Build(testRegistry(), f)
	if err != nil {
		t.Fatal(err)
	}
	sch := schedule.New(nil)
	n, err := set.Schedule(sch)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || sch.Len() != 1 {
		t.Errorf("expected 1 scheduled runner, got %d (len %d)", n, sch.Len())
	}

	f.Runners["manual"] = RunnerConfig{Tasks: []string{"one"}, Schedule: "not a spec"}
	set, err = Build(testRegistry(), f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := set.Schedule(schedule.New(nil)); !errors.Is(err, schedule.ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec, got %v", err)
	}
}
