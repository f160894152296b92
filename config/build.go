package config

import (
	"fmt"
	"sort"

	"github.com/dcshock/corridor/pipeline"
	"github.com/dcshock/corridor/schedule"
)

// Set holds the tasks and runners built from a File, by map key.
type Set struct {
	Tasks   map[string]*pipeline.Task
	Runners map[string]*pipeline.Runner
	configs map[string]RunnerConfig
}

// Executable returns the task or runner defined under name.
func (s *Set) Executable(name string) (pipeline.Executable, bool) {
	if t, ok := s.Tasks[name]; ok {
		return t, true
	}
	if r, ok := s.Runners[name]; ok {
		return r, true
	}
	return nil, false
}

// Schedule adds every runner that has a schedule to sch and returns how many were added.
func (s *Set) Schedule(sch *schedule.Scheduler) (int, error) {
	added := 0
	for _, key := range sortedKeys(s.configs) {
		cfg := s.configs[key]
		if cfg.Schedule == "" {
			continue
		}
		if _, err := sch.Add(cfg.Schedule, s.Runners[key], cfg.Input); err != nil {
			return added, fmt.Errorf("runner %q: %w", key, err)
		}
		added++
	}
	return added, nil
}

// BuildTask builds a pipeline.Task from cfg. Step names must be registered.
func BuildTask(reg *Registry, key string, cfg TaskConfig, opts ...pipeline.Option) (*pipeline.Task, error) {
	if cfg.Name == "" {
		cfg.Name = key
	}
	if cfg.Action.IsZero() {
		return nil, fmt.Errorf("task %q: action required", key)
	}
	pre, err := resolveAll(reg, "pre", cfg.Pre)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", key, err)
	}
	action, err := reg.Resolve(cfg.Action)
	if err != nil {
		return nil, fmt.Errorf("task %q: action: %w", key, err)
	}
	post, err := resolveAll(reg, "post", cfg.Post)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", key, err)
	}
	return pipeline.NewTask(cfg.Name, opts...).Pre(pre...).Action(action).Post(post...), nil
}

// BuildRunner builds a pipeline.Runner from cfg. lookup resolves the names in cfg.Tasks.
func BuildRunner(reg *Registry, key string, cfg RunnerConfig, lookup func(name string) (pipeline.Executable, bool), opts ...pipeline.Option) (*pipeline.Runner, error) {
	if cfg.Name == "" {
		cfg.Name = key
	}
	if len(cfg.Tasks) == 0 {
		return nil, fmt.Errorf("runner %q: tasks required", key)
	}
	if cfg.IgnoreErrors && !cfg.Concurrent {
		return nil, fmt.Errorf("runner %q: ignore_errors requires concurrent", key)
	}
	pre, err := resolveAll(reg, "pre", cfg.Pre)
	if err != nil {
		return nil, fmt.Errorf("runner %q: %w", key, err)
	}
	post, err := resolveAll(reg, "post", cfg.Post)
	if err != nil {
		return nil, fmt.Errorf("runner %q: %w", key, err)
	}
	tasks := make([]pipeline.Executable, 0, len(cfg.Tasks))
	for i, name := range cfg.Tasks {
		exec, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("runner %q: task %d: %q not defined", key, i, name)
		}
		tasks = append(tasks, exec)
	}

	r := pipeline.NewRunner(cfg.Name, opts...).Pre(pre...).Tasks(tasks...).Post(post...)
	if len(cfg.Only) > 0 {
		r.Only(cfg.Only...)
	}
	if cfg.Concurrent {
		r.Concurrent(cfg.IgnoreErrors).Limit(cfg.Limit)
	}
	return r, nil
}

// Build builds every task and runner of f. Runners may list other runners;
// cycles are an error. opts are applied to every built entity.
func Build(reg *Registry, f *File, opts ...pipeline.Option) (*Set, error) {
	if f == nil {
		return nil, fmt.Errorf("config: file is nil")
	}
	set := &Set{
		Tasks:   make(map[string]*pipeline.Task, len(f.Tasks)),
		Runners: make(map[string]*pipeline.Runner, len(f.Runners)),
		configs: f.Runners,
	}
	for _, key := range sortedKeys(f.Tasks) {
		if _, dup := f.Runners[key]; dup {
			return nil, fmt.Errorf("config: %q is defined as both task and runner", key)
		}
		t, err := BuildTask(reg, key, f.Tasks[key], opts...)
		if err != nil {
			return nil, err
		}
		set.Tasks[key] = t
	}

	building := map[string]bool{}
	var nestedErr error
	var build func(key string) (*pipeline.Runner, error)
	lookup := func(name string) (pipeline.Executable, bool) {
		if t, ok := set.Tasks[name]; ok {
			return t, true
		}
		if _, ok := f.Runners[name]; !ok {
			return nil, false
		}
		r, err := build(name)
		if err != nil {
			if nestedErr == nil {
				nestedErr = err
			}
			return nil, false
		}
		return r, true
	}
	build = func(key string) (*pipeline.Runner, error) {
		if r, ok := set.Runners[key]; ok {
			return r, nil
		}
		if building[key] {
			return nil, fmt.Errorf("config: runner %q is part of a cycle", key)
		}
		building[key] = true
		defer delete(building, key)
		r, err := BuildRunner(reg, key, f.Runners[key], lookup, opts...)
		if err != nil {
			return nil, err
		}
		set.Runners[key] = r
		return r, nil
	}
	for _, key := range sortedKeys(f.Runners) {
		if _, err := build(key); err != nil {
			if nestedErr != nil {
				return nil, nestedErr
			}
			return nil, err
		}
	}
	return set, nil
}

func resolveAll(reg *Registry, phase string, refs []StepRef) ([]pipeline.Binding, error) {
	out := make([]pipeline.Binding, 0, len(refs))
	for i, ref := range refs {
		if ref.IsZero() {
			return nil, fmt.Errorf("%s step %d: name required", phase, i)
		}
		b, err := reg.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", phase, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
