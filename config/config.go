package config

import (
	"fmt"
	"os"

	"github.com/dcshock/corridor/logging"
	"gopkg.in/yaml.v3"
)

// File is the root of a definitions file.
type File struct {
	Logging logging.Config          `yaml:"logging"`
	Tasks   map[string]TaskConfig   `yaml:"tasks"`
	Runners map[string]RunnerConfig `yaml:"runners"`
}

// TaskConfig defines a task. Name defaults to the map key.
type TaskConfig struct {
	Name   string    `yaml:"name"`
	Pre    []StepRef `yaml:"pre"`
	Action StepRef   `yaml:"action"`
	Post   []StepRef `yaml:"post"`
}

// RunnerConfig defines a runner. Tasks name tasks or other runners of the
// same file. Name defaults to the map key.
type RunnerConfig struct {
	Name         string    `yaml:"name"`
	Pre          []StepRef `yaml:"pre"`
	Tasks        []string  `yaml:"tasks"`
	Only         []string  `yaml:"only"`
	Post         []StepRef `yaml:"post"`
	Concurrent   bool      `yaml:"concurrent"`
	IgnoreErrors bool      `yaml:"ignore_errors"`
	Limit        int       `yaml:"limit"`

	// Schedule is an optional cron spec; Input is passed to scheduled executions.
	Schedule string      `yaml:"schedule"`
	Input    interface{} `yaml:"input"`
}

// StepRef is a single step entry: either a plain name or name + args.
// In YAML, a step can be written as:
//   - trim
//   - name: http.get
//     args:
//     url: https://example.com/status
type StepRef struct {
	Name string                 `yaml:"name"`
	Args map[string]interface{} `yaml:"args"`
}

// UnmarshalYAML allows a step to be a string (step name only) or a struct.
func (s *StepRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&s.Name)
	}
	type raw StepRef
	return value.Decode((*raw)(s))
}

// IsZero reports whether no step is referenced.
func (s StepRef) IsZero() bool { return s.Name == "" }

// Parse parses YAML bytes into a File.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &f, nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}
