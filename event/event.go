// Package event provides the publish/subscribe collaborator that tasks and
// runners emit their lifecycle signals through.
//
// Topics are namespaced by entity kind, entity name and phase:
//
//	task:<name>:pre:start      runner:<name>:pre:start
//	task:<name>:action:start   runner:<name>:tasks:start
//	task:<name>:post:end       runner:<name>:post:end
//	task:<name>:fail           cancel:<name>
//
// Subscribe with On(topic, handler); the topic "*" receives every event.
package event

import (
	"strings"
	"time"
)

// Entity kinds.
const (
	KindTask   = "task"
	KindRunner = "runner"
)

// Phases. PhaseCancel and PhaseFail have no start/end boundary.
const (
	PhasePre    = "pre"
	PhaseAction = "action"
	PhaseTasks  = "tasks"
	PhasePost   = "post"
	PhaseCancel = "cancel"
	PhaseFail   = "fail"
)

// Boundaries of a phase.
const (
	Start = "start"
	End   = "end"
)

// All is the wildcard topic.
const All = "*"

// Event is a single lifecycle signal.
type Event struct {
	Topic    string        `json:"topic"`
	Kind     string        `json:"kind,omitempty"`
	Name     string        `json:"name"`
	Phase    string        `json:"phase"`
	Boundary string        `json:"boundary,omitempty"`
	Payload  interface{}   `json:"payload,omitempty"`
	RunID    string        `json:"runID,omitempty"`
	State    string        `json:"state,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
	Time     time.Time     `json:"time"`
}

// Topic builds a phase boundary topic, e.g. Topic("task", "t1", "pre", "start")
// is "task:t1:pre:start". An empty boundary yields "task:t1:fail" style topics.
func Topic(kind, name, phase, boundary string) string {
	parts := []string{kind, name, phase}
	if boundary != "" {
		parts = append(parts, boundary)
	}
	return strings.Join(parts, ":")
}

// CancelTopic returns "cancel:<name>".
func CancelTopic(name string) string {
	return PhaseCancel + ":" + name
}

// Handler receives events. Handlers run synchronously on the emitting
// goroutine; they must not block and must be safe for concurrent calls when
// the emitter is shared by concurrently executing entities.
type Handler func(Event)

// Emitter is the publish/subscribe capability held by every entity.
type Emitter interface {
	// Emit delivers e to the handlers subscribed to e.Topic and to All.
	Emit(e Event)
	// On subscribes h to topic and returns a function that removes it.
	On(topic string, h Handler) (off func())
}
