package pipeline

import (
	"errors"
	"fmt"

	"github.com/dcshock/corridor/event"
)

var (
	// ErrNoAction is wrapped by the ConfigError of a Task executed without an action.
	ErrNoAction = errors.New("no action defined")
	// ErrNoTasks is wrapped by the ConfigError of a Runner executed without tasks.
	ErrNoTasks = errors.New("no tasks to run")
	// ErrCanceled matches every CancelError.
	ErrCanceled = errors.New("canceled")
	// ErrAllTasksFailed is returned by an error-tolerant concurrent Runner when
	// no task succeeded. The individual failures are joined to it.
	ErrAllTasksFailed = errors.New("all tasks failed with errors")
	// ErrBrokenFuture is the outcome of a Future closed without a value.
	ErrBrokenFuture = errors.New("future closed without a value")
	// ErrSealed is the panic value of a configuration call after the first Execute.
	ErrSealed = errors.New("configuration is sealed after the first execute")
	// ErrTooManyArgs is returned when a Call carries more than MaxCallArgs arguments.
	ErrTooManyArgs = errors.New("too many callback arguments")
	// ErrNilStep is returned by a Step that has no function.
	ErrNilStep = errors.New("step has no function")
)

func label(kind string) string {
	if kind == event.KindRunner {
		return "Runner"
	}
	return "Task"
}

// ConfigError reports an entity that cannot execute as configured.
type ConfigError struct {
	Kind string
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s '%s' has %v", label(e.Kind), e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CancelError is returned by Cancel. Steps abort the execution by returning it.
type CancelError struct {
	Name   string
	Reason string
}

func (e *CancelError) Error() string { return fmt.Sprintf("Task '%s' was canceled", e.Name) }

// Is reports whether target is ErrCanceled.
func (e *CancelError) Is(target error) bool { return target == ErrCanceled }

// IsCanceled reports whether err is or wraps a CancelError.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// ExecutionError is the single error an Execute call fails with once it has
// started running phases. Err is the original cause.
type ExecutionError struct {
	Kind  string
	Name  string
	Phase string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s '%s' failed in %s: %v", label(e.Kind), e.Name, e.Phase, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
