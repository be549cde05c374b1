package errors

import (
	"errors"
	"fmt"
)

// ConstructionError is returned when a scheduler cannot be built or started.
type ConstructionError struct {
	reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("scheduler construction failed: %s", e.reason)
}

func NewConstructionError(format string, args ...any) *ConstructionError {
	return &ConstructionError{reason: fmt.Sprintf(format, args...)}
}

func NewAlreadyStartedError(state string) *ConstructionError {
	return &ConstructionError{reason: fmt.Sprintf("cannot start scheduler in state %q", state)}
}

func IsConstructionError(err error) bool {
	var e *ConstructionError
	return errors.As(err, &e)
}

// SchedulerStoppedError is returned when work is submitted after stop has begun.
// The work is not enqueued.
type SchedulerStoppedError struct {
	name string
}

func (e *SchedulerStoppedError) Error() string {
	if e.name == "" {
		return "scheduler is stopped"
	}
	return fmt.Sprintf("scheduler %q is stopped", e.name)
}

func NewSchedulerStoppedError(name string) *SchedulerStoppedError {
	return &SchedulerStoppedError{name: name}
}

func IsSchedulerStoppedError(err error) bool {
	var e *SchedulerStoppedError
	return errors.As(err, &e)
}

// TaskPanicError wraps a value recovered from a panicking task body.
type TaskPanicError struct {
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

func NewTaskPanicError(value any, stack []byte) *TaskPanicError {
	return &TaskPanicError{Value: value, Stack: stack}
}

func IsTaskPanicError(err error) bool {
	var e *TaskPanicError
	return errors.As(err, &e)
}

type ConfigurationError struct {
	field  string
	reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.field, e.reason)
}

func NewConfigurationError(field string, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{field: field, reason: fmt.Sprintf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
