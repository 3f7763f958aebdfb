package node

import (
	"errors"
	"fmt"
)

// ExecutionError is the single failure vocabulary for node invocations.
// Engine-specific errors are never propagated verbatim; they are wrapped
// here with the failing node's name, and the cause stays reachable
// through Unwrap.
type ExecutionError struct {
	NodeName string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %s: execution failed: %v", e.NodeName, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError wraps a cause into an ExecutionError unless it
// already is one, so nested composites do not double-wrap.
func NewExecutionError(nodeName string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return &ExecutionError{NodeName: nodeName, Err: err}
}

// ConfigurationError is a construction-time failure: wired sub-node
// schemas disagree, or a requested output address does not resolve.
// Never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// NewConfigurationError creates a ConfigurationError with a formatted message
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
