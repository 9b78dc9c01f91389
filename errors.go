package saga

import (
	"errors"
	"fmt"
)

// ErrNoRun is the cause reported for a step that has no Run action.
var ErrNoRun = errors.New("step has no run action")

// WorkflowError is returned when a step's forward action (or its filter) fails.
// It is returned after the revert pass has completed successfully.
type WorkflowError struct {
	// StepName is the name of the failing step.
	StepName string

	// Err is the failure returned by the step.
	Err error
}

// Error returns the error message.
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow error executing '%s': %v", e.StepName, e.Err)
}

// Unwrap returns the step's failure.
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// WorkflowRevertError is returned when a compensating action fails during the revert pass.
// It keeps both the revert failure and the forward failure that triggered the revert pass.
type WorkflowRevertError struct {
	// StepName is the name of the step whose revert action failed.
	StepName string

	// Err is the failure returned by the revert action.
	Err error

	// Original is the forward failure that triggered the revert pass.
	Original *WorkflowError
}

// Error returns the error message.
func (e *WorkflowRevertError) Error() string {
	return fmt.Sprintf("%s\nadditionally, error reverting step '%s': %v", e.Original.Error(), e.StepName, e.Err)
}

// Unwrap returns the revert failure and the original workflow error.
func (e *WorkflowRevertError) Unwrap() []error {
	return []error{e.Err, e.Original}
}

// PanicError is reported as the failure of a step callback that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the error message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
