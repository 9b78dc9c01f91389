// Package saga provides a sequential step executor with automatic compensation.
//
// A workflow is an ordered list of named steps that share one mutable context. Each step has a
// forward action and, optionally, a filter that can skip it and a revert action that compensates it.
// When a forward action fails, the revert actions registered so far are executed and the original
// failure is returned.
//
// Example usage:
//
//	wf := saga.New[*Order]("place-order").
//		Step("reserve", reserveStock, saga.WithRevert(releaseStock)).
//		Step("charge", chargeCard, saga.WithRevert(refundCard)).
//		Step("notify", sendEmail, saga.WithFilter(wantsEmail))
//
//	order, err := wf.Execute(ctx, order)
package saga

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ExecutionID identifies a single execution of a workflow for observability purposes.
// Nested workflows executed as steps share the ID of their parent.
type ExecutionID string

type executionIDKey struct{}

// WithExecutionID returns a copy of ctx carrying id.
// Execute generates a new ID when ctx does not carry one.
func WithExecutionID(ctx context.Context, id ExecutionID) context.Context {
	return context.WithValue(ctx, executionIDKey{}, id)
}

// ExecutionIDFromContext returns the execution ID carried by ctx, if any.
func ExecutionIDFromContext(ctx context.Context) (ExecutionID, bool) {
	id, ok := ctx.Value(executionIDKey{}).(ExecutionID)
	return id, ok && id != ""
}

func ensureExecutionID(ctx context.Context) (context.Context, ExecutionID) {
	if id, ok := ExecutionIDFromContext(ctx); ok {
		return ctx, id
	}
	id := ExecutionID(uuid.New().String())
	return WithExecutionID(ctx, id), id
}

// Phase tells whether a step action belongs to the forward pass or to the revert pass.
type Phase int

const (
	// PhaseForward is the pass running each step's Run action.
	PhaseForward Phase = iota

	// PhaseRevert is the pass running the compensating actions after a forward failure.
	PhaseRevert
)

func (p Phase) String() string {
	switch p {
	case PhaseForward:
		return "forward"
	case PhaseRevert:
		return "revert"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of a workflow execution.
type Outcome int

const (
	// OutcomeCompleted means every step either ran successfully or was filtered out.
	OutcomeCompleted Outcome = iota

	// OutcomeFailed means a forward action failed and every compensation succeeded.
	OutcomeFailed

	// OutcomeRevertFailed means a forward action failed and a compensation failed as well.
	OutcomeRevertFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeRevertFailed:
		return "revert_failed"
	default:
		return "unknown"
	}
}

// OutcomeOf classifies the error returned by Execute.
//
// Example:
//
//	_, err := wf.Execute(ctx, state)
//	if saga.OutcomeOf(err) == saga.OutcomeRevertFailed {
//		// manual cleanup required
//	}
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeCompleted
	}
	var revertErr *WorkflowRevertError
	if errors.As(err, &revertErr) {
		return OutcomeRevertFailed
	}
	return OutcomeFailed
}
