package saga

import (
	"context"
	"time"
)

// Observer provides hooks for monitoring workflow and step execution.
// Implement this interface to add custom metrics, logging, or tracing.
// The execution ID is available through ExecutionIDFromContext.
//
// For every step the executor calls OnStepStart followed by exactly one of
// OnStepSkipped or OnStepComplete. Steps of the revert pass are reported with PhaseRevert
// between OnRevertStart and OnRevertComplete.
//
// Example:
//
//	type auditObserver struct {
//		saga.NoopObserver
//		audit AuditLog
//	}
//
//	func (a *auditObserver) OnRevertStart(ctx context.Context, workflow string, cause *saga.WorkflowError) {
//		a.audit.Record(ctx, "compensating", workflow, cause.StepName)
//	}
type Observer interface {
	// OnWorkflowStart is called when workflow execution begins.
	OnWorkflowStart(ctx context.Context, workflow string)

	// OnWorkflowComplete is called when workflow execution completes (success or failure),
	// after any revert pass.
	OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error)

	// OnStepStart is called before a step's filter is evaluated.
	OnStepStart(ctx context.Context, step string, phase Phase)

	// OnStepSkipped is called when a step's filter returned false.
	OnStepSkipped(ctx context.Context, step string)

	// OnStepComplete is called when a step's action completes (success or failure).
	OnStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error)

	// OnRevertStart is called when a forward failure starts the revert pass.
	OnRevertStart(ctx context.Context, workflow string, cause *WorkflowError)

	// OnRevertComplete is called when the revert pass completes.
	// err is a *WorkflowRevertError when a revert action failed.
	OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error)
}

// NoopObserver is a default implementation of Observer that does nothing.
// Use this as a base for implementing partial observers.
type NoopObserver struct{}

// OnWorkflowStart implements Observer.
func (n *NoopObserver) OnWorkflowStart(ctx context.Context, workflow string) {}

// OnWorkflowComplete implements Observer.
func (n *NoopObserver) OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
}

// OnStepStart implements Observer.
func (n *NoopObserver) OnStepStart(ctx context.Context, step string, phase Phase) {}

// OnStepSkipped implements Observer.
func (n *NoopObserver) OnStepSkipped(ctx context.Context, step string) {}

// OnStepComplete implements Observer.
func (n *NoopObserver) OnStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error) {
}

// OnRevertStart implements Observer.
func (n *NoopObserver) OnRevertStart(ctx context.Context, workflow string, cause *WorkflowError) {}

// OnRevertComplete implements Observer.
func (n *NoopObserver) OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
}

// WithObserver adds an observer to the workflow.
// Multiple observers can be added and all will be notified of events, in the order they were added.
//
// Example:
//
//	wf := saga.New[*Order]("place-order").
//		WithObserver(metrics).
//		WithObserver(&auditObserver{audit: audit})
func (w *Workflow[C]) WithObserver(observer Observer) *Workflow[C] {
	w.observers = append(w.observers, observer)
	return w
}

// notify calls fn for every observer. A panicking observer does not affect
// the execution or the remaining observers.
func (w *Workflow[C]) notify(fn func(Observer)) {
	for _, obs := range w.observers {
		func() {
			defer func() {
				_ = recover()
			}()
			fn(obs)
		}()
	}
}

func (w *Workflow[C]) notifyWorkflowStart(ctx context.Context, workflow string) {
	w.notify(func(obs Observer) { obs.OnWorkflowStart(ctx, workflow) })
}

func (w *Workflow[C]) notifyWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	w.notify(func(obs Observer) { obs.OnWorkflowComplete(ctx, workflow, duration, err) })
}

func (w *Workflow[C]) notifyStepStart(ctx context.Context, step string, phase Phase) {
	w.notify(func(obs Observer) { obs.OnStepStart(ctx, step, phase) })
}

func (w *Workflow[C]) notifyStepSkipped(ctx context.Context, step string) {
	w.notify(func(obs Observer) { obs.OnStepSkipped(ctx, step) })
}

func (w *Workflow[C]) notifyStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error) {
	w.notify(func(obs Observer) { obs.OnStepComplete(ctx, step, phase, duration, err) })
}

func (w *Workflow[C]) notifyRevertStart(ctx context.Context, workflow string, cause *WorkflowError) {
	w.notify(func(obs Observer) { obs.OnRevertStart(ctx, workflow, cause) })
}

func (w *Workflow[C]) notifyRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	w.notify(func(obs Observer) { obs.OnRevertComplete(ctx, workflow, duration, err) })
}
