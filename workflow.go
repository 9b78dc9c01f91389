package saga

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tobbstr/saga"

// revertSuffix is appended to a workflow's name to name its revert pass.
const revertSuffix = " (revert)"

// Workflow is an ordered list of steps executed against a shared context value of type C.
// Workflows are constructed using a fluent builder API and must not be modified while executing.
// A built workflow can be executed concurrently, each call with its own context value.
//
// Example:
//
//	wf := saga.New[*Order]("place-order").
//		WithLogger(logger).
//		Step("reserve", reserveStock, saga.WithRevert(releaseStock)).
//		Step("charge", chargeCard, saga.WithRevert(refundCard))
//
//	order, err := wf.Execute(ctx, order)
type Workflow[C any] struct {
	name      string
	steps     []Step[C]
	observers []Observer
	tracer    trace.Tracer
}

// New creates a new empty workflow with the given name.
func New[C any](name string) *Workflow[C] {
	return &Workflow[C]{
		name:   name,
		tracer: otel.Tracer(instrumentationName),
	}
}

// Name returns the workflow name.
func (w *Workflow[C]) Name() string {
	return w.name
}

// Steps returns a copy of the workflow's steps.
func (w *Workflow[C]) Steps() []Step[C] {
	return slices.Clone(w.steps)
}

// WithTracer sets the tracer used to create workflow and step spans.
// By default the tracer of the global otel TracerProvider is used.
func (w *Workflow[C]) WithTracer(tracer trace.Tracer) *Workflow[C] {
	if tracer != nil {
		w.tracer = tracer
	}
	return w
}

// Step adds a step built from a name, a forward action and options.
//
// Example:
//
//	wf.Step("charge", chargeCard,
//		saga.WithRevert(refundCard),
//		saga.WithFilter(saga.When(func(o *Order) bool { return o.Total > 0 })))
func (w *Workflow[C]) Step(name string, run Func[C], opts ...StepOption[C]) *Workflow[C] {
	step := Step[C]{
		Name: name,
		Run:  run,
	}
	for _, opt := range opts {
		opt(&step)
	}
	w.steps = append(w.steps, step)
	return w
}

// Add appends already built step descriptors.
func (w *Workflow[C]) Add(steps ...Step[C]) *Workflow[C] {
	w.steps = append(w.steps, steps...)
	return w
}

// Execute runs the workflow against c and returns c.
//
// Steps run strictly in order. When a step fails, the revert actions of every step that was not
// filtered out, including the failing step itself, are executed in the order they were registered.
// The returned error is then a *WorkflowError, or a *WorkflowRevertError if a revert action failed.
// On error, c is returned in whatever state the steps left it.
//
// Example:
//
//	order, err := wf.Execute(ctx, order)
//	if err != nil {
//		return fmt.Errorf("placing order: %w", err)
//	}
func (w *Workflow[C]) Execute(ctx context.Context, c C) (C, error) {
	ctx, executionID := ensureExecutionID(ctx)
	ctx, span := w.tracer.Start(ctx, w.name, trace.WithAttributes(
		attribute.String("saga.workflow", w.name),
		attribute.String("saga.execution_id", string(executionID)),
	))
	defer span.End()

	startTime := time.Now()
	w.notifyWorkflowStart(ctx, w.name)

	err := w.execute(ctx, c)

	span.SetAttributes(attribute.String("saga.outcome", OutcomeOf(err).String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	w.notifyWorkflowComplete(ctx, w.name, time.Since(startTime), err)

	return c, err
}

func (w *Workflow[C]) execute(ctx context.Context, c C) error {
	reverts, workflowErr := w.runSteps(ctx, PhaseForward, w.steps, c)
	if workflowErr == nil {
		return nil
	}

	if revertErr := w.revert(ctx, workflowErr, reverts, c); revertErr != nil {
		return revertErr
	}
	return workflowErr
}

// revert runs the registered compensations in registration order.
// Cancellation of ctx does not stop the revert pass.
func (w *Workflow[C]) revert(ctx context.Context, cause *WorkflowError, steps []Step[C], c C) *WorkflowRevertError {
	name := w.name + revertSuffix

	ctx = context.WithoutCancel(ctx)
	ctx, span := w.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("saga.workflow", name),
		attribute.String("saga.failed_step", cause.StepName),
	))
	defer span.End()

	startTime := time.Now()
	w.notifyRevertStart(ctx, name, cause)

	var (
		revertErr *WorkflowRevertError
		err       error
	)
	if _, failed := w.runSteps(ctx, PhaseRevert, steps, c); failed != nil {
		revertErr = &WorkflowRevertError{
			StepName: failed.StepName,
			Err:      failed.Err,
			Original: cause,
		}
		err = revertErr
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	w.notifyRevertComplete(ctx, name, time.Since(startTime), err)

	return revertErr
}

// runSteps runs the steps in order and stops at the first failure.
// It returns the revert steps registered up to that point.
func (w *Workflow[C]) runSteps(ctx context.Context, phase Phase, steps []Step[C], c C) ([]Step[C], *WorkflowError) {
	var reverts []Step[C]

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return reverts, &WorkflowError{StepName: s.Name, Err: err}
		}

		stepStartTime := time.Now()
		w.notifyStepStart(ctx, s.Name, phase)

		if s.Filter != nil {
			ok, err := evaluate(ctx, s.Filter, c)
			if err != nil {
				w.notifyStepComplete(ctx, s.Name, phase, time.Since(stepStartTime), err)
				return reverts, &WorkflowError{StepName: s.Name, Err: err}
			}
			if !ok {
				w.notifyStepSkipped(ctx, s.Name)
				continue
			}
		}

		// Registered before Run so a failing step is compensated too.
		if s.Revert != nil {
			reverts = append(reverts, s.revertStep())
		}

		err := w.runStep(ctx, phase, s, c)
		w.notifyStepComplete(ctx, s.Name, phase, time.Since(stepStartTime), err)
		if err != nil {
			return reverts, &WorkflowError{StepName: s.Name, Err: err}
		}
	}

	return reverts, nil
}

func (w *Workflow[C]) runStep(ctx context.Context, phase Phase, s Step[C], c C) error {
	if s.Run == nil {
		return ErrNoRun
	}

	ctx, span := w.tracer.Start(ctx, s.Name, trace.WithAttributes(
		attribute.String("saga.step", s.Name),
		attribute.String("saga.phase", phase.String()),
	))
	defer span.End()

	err := protect(func() error {
		return s.Run(ctx, c)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func evaluate[C any](ctx context.Context, filter Filter[C], c C) (bool, error) {
	var ok bool
	err := protect(func() error {
		var err error
		ok, err = filter(ctx, c)
		return err
	})
	return ok, err
}

// Execute runs steps in order against c under the given workflow name.
// It is shorthand for building a Workflow with New and Add and calling Execute.
//
// Example:
//
//	state, err := saga.Execute(ctx, "provision", []saga.Step[*State]{
//		{Name: "create-disk", Run: createDisk, Revert: deleteDisk},
//		{Name: "create-vm", Run: createVM, Revert: deleteVM},
//	}, &State{})
func Execute[C any](ctx context.Context, name string, steps []Step[C], c C) (C, error) {
	return New[C](name).Add(steps...).Execute(ctx, c)
}
