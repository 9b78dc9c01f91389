package saga

import (
	"context"
	"runtime/debug"
)

// Func is a step action. It may mutate the shared context value c.
type Func[C any] func(ctx context.Context, c C) error

// Filter decides whether a step runs. Returning false skips both the step's
// Run action and the registration of its Revert action.
//
// Example:
//
//	wantsEmail := func(ctx context.Context, o *Order) (bool, error) {
//		return o.Customer.Email != "", nil
//	}
type Filter[C any] func(ctx context.Context, c C) (bool, error)

// Step describes a single unit of work in a workflow.
//
// Example:
//
//	step := saga.Step[*Order]{
//		Name:   "charge",
//		Run:    chargeCard,
//		Revert: refundCard,
//	}
type Step[C any] struct {
	// Name is used for logging and error attribution. It does not have to be unique.
	Name string

	// Filter is optional. When it returns false the step is skipped.
	Filter Filter[C]

	// Run is the forward action.
	Run Func[C]

	// Revert is the optional compensating action.
	Revert Func[C]
}

// revertStep derives the step executed during the revert pass.
func (s Step[C]) revertStep() Step[C] {
	return Step[C]{
		Name: s.Name,
		Run:  s.Revert,
	}
}

// StepOption is a functional option for configuring a step added with Workflow.Step.
type StepOption[C any] func(*Step[C])

// WithRevert returns a StepOption that sets the step's compensating action.
//
// Example:
//
//	wf.Step("reserve", reserveStock, saga.WithRevert(releaseStock))
func WithRevert[C any](fn Func[C]) StepOption[C] {
	return func(s *Step[C]) {
		s.Revert = fn
	}
}

// WithFilter returns a StepOption that sets the step's filter.
//
// Example:
//
//	wf.Step("notify", sendEmail, saga.WithFilter(wantsEmail))
func WithFilter[C any](f Filter[C]) StepOption[C] {
	return func(s *Step[C]) {
		s.Filter = f
	}
}

// Filter combinators

// When adapts a plain predicate over the context value into a Filter.
//
// Example:
//
//	saga.When(func(o *Order) bool { return o.Total > 0 })
func When[C any](pred func(C) bool) Filter[C] {
	return func(_ context.Context, c C) (bool, error) {
		return pred(c), nil
	}
}

// Not inverts a filter. Errors are passed through.
func Not[C any](f Filter[C]) Filter[C] {
	return func(ctx context.Context, c C) (bool, error) {
		ok, err := f(ctx, c)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// AllOf combines filters with AND logic, evaluated in order.
// It stops at the first filter returning false or an error.
//
// Example:
//
//	saga.AllOf(hasItems, saga.Not(isDryRun))
func AllOf[C any](filters ...Filter[C]) Filter[C] {
	return func(ctx context.Context, c C) (bool, error) {
		for _, f := range filters {
			ok, err := f(ctx, c)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// AnyOf combines filters with OR logic, evaluated in order.
// It stops at the first filter returning true or an error.
func AnyOf[C any](filters ...Filter[C]) Filter[C] {
	return func(ctx context.Context, c C) (bool, error) {
		for _, f := range filters {
			ok, err := f(ctx, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// protect calls fn and turns a panic into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
