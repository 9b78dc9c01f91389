package saga

import "context"

// AsStep converts a workflow into a Step that can be used in other workflows.
// The workflow's name is used as the step name.
//
// The nested workflow compensates its own steps when it fails; the parent then sees the nested
// error as the step's failure and runs its own revert pass. The returned step has no Revert; set
// one on the returned value to compensate a nested workflow that completed.
//
// Example:
//
//	payment := saga.New[*Order]("payment").
//		Step("authorize", authorize, saga.WithRevert(void)).
//		Step("capture", capture)
//
//	checkout := saga.New[*Order]("checkout").
//		Step("reserve", reserveStock, saga.WithRevert(releaseStock)).
//		Add(payment.AsStep()).
//		Step("ship", ship)
func (w *Workflow[C]) AsStep() Step[C] {
	return Step[C]{
		Name: w.name,
		Run: func(ctx context.Context, c C) error {
			_, err := w.Execute(ctx, c)
			return err
		},
	}
}
