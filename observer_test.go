package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockObserver tracks all observer method calls for testing.
type mockObserver struct {
	mu            sync.Mutex
	events        []string
	errs          map[string]error
	revertCause   *WorkflowError
	executionIDs  []ExecutionID
	panicOnMethod string
}

func newMockObserver() *mockObserver {
	return &mockObserver{errs: make(map[string]error)}
}

func (m *mockObserver) record(ctx context.Context, method, event string, err error) {
	if m.panicOnMethod == method {
		panic("observer panic")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if err != nil {
		m.errs[event] = err
	}
	if id, ok := ExecutionIDFromContext(ctx); ok {
		m.executionIDs = append(m.executionIDs, id)
	}
}

func (m *mockObserver) OnWorkflowStart(ctx context.Context, workflow string) {
	m.record(ctx, "OnWorkflowStart", "workflow.start "+workflow, nil)
}

func (m *mockObserver) OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	m.record(ctx, "OnWorkflowComplete", "workflow.complete "+workflow, err)
}

func (m *mockObserver) OnStepStart(ctx context.Context, step string, phase Phase) {
	m.record(ctx, "OnStepStart", fmt.Sprintf("step.start %s %s", step, phase), nil)
}

func (m *mockObserver) OnStepSkipped(ctx context.Context, step string) {
	m.record(ctx, "OnStepSkipped", "step.skipped "+step, nil)
}

func (m *mockObserver) OnStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error) {
	m.record(ctx, "OnStepComplete", fmt.Sprintf("step.complete %s %s", step, phase), err)
}

func (m *mockObserver) OnRevertStart(ctx context.Context, workflow string, cause *WorkflowError) {
	m.mu.Lock()
	m.revertCause = cause
	m.mu.Unlock()
	m.record(ctx, "OnRevertStart", "revert.start "+workflow, nil)
}

func (m *mockObserver) OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	m.record(ctx, "OnRevertComplete", "revert.complete "+workflow, err)
}

func TestNoopObserver(t *testing.T) {
	t.Run("implements Observer interface", func(t *testing.T) {
		var _ Observer = (*NoopObserver)(nil)
		var _ Observer = (*LogObserver)(nil)
		var _ Observer = (*MetricsObserver)(nil)
	})

	t.Run("all methods are callable", func(t *testing.T) {
		ctx := context.Background()
		n := &NoopObserver{}
		n.OnWorkflowStart(ctx, "wf")
		n.OnWorkflowComplete(ctx, "wf", time.Second, nil)
		n.OnStepStart(ctx, "s", PhaseForward)
		n.OnStepSkipped(ctx, "s")
		n.OnStepComplete(ctx, "s", PhaseRevert, time.Second, nil)
		n.OnRevertStart(ctx, "wf (revert)", &WorkflowError{})
		n.OnRevertComplete(ctx, "wf (revert)", time.Second, nil)
	})
}

func TestWorkflow_WithObserver(t *testing.T) {
	t.Run("adds observers in order", func(t *testing.T) {
		obs1 := newMockObserver()
		obs2 := newMockObserver()

		wf := New[int]("wf").WithObserver(obs1).WithObserver(obs2)

		require.Len(t, wf.observers, 2)
		assert.Same(t, obs1, wf.observers[0])
		assert.Same(t, obs2, wf.observers[1])
	})
}

func TestWorkflow_ObserverIntegration(t *testing.T) {
	noop := func(context.Context, int) error { return nil }

	t.Run("reports a successful execution", func(t *testing.T) {
		obs := newMockObserver()

		_, err := New[int]("wf").
			WithObserver(obs).
			Step("a", noop).
			Step("skipped", noop, WithFilter(When(func(int) bool { return false }))).
			Step("b", noop).
			Execute(context.Background(), 0)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"workflow.start wf",
			"step.start a forward",
			"step.complete a forward",
			"step.start skipped forward",
			"step.skipped skipped",
			"step.start b forward",
			"step.complete b forward",
			"workflow.complete wf",
		}, obs.events)
	})

	t.Run("reports the revert pass", func(t *testing.T) {
		obs := newMockObserver()
		boom := errors.New("boom")
		boomBoom := errors.New("boom boom")

		_, err := New[int]("wf").
			WithObserver(obs).
			Step("a", noop, WithRevert(func(context.Context, int) error { return boomBoom })).
			Step("b", func(context.Context, int) error { return boom }).
			Execute(context.Background(), 0)

		require.Error(t, err)
		assert.Equal(t, []string{
			"workflow.start wf",
			"step.start a forward",
			"step.complete a forward",
			"step.start b forward",
			"step.complete b forward",
			"revert.start wf (revert)",
			"step.start a revert",
			"step.complete a revert",
			"revert.complete wf (revert)",
			"workflow.complete wf",
		}, obs.events)

		assert.Same(t, boom, obs.errs["step.complete b forward"])
		assert.Same(t, boomBoom, obs.errs["step.complete a revert"])
		require.NotNil(t, obs.revertCause)
		assert.Equal(t, "b", obs.revertCause.StepName)

		var revertErr *WorkflowRevertError
		assert.ErrorAs(t, obs.errs["revert.complete wf (revert)"], &revertErr)
		assert.Same(t, err, obs.errs["workflow.complete wf"])
	})

	t.Run("reports a successful revert pass without error", func(t *testing.T) {
		obs := newMockObserver()

		_, err := New[int]("wf").
			WithObserver(obs).
			Step("a", noop, WithRevert(noop)).
			Step("b", func(context.Context, int) error { return errors.New("boom") }).
			Execute(context.Background(), 0)

		require.Error(t, err)
		assert.Contains(t, obs.events, "revert.complete wf (revert)")
		assert.NotContains(t, obs.errs, "revert.complete wf (revert)")
	})

	t.Run("passes the execution ID to every event", func(t *testing.T) {
		obs := newMockObserver()

		_, err := New[int]("wf").WithObserver(obs).Step("a", noop).Execute(context.Background(), 0)

		require.NoError(t, err)
		require.Len(t, obs.executionIDs, len(obs.events))
		for _, id := range obs.executionIDs {
			assert.Equal(t, obs.executionIDs[0], id)
		}
	})

	for _, method := range []string{
		"OnWorkflowStart", "OnWorkflowComplete", "OnStepStart", "OnStepComplete",
		"OnStepSkipped", "OnRevertStart", "OnRevertComplete",
	} {
		t.Run("survives panic in "+method, func(t *testing.T) {
			panicking := newMockObserver()
			panicking.panicOnMethod = method
			healthy := newMockObserver()
			reverted := false

			_, err := New[int]("wf").
				WithObserver(panicking).
				WithObserver(healthy).
				Step("a", noop, WithRevert(func(context.Context, int) error {
					reverted = true
					return nil
				})).
				Step("skipped", noop, WithFilter(When(func(int) bool { return false }))).
				Step("b", func(context.Context, int) error { return errors.New("boom") }).
				Execute(context.Background(), 0)

			var workflowErr *WorkflowError
			require.ErrorAs(t, err, &workflowErr)
			assert.Equal(t, "b", workflowErr.StepName)
			assert.True(t, reverted)
			assert.Len(t, healthy.events, 12)
		})
	}
}
