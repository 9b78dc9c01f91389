package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestNewLogObserver(t *testing.T) {
	t.Run("nil logger falls back to nop", func(t *testing.T) {
		l := NewLogObserver(nil)
		require.NotNil(t, l.logger)
		l.OnWorkflowStart(context.Background(), "wf")
	})
}

func TestLogObserver(t *testing.T) {
	noop := func(context.Context, int) error { return nil }

	t.Run("logs a successful execution", func(t *testing.T) {
		core, logs := zapobserver.New(zapcore.DebugLevel)

		_, err := New[int]("wf").
			WithLogger(zap.New(core)).
			Step("a", noop).
			Step("skipped", noop, WithFilter(When(func(int) bool { return false }))).
			Execute(context.Background(), 0)
		require.NoError(t, err)

		var messages []string
		for _, entry := range logs.All() {
			messages = append(messages, entry.Message)
			assert.Contains(t, entry.ContextMap(), "execution_id")
		}
		assert.Equal(t, []string{
			"starting workflow",
			"step",
			"step completed",
			"step",
			"step skipped by filter",
			"workflow complete",
		}, messages)

		complete := logs.FilterMessage("workflow complete").All()
		require.Len(t, complete, 1)
		assert.Equal(t, "completed", complete[0].ContextMap()["outcome"])
		assert.Equal(t, "wf", complete[0].ContextMap()["workflow"])
	})

	t.Run("logs failure and revert", func(t *testing.T) {
		core, logs := zapobserver.New(zapcore.InfoLevel)

		_, err := New[int]("wf").
			WithLogger(zap.New(core)).
			Step("a", noop, WithRevert(noop)).
			Step("b", func(context.Context, int) error { return errors.New("boom") }).
			Execute(context.Background(), 0)
		require.Error(t, err)

		failed := logs.FilterMessage("step failed").All()
		require.Len(t, failed, 1)
		assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
		assert.Equal(t, "b", failed[0].ContextMap()["step"])
		assert.Equal(t, "boom", failed[0].ContextMap()["error"])

		reverting := logs.FilterMessage("reverting workflow").All()
		require.Len(t, reverting, 1)
		assert.Equal(t, zapcore.WarnLevel, reverting[0].Level)
		assert.Equal(t, "wf (revert)", reverting[0].ContextMap()["workflow"])
		assert.Equal(t, "b", reverting[0].ContextMap()["failed_step"])

		assert.Equal(t, 1, logs.FilterMessage("revert complete").Len())

		workflowFailed := logs.FilterMessage("workflow failed").All()
		require.Len(t, workflowFailed, 1)
		assert.Equal(t, "failed", workflowFailed[0].ContextMap()["outcome"])
	})

	t.Run("logs revert failure", func(t *testing.T) {
		core, logs := zapobserver.New(zapcore.InfoLevel)

		_, err := New[int]("wf").
			WithLogger(zap.New(core)).
			Step("a", noop, WithRevert(func(context.Context, int) error { return errors.New("boom boom") })).
			Step("b", func(context.Context, int) error { return errors.New("boom") }).
			Execute(context.Background(), 0)
		require.Error(t, err)

		assert.Equal(t, 1, logs.FilterMessage("revert failed").Len())
		workflowFailed := logs.FilterMessage("workflow failed").All()
		require.Len(t, workflowFailed, 1)
		assert.Equal(t, "revert_failed", workflowFailed[0].ContextMap()["outcome"])
	})
}
