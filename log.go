package saga

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogObserver is an Observer that writes structured log entries with zap.
// Every entry carries the execution ID.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil logger disables logging.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

// WithLogger adds a LogObserver writing to logger.
//
// Example:
//
//	wf := saga.New[*Order]("place-order").
//		WithLogger(zap.L().Named("orders"))
func (w *Workflow[C]) WithLogger(logger *zap.Logger) *Workflow[C] {
	return w.WithObserver(NewLogObserver(logger))
}

func (l *LogObserver) with(ctx context.Context) *zap.Logger {
	if id, ok := ExecutionIDFromContext(ctx); ok {
		return l.logger.With(zap.String("execution_id", string(id)))
	}
	return l.logger
}

// OnWorkflowStart implements Observer.
func (l *LogObserver) OnWorkflowStart(ctx context.Context, workflow string) {
	l.with(ctx).Info("starting workflow", zap.String("workflow", workflow))
}

// OnWorkflowComplete implements Observer.
func (l *LogObserver) OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("workflow", workflow),
		zap.Duration("duration", duration),
		zap.Stringer("outcome", OutcomeOf(err)),
	}
	if err != nil {
		l.with(ctx).Error("workflow failed", append(fields, zap.Error(err))...)
		return
	}
	l.with(ctx).Info("workflow complete", fields...)
}

// OnStepStart implements Observer.
func (l *LogObserver) OnStepStart(ctx context.Context, step string, phase Phase) {
	l.with(ctx).Info("step", zap.String("step", step), zap.Stringer("phase", phase))
}

// OnStepSkipped implements Observer.
func (l *LogObserver) OnStepSkipped(ctx context.Context, step string) {
	l.with(ctx).Info("step skipped by filter", zap.String("step", step))
}

// OnStepComplete implements Observer.
func (l *LogObserver) OnStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("step", step),
		zap.Stringer("phase", phase),
		zap.Duration("duration", duration),
	}
	if err != nil {
		l.with(ctx).Error("step failed", append(fields, zap.Error(err))...)
		return
	}
	l.with(ctx).Debug("step completed", fields...)
}

// OnRevertStart implements Observer.
func (l *LogObserver) OnRevertStart(ctx context.Context, workflow string, cause *WorkflowError) {
	l.with(ctx).Warn("reverting workflow",
		zap.String("workflow", workflow),
		zap.String("failed_step", cause.StepName),
		zap.NamedError("cause", cause.Err),
	)
}

// OnRevertComplete implements Observer.
func (l *LogObserver) OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	if err != nil {
		l.with(ctx).Error("revert failed",
			zap.String("workflow", workflow),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	l.with(ctx).Info("revert complete", zap.String("workflow", workflow), zap.Duration("duration", duration))
}
