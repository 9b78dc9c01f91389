package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/tobbstr/saga"
)

// slogObserver reports workflow progress through slog.
type slogObserver struct {
	saga.NoopObserver
	logger *slog.Logger
}

func newSlogObserver(logger *slog.Logger) *slogObserver {
	return &slogObserver{logger: logger}
}

func (o *slogObserver) with(ctx context.Context) *slog.Logger {
	if id, ok := saga.ExecutionIDFromContext(ctx); ok {
		return o.logger.With("execution_id", string(id))
	}
	return o.logger
}

func (o *slogObserver) OnWorkflowStart(ctx context.Context, workflow string) {
	o.with(ctx).Info("starting workflow", "workflow", workflow)
}

func (o *slogObserver) OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	logger := o.with(ctx).With("workflow", workflow, "duration", duration, "outcome", saga.OutcomeOf(err).String())
	if err != nil {
		logger.Error("workflow failed")
		return
	}
	logger.Info("workflow complete")
}

func (o *slogObserver) OnStepStart(ctx context.Context, step string, phase saga.Phase) {
	o.with(ctx).Info("step", "step", step, "phase", phase.String())
}

func (o *slogObserver) OnStepSkipped(ctx context.Context, step string) {
	o.with(ctx).Info("step skipped", "step", step)
}

func (o *slogObserver) OnStepComplete(ctx context.Context, step string, phase saga.Phase, duration time.Duration, err error) {
	logger := o.with(ctx).With("step", step, "phase", phase.String(), "duration", duration)
	if err != nil {
		logger.Error("step failed", "error", err)
		return
	}
	logger.Debug("step completed")
}

func (o *slogObserver) OnRevertStart(ctx context.Context, workflow string, cause *saga.WorkflowError) {
	o.with(ctx).Warn("reverting", "workflow", workflow, "failed_step", cause.StepName)
}

func (o *slogObserver) OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	logger := o.with(ctx).With("workflow", workflow, "duration", duration)
	if err != nil {
		logger.Error("revert failed", "error", err)
		return
	}
	logger.Info("revert complete")
}
