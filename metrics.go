package saga

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver is an Observer that records Prometheus metrics.
//
// Example:
//
//	metrics := saga.NewMetricsObserver(prometheus.DefaultRegisterer, "orders")
//	wf := saga.New[*Order]("place-order").WithObserver(metrics)
type MetricsObserver struct {
	workflowsTotal   *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	stepsTotal       *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	stepsSkipped     *prometheus.CounterVec
	revertsTotal     *prometheus.CounterVec
}

// NewMetricsObserver creates the metrics and registers them with reg.
// A nil reg leaves the metrics unregistered. Registering twice with the same
// registerer and namespace panics.
func NewMetricsObserver(reg prometheus.Registerer, namespace string) *MetricsObserver {
	factory := promauto.With(reg)

	return &MetricsObserver{
		workflowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_executions_total",
				Help:      "Total number of workflow executions by outcome",
			},
			[]string{"workflow", "outcome"},
		),
		workflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Workflow execution duration in seconds, including the revert pass",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_executions_total",
				Help:      "Total number of step actions executed",
			},
			[]string{"step", "phase", "status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Step action duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"step", "phase"},
		),
		stepsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_skipped_total",
				Help:      "Total number of steps skipped by their filter",
			},
			[]string{"step"},
		),
		revertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reverts_total",
				Help:      "Total number of revert passes by status",
			},
			[]string{"workflow", "status"},
		),
	}
}

// OnWorkflowStart implements Observer.
func (m *MetricsObserver) OnWorkflowStart(ctx context.Context, workflow string) {}

// OnWorkflowComplete implements Observer.
func (m *MetricsObserver) OnWorkflowComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	m.workflowsTotal.WithLabelValues(workflow, OutcomeOf(err).String()).Inc()
	m.workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

// OnStepStart implements Observer.
func (m *MetricsObserver) OnStepStart(ctx context.Context, step string, phase Phase) {}

// OnStepSkipped implements Observer.
func (m *MetricsObserver) OnStepSkipped(ctx context.Context, step string) {
	m.stepsSkipped.WithLabelValues(step).Inc()
}

// OnStepComplete implements Observer.
func (m *MetricsObserver) OnStepComplete(ctx context.Context, step string, phase Phase, duration time.Duration, err error) {
	m.stepsTotal.WithLabelValues(step, phase.String(), status(err)).Inc()
	m.stepDuration.WithLabelValues(step, phase.String()).Observe(duration.Seconds())
}

// OnRevertStart implements Observer.
func (m *MetricsObserver) OnRevertStart(ctx context.Context, workflow string, cause *WorkflowError) {}

// OnRevertComplete implements Observer.
func (m *MetricsObserver) OnRevertComplete(ctx context.Context, workflow string, duration time.Duration, err error) {
	m.revertsTotal.WithLabelValues(workflow, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
