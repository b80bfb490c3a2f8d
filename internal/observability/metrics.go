package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTreesTotal    = "treefeed.trees.total"
	metricWindowsTotal  = "treefeed.windows.total"
	metricErrorsTotal   = "treefeed.errors.total"
	metricStageDuration = "treefeed.stage.duration.seconds"
	metricInflightTrees = "treefeed.inflight.trees"

	attrOp     = "op"
	attrStatus = "status"
)

// Statuses recorded on the trees counter.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s for preparation stages
// that range from sub-second single files to multi-minute corpora.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// PipelineMetrics holds the OTel instruments for the preparation pipeline.
type PipelineMetrics struct {
	treesTotal    metric.Int64Counter
	windowsTotal  metric.Int64Counter
	errorsTotal   metric.Int64Counter
	stageDuration metric.Float64Histogram
	inflightTrees metric.Int64UpDownCounter
}

// NewPipelineMetrics creates pipeline metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		treesTotal:    b.counter(metricTreesTotal, "Total number of trees processed", "{tree}"),
		windowsTotal:  b.counter(metricWindowsTotal, "Total number of windows emitted", "{window}"),
		errorsTotal:   b.counter(metricErrorsTotal, "Total number of errors", "{error}"),
		stageDuration: b.histogram(metricStageDuration, "Stage duration in seconds", "s", durationBucketBoundaries...),
		inflightTrees: b.upDownCounter(metricInflightTrees, "Number of trees being processed", "{tree}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordTree records a processed tree with its operation and status.
func (pm *PipelineMetrics) RecordTree(ctx context.Context, op, status string) {
	pm.treesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	))

	if status == StatusError {
		pm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// AddWindows records windows emitted by the given operation.
func (pm *PipelineMetrics) AddWindows(ctx context.Context, op string, n int64) {
	pm.windowsTotal.Add(ctx, n, metric.WithAttributes(
		attribute.String(attrOp, op),
	))
}

// RecordStage records a completed stage with its operation and duration.
func (pm *PipelineMetrics) RecordStage(ctx context.Context, op string, duration time.Duration) {
	pm.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrOp, op),
	))
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (pm *PipelineMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	pm.inflightTrees.Add(ctx, 1, attrs)

	return func() {
		pm.inflightTrees.Add(ctx, -1, attrs)
	}
}
