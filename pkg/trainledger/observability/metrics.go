package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records lifecycle metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRunAllocated records a run identifier allocation.
	RecordRunAllocated(ctx context.Context, family, strategy string)

	// RecordResolution records a lifecycle decision and how long it took.
	RecordResolution(ctx context.Context, family, state string, duration time.Duration)

	// RecordCheckpoint records a checkpoint save operation.
	RecordCheckpoint(ctx context.Context, family string, sizeBytes int64, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	runsAllocated    metric.Int64Counter
	resolutions      metric.Int64Counter
	resolveLatency   metric.Float64Histogram
	checkpointsSaved metric.Int64Counter
	checkpointErrors metric.Int64Counter
	checkpointSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("trainledger")

	runsAllocated, err := meter.Int64Counter("trainledger.runs.allocated",
		metric.WithDescription("Number of run identifiers allocated"),
	)
	if err != nil {
		return nil, err
	}

	resolutions, err := meter.Int64Counter("trainledger.resolutions",
		metric.WithDescription("Number of lifecycle decisions by resulting state"),
	)
	if err != nil {
		return nil, err
	}

	resolveLatency, err := meter.Float64Histogram("trainledger.resolve.latency_ms",
		metric.WithDescription("Lifecycle decision latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointsSaved, err := meter.Int64Counter("trainledger.checkpoints.saved",
		metric.WithDescription("Number of checkpoints written"),
	)
	if err != nil {
		return nil, err
	}

	checkpointErrors, err := meter.Int64Counter("trainledger.checkpoints.errors",
		metric.WithDescription("Number of rejected or failed checkpoint writes"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("trainledger.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		runsAllocated:    runsAllocated,
		resolutions:      resolutions,
		resolveLatency:   resolveLatency,
		checkpointsSaved: checkpointsSaved,
		checkpointErrors: checkpointErrors,
		checkpointSize:   checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordRunAllocated records a run allocation.
func (m *otelMetrics) RecordRunAllocated(ctx context.Context, family, strategy string) {
	m.runsAllocated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("family", family),
		attribute.String("strategy", strategy),
	))
}

// RecordResolution records a lifecycle decision.
func (m *otelMetrics) RecordResolution(ctx context.Context, family, state string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("family", family),
		attribute.String("state", state),
	)
	m.resolutions.Add(ctx, 1, attrs)
	m.resolveLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordCheckpoint records a checkpoint save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, family string, sizeBytes int64, err error) {
	attrs := metric.WithAttributes(attribute.String("family", family))
	if err != nil {
		m.checkpointErrors.Add(ctx, 1, attrs)
		return
	}
	m.checkpointsSaved.Add(ctx, 1, attrs)
	m.checkpointSize.Record(ctx, sizeBytes, attrs)
}
