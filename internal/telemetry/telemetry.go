package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry holds the metric instruments and providers. A disabled
// Telemetry is a no-op everywhere, so callers never need to guard
// their instrumentation calls.
type Telemetry struct {
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
	meter         metric.Meter
	exporter      *prometheus.Exporter

	jobsTotal   metric.Int64Counter
	jobsActive  metric.Int64UpDownCounter
	jobDuration metric.Float64Histogram

	deliveriesTotal metric.Int64Counter
	bytesDelivered  metric.Int64Counter
}

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

// New creates a new telemetry instance backed by a Prometheus
// exporter, and starts Go runtime metrics collection.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	t := &Telemetry{
		meterProvider: meterProvider,
		tracer:        otel.Tracer(cfg.ServiceName),
		meter:         otel.Meter(cfg.ServiceName),
		exporter:      exporter,
	}

	if err := t.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		return nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	return t, nil
}

// Tracer returns the OpenTelemetry tracer.
func (t *Telemetry) Tracer() trace.Tracer {
	return t.tracer
}

// RecordJob records one finished extraction job.
func (t *Telemetry) RecordJob(status string, duration time.Duration) {
	if t.jobsTotal != nil {
		t.jobsTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("status", status)),
		)
	}

	if t.jobDuration != nil {
		t.jobDuration.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(attribute.String("status", status)),
		)
	}
}

// IncrementActiveJobs increments the active jobs counter.
func (t *Telemetry) IncrementActiveJobs() {
	if t.jobsActive != nil {
		t.jobsActive.Add(context.Background(), 1)
	}
}

// DecrementActiveJobs decrements the active jobs counter.
func (t *Telemetry) DecrementActiveJobs() {
	if t.jobsActive != nil {
		t.jobsActive.Add(context.Background(), -1)
	}
}

// RecordDelivery records one delivery attempt on a channel.
func (t *Telemetry) RecordDelivery(channel, status string, bytes int64) {
	if t.deliveriesTotal != nil {
		t.deliveriesTotal.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("channel", channel),
				attribute.String("status", status),
			),
		)
	}

	if status == "success" && t.bytesDelivered != nil {
		t.bytesDelivered.Add(context.Background(), bytes,
			metric.WithAttributes(attribute.String("channel", channel)),
		)
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	if t.exporter == nil {
		return http.NotFoundHandler()
	}

	return promhttp.Handler()
}

// Shutdown gracefully shuts down the telemetry system.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		return mp.Shutdown(ctx)
	}

	return nil
}

func (t *Telemetry) initializeMetrics() error {
	var err error

	t.jobsTotal, err = t.meter.Int64Counter(
		"extraction_jobs_total",
		metric.WithDescription("Total number of extraction jobs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction_jobs_total counter: %w", err)
	}

	t.jobsActive, err = t.meter.Int64UpDownCounter(
		"extraction_jobs_active",
		metric.WithDescription("Number of extraction jobs currently running"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction_jobs_active counter: %w", err)
	}

	t.jobDuration, err = t.meter.Float64Histogram(
		"extraction_job_duration_seconds",
		metric.WithDescription("Extraction job duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create extraction_job_duration histogram: %w", err)
	}

	t.deliveriesTotal, err = t.meter.Int64Counter(
		"deliveries_total",
		metric.WithDescription("Total number of delivery attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create deliveries_total counter: %w", err)
	}

	t.bytesDelivered, err = t.meter.Int64Counter(
		"bytes_delivered_total",
		metric.WithDescription("Total bytes handed to the chat transport"),
		metric.WithUnit("bytes"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bytes_delivered counter: %w", err)
	}

	return nil
}
