package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Job identifiers, titles, and URLs are deliberately kept out of span
// attributes and metric labels; they are unbounded-cardinality values
// and belong in logs only. Labels here are limited sets: job status
// and delivery channel.

// InstrumentedFunc represents a function that can be instrumented.
type InstrumentedFunc func(ctx context.Context) error

// InstrumentJob wraps one extraction job in a span and records job
// metrics. The classifier maps the returned error to a bounded
// status label.
func (t *Telemetry) InstrumentJob(ctx context.Context, classify func(error) string, fn InstrumentedFunc) error {
	if t == nil || t.tracer == nil {
		return fn(ctx)
	}

	start := time.Now()

	t.IncrementActiveJobs()
	defer t.DecrementActiveJobs()

	ctx, span := t.tracer.Start(ctx, "extraction_job")
	defer span.End()

	err := fn(ctx)
	duration := time.Since(start)

	status := classify(err)
	if err != nil {
		span.SetAttributes(attribute.Bool("error", true))
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Float64("duration_seconds", duration.Seconds()),
	)

	t.RecordJob(status, duration)

	return err
}
