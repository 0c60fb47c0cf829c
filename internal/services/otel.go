package services

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "sheetbridge/internal/services"

var (
	otelOnce sync.Once
	tracer   trace.Tracer
	metrics  *serviceMetrics
)

// serviceMetrics counts the workflow's pipeline operations. Instruments
// are created lazily from the global meter so tests that never install a
// provider get the no-op implementations.
type serviceMetrics struct {
	uploads     metric.Int64Counter
	suggestions metric.Int64Counter
	projections metric.Int64Counter
	reports     metric.Int64Counter
}

func instrumentation() (trace.Tracer, *serviceMetrics) {
	otelOnce.Do(func() {
		tracer = otel.Tracer(instrumentationName)
		meter := otel.Meter(instrumentationName)

		m := &serviceMetrics{}
		m.uploads, _ = meter.Int64Counter("sheetbridge.uploads.total",
			metric.WithDescription("Workbook uploads accepted"))
		m.suggestions, _ = meter.Int64Counter("sheetbridge.mapping.suggestions.total",
			metric.WithDescription("Correspondence suggestions computed"))
		m.projections, _ = meter.Int64Counter("sheetbridge.projections.total",
			metric.WithDescription("Tables projected onto a target schema"))
		m.reports, _ = meter.Int64Counter("sheetbridge.attendance.reports.total",
			metric.WithDescription("Attendance reports generated"))
		metrics = m
	})
	return tracer, metrics
}
