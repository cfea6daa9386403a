package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// Registry holds all domain-specific metrics for the normative engine.
type Registry struct {
	meter metric.Meter

	// Framework metrics
	RegistrationCounter metric.Int64Counter
	ActiveFrameworks    metric.Int64ObservableGauge

	// Conflict detection metrics
	ConflictScanDuration metric.Float64Histogram
	ConflictsFound       metric.Int64Counter

	// Assessment metrics
	AssessmentDuration metric.Float64Histogram
	AssessmentCounter  metric.Int64Counter

	// API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCounter  metric.Int64Counter

	// State for observable metrics
	mu               sync.RWMutex
	activeFrameworks int64
}

// NewRegistry creates a new metrics registry.
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{meter: meter}

	var err error

	r.RegistrationCounter, err = meter.Int64Counter(
		"nce.framework.registrations",
		metric.WithDescription("Total framework registrations accepted"),
	)
	if err != nil {
		return nil, err
	}

	r.ActiveFrameworks, err = meter.Int64ObservableGauge(
		"nce.framework.active",
		metric.WithDescription("Number of active frameworks"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeFrameworks)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	r.ConflictScanDuration, err = meter.Float64Histogram(
		"nce.conflict.scan_duration",
		metric.WithDescription("Duration of conflict detection scans in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return nil, err
	}

	r.ConflictsFound, err = meter.Int64Counter(
		"nce.conflict.found",
		metric.WithDescription("Total conflicts found by detection scans"),
	)
	if err != nil {
		return nil, err
	}

	r.AssessmentDuration, err = meter.Float64Histogram(
		"nce.assessment.duration",
		metric.WithDescription("Duration of compliance assessments in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500),
	)
	if err != nil {
		return nil, err
	}

	r.AssessmentCounter, err = meter.Int64Counter(
		"nce.assessment.completed",
		metric.WithDescription("Total compliance assessments completed"),
	)
	if err != nil {
		return nil, err
	}

	r.APIRequestDuration, err = meter.Float64Histogram(
		"nce.api.request_duration",
		metric.WithDescription("Duration of API requests in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return nil, err
	}

	r.APIRequestCounter, err = meter.Int64Counter(
		"nce.api.requests",
		metric.WithDescription("Total API requests"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// RecordRegistration records an accepted framework registration.
func (r *Registry) RecordRegistration(ctx context.Context) {
	r.RegistrationCounter.Add(ctx, 1)

	r.mu.Lock()
	r.activeFrameworks++
	r.mu.Unlock()
}

// RecordConflictScan records the outcome of a conflict detection scan.
func (r *Registry) RecordConflictScan(ctx context.Context, conflicts int, elapsed time.Duration) {
	r.ConflictScanDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0)
	if conflicts > 0 {
		r.ConflictsFound.Add(ctx, int64(conflicts))
	}
}

// RecordAssessment records a completed compliance assessment.
func (r *Registry) RecordAssessment(ctx context.Context, status normative.ComplianceStatus, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status.String()))
	r.AssessmentCounter.Add(ctx, 1, attrs)
	r.AssessmentDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

// RecordAPIRequest records an API request with its route, status, and latency.
func (r *Registry) RecordAPIRequest(ctx context.Context, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	r.APIRequestCounter.Add(ctx, 1, attrs)
	r.APIRequestDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}
