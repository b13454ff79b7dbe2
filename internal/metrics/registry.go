// Package metrics holds the application's OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Ledger metrics
	PaymentCounter      metric.Int64Counter
	PaymentAmount       metric.Float64Histogram
	CancellationCounter metric.Int64Counter

	// API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCounter  metric.Int64Counter
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{meter: otel.Meter(meterName)}

	var err error
	if r.PaymentCounter, err = r.meter.Int64Counter(
		"ledger.payments.recorded",
		metric.WithDescription("Number of payments recorded into day reports"),
	); err != nil {
		return nil, fmt.Errorf("creating payment counter: %w", err)
	}

	if r.PaymentAmount, err = r.meter.Float64Histogram(
		"ledger.payments.amount",
		metric.WithDescription("Signed total amount of recorded payments"),
	); err != nil {
		return nil, fmt.Errorf("creating payment amount histogram: %w", err)
	}

	if r.CancellationCounter, err = r.meter.Int64Counter(
		"ledger.payments.cancelled",
		metric.WithDescription("Number of payments removed from day reports"),
	); err != nil {
		return nil, fmt.Errorf("creating cancellation counter: %w", err)
	}

	if r.APIRequestDuration, err = r.meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("API request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating request duration histogram: %w", err)
	}

	if r.APIRequestCounter, err = r.meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests"),
	); err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return r, nil
}

// RecordPayment implements ledger.MetricsCollector
func (r *Registry) RecordPayment(ctx context.Context, purpose string, amount float64) {
	attrs := metric.WithAttributes(attribute.String("purpose", purpose))
	r.PaymentCounter.Add(ctx, 1, attrs)
	r.PaymentAmount.Record(ctx, amount, attrs)
}

// RecordCancellation implements ledger.MetricsCollector
func (r *Registry) RecordCancellation(ctx context.Context) {
	r.CancellationCounter.Add(ctx, 1)
}

// RecordAPIRequest records one handled HTTP request
func (r *Registry) RecordAPIRequest(ctx context.Context, method, route string, status int, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	r.APIRequestCounter.Add(ctx, 1, attrs)
	r.APIRequestDuration.Record(ctx, seconds, attrs)
}
