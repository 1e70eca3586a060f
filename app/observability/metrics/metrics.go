package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Login outcomes recorded on login_attempts_total.
const (
	OutcomeSuccess     = "success"
	OutcomeBadCreds    = "bad_credentials"
	OutcomeUnavailable = "account_unavailable"
	OutcomeError       = "error"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	LoginAttemptsTotal      metric.Int64Counter
	LoginDurationSeconds    metric.Float64Histogram
	RegisterRequestsTotal   metric.Int64Counter
	RegisterDurationSeconds metric.Float64Histogram
	AuthDecisionsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// NewAppMetrics creates every instrument on meter.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.LoginAttemptsTotal, err = meter.Int64Counter(
		"login_attempts_total",
		metric.WithDescription("Total number of login attempts by provider and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("login_attempts_total: %w", err)
	}

	m.LoginDurationSeconds, err = meter.Float64Histogram(
		"login_duration_seconds",
		metric.WithDescription("Duration of login attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("login_duration_seconds: %w", err)
	}

	m.RegisterRequestsTotal, err = meter.Int64Counter(
		"register_requests_total",
		metric.WithDescription("Total number of register requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("register_requests_total: %w", err)
	}

	m.RegisterDurationSeconds, err = meter.Float64Histogram(
		"register_duration_seconds",
		metric.WithDescription("Duration of register requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("register_duration_seconds: %w", err)
	}

	m.AuthDecisionsTotal, err = meter.Int64Counter(
		"auth_decisions_total",
		metric.WithDescription("Authorization decisions taken by the request gate"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("auth_decisions_total: %w", err)
	}

	return m, nil
}

// InitAppMetrics initializes the global instruments once, from the global
// MeterProvider.
func InitAppMetrics(serviceName string) (*AppMetrics, error) {
	once.Do(func() {
		appMetrics, initErr = NewAppMetrics(otel.GetMeterProvider().Meter(serviceName))
	})
	return appMetrics, initErr
}

// RecordLogin counts one login attempt and its latency. Safe on a nil receiver.
func (m *AppMetrics) RecordLogin(ctx context.Context, provider, outcome string, started time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.LoginAttemptsTotal.Add(ctx, 1, attrs)
	m.LoginDurationSeconds.Record(ctx, time.Since(started).Seconds(), attrs)
}

// RecordRegister counts one registration and its latency. Safe on a nil receiver.
func (m *AppMetrics) RecordRegister(ctx context.Context, outcome string, started time.Time) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.RegisterRequestsTotal.Add(ctx, 1, attrs)
	m.RegisterDurationSeconds.Record(ctx, time.Since(started).Seconds(), attrs)
}

// RecordDecision counts one gate decision. Safe on a nil receiver.
func (m *AppMetrics) RecordDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.AuthDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}
