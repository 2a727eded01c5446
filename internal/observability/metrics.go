package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/loginform/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

type AppMetrics struct {
	loginSubmitCounter     metric.Int64Counter
	loginRequestDuration   metric.Float64Histogram
	loginValidationCounter metric.Int64Counter
	loginResponseCounter   metric.Int64Counter
	stubRequestCounter     metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Debug("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "login.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	if err := RegisterMetrics(mp); err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

// RegisterMetrics creates the application instruments on provider and makes
// the Record helpers emit to them.
func RegisterMetrics(provider metric.MeterProvider) error {
	meter := provider.Meter(instrumentationName)
	submitCounter, err := meter.Int64Counter("login.submit.attempts", metric.WithDescription("Login form submissions by outcome"))
	if err != nil {
		return err
	}
	reqDuration, err := meter.Float64Histogram("login.request.duration", metric.WithUnit("s"), metric.WithDescription("Duration of outbound login requests in seconds"))
	if err != nil {
		return err
	}
	validationCounter, err := meter.Int64Counter("login.validation.failures")
	if err != nil {
		return err
	}
	responseCounter, err := meter.Int64Counter("login.http.responses")
	if err != nil {
		return err
	}
	stubCounter, err := meter.Int64Counter("loginstub.requests")
	if err != nil {
		return err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		loginSubmitCounter:     submitCounter,
		loginRequestDuration:   reqDuration,
		loginValidationCounter: validationCounter,
		loginResponseCounter:   responseCounter,
		stubRequestCounter:     stubCounter,
	}
	metricsMu.Unlock()
	return nil
}

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordLoginSubmit(ctx context.Context, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loginSubmitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordLoginRequestDuration(ctx context.Context, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loginRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordLoginValidationFailure(ctx context.Context, rule string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loginValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}

// RecordLoginResponse counts responses by status class ("2xx", "4xx", ...) or
// "transport_error" when no response arrived.
func RecordLoginResponse(ctx context.Context, statusClass string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loginResponseCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status_class", statusClass)))
}

func RecordStubRequest(ctx context.Context, route string, status int) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.stubRequestCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("status_class", StatusClass(status)),
		),
	)
}

func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}
