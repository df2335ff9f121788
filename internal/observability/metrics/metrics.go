package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	readingIngest    metric.Int64Counter
	goalEvaluations  metric.Int64Counter
	alertsOpened     metric.Int64Counter
	alertsAcked      metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "homewatt"
	}
	meter := provider.Meter(name)

	readingIngest, err := meter.Int64Counter("homewatt_reading_ingest_total")
	if err != nil {
		return nil, err
	}
	goalEvaluations, err := meter.Int64Counter("homewatt_goal_evaluations_total")
	if err != nil {
		return nil, err
	}
	alertsOpened, err := meter.Int64Counter("homewatt_alerts_opened_total")
	if err != nil {
		return nil, err
	}
	alertsAcked, err := meter.Int64Counter("homewatt_alerts_acknowledged_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("homewatt_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("homewatt_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		readingIngest:    readingIngest,
		goalEvaluations:  goalEvaluations,
		alertsOpened:     alertsOpened,
		alertsAcked:      alertsAcked,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordReadingIngest increments reading ingest counts.
func (m *Metrics) RecordReadingIngest(ctx context.Context, meterType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("meter_type", strings.TrimSpace(meterType)))
	m.readingIngest.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGoalEvaluation increments goal evaluation counts.
func (m *Metrics) RecordGoalEvaluation(ctx context.Context, meterType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("meter_type", strings.TrimSpace(meterType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.goalEvaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAlertOpened increments opened alert counts.
func (m *Metrics) RecordAlertOpened(ctx context.Context, meterType, period string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("meter_type", strings.TrimSpace(meterType)),
		attribute.String("period", strings.TrimSpace(period)),
	)
	m.alertsOpened.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAlertAcknowledged increments acknowledged alert counts.
func (m *Metrics) RecordAlertAcknowledged(ctx context.Context) {
	if m == nil {
		return
	}
	m.alertsAcked.Add(ctx, 1)
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, householdID, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("household_id", strings.TrimSpace(householdID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, householdID, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("household_id", strings.TrimSpace(householdID)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"household_id": {},
	"endpoint":     {},
	"status_code":  {},
	"meter_type":   {},
	"period":       {},
	"outcome":      {},
	"reason":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
