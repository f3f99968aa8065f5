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

// Metrics exposes application-level instruments for the debt ledger.
type Metrics struct {
	statementRequests  metric.Int64Counter
	cycleRequests      metric.Int64Counter
	recalculations     metric.Int64Counter
	discrepanciesFixed metric.Int64Counter
	discrepancyAmount  metric.Int64Histogram
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

	return provider, nil
}

// New configures the domain metric instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "debtbook"
	}
	meter := provider.Meter(name)

	statementRequests, err := meter.Int64Counter("debtbook_statement_requests_total")
	if err != nil {
		return nil, err
	}
	cycleRequests, err := meter.Int64Counter("debtbook_cycle_requests_total")
	if err != nil {
		return nil, err
	}
	recalculations, err := meter.Int64Counter("debtbook_recalculations_total")
	if err != nil {
		return nil, err
	}
	discrepanciesFixed, err := meter.Int64Counter("debtbook_discrepancies_fixed_total")
	if err != nil {
		return nil, err
	}
	discrepancyAmount, err := meter.Int64Histogram("debtbook_discrepancy_amount")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		statementRequests:  statementRequests,
		cycleRequests:      cycleRequests,
		recalculations:     recalculations,
		discrepanciesFixed: discrepanciesFixed,
		discrepancyAmount:  discrepancyAmount,
	}, nil
}

// RecordStatementRequest counts statement builds.
func (m *Metrics) RecordStatementRequest(ctx context.Context, filtered bool) {
	if m == nil {
		return
	}
	m.statementRequests.Add(ctx, 1, metric.WithAttributes(attribute.Bool("filtered", filtered)))
}

// RecordCycleRequest counts debt-cycle segmentations.
func (m *Metrics) RecordCycleRequest(ctx context.Context) {
	if m == nil {
		return
	}
	m.cycleRequests.Add(ctx, 1)
}

// RecordRecalculation counts balance recomputations by outcome.
func (m *Metrics) RecordRecalculation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.recalculations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", strings.TrimSpace(outcome))))
}

// RecordDiscrepancyFixed counts opening-balance corrections and observes the
// absolute amount applied.
func (m *Metrics) RecordDiscrepancyFixed(ctx context.Context, amount int64) {
	if m == nil {
		return
	}
	m.discrepanciesFixed.Add(ctx, 1)
	if amount < 0 {
		amount = -amount
	}
	m.discrepancyAmount.Record(ctx, amount)
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
