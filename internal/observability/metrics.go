// Package observability exposes turn and tool metrics through the OTel
// metrics API with a Prometheus exporter.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config configures the metrics collector.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// MetricsCollector records turn-level and tool-level metrics. The zero
// value (and a disabled config) is a safe no-op.
type MetricsCollector struct {
	meter metric.Meter

	turns        metric.Int64Counter
	turnDuration metric.Float64Histogram

	toolExecutions metric.Int64Counter
	toolDuration   metric.Float64Histogram

	rejections metric.Int64Counter
	cacheHits  metric.Int64Counter
}

// NewMetricsCollector wires the OTel meter provider to a Prometheus
// exporter and creates the instruments.
func NewMetricsCollector(config Config) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("tinygpt")

	turns, err := meter.Int64Counter(
		"tinygpt.turns.total",
		metric.WithDescription("Total chat turns by final status"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create turns counter: %w", err)
	}
	turnDuration, err := meter.Float64Histogram(
		"tinygpt.turn.duration",
		metric.WithDescription("Chat turn processing time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create turn duration histogram: %w", err)
	}
	toolExecutions, err := meter.Int64Counter(
		"tinygpt.tool.executions.total",
		metric.WithDescription("Total tool executions by tool and status"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tool executions counter: %w", err)
	}
	toolDuration, err := meter.Float64Histogram(
		"tinygpt.tool.duration",
		metric.WithDescription("Tool execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tool duration histogram: %w", err)
	}
	rejections, err := meter.Int64Counter(
		"tinygpt.admission.rejections.total",
		metric.WithDescription("Requests rejected by the admission gate"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rejections counter: %w", err)
	}
	cacheHits, err := meter.Int64Counter(
		"tinygpt.tool.cache.hits.total",
		metric.WithDescription("Tool results served from the cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache hits counter: %w", err)
	}

	return &MetricsCollector{
		meter:          meter,
		turns:          turns,
		turnDuration:   turnDuration,
		toolExecutions: toolExecutions,
		toolDuration:   toolDuration,
		rejections:     rejections,
		cacheHits:      cacheHits,
	}, nil
}

// Handler returns the Prometheus scrape endpoint.
func (m *MetricsCollector) Handler() http.Handler {
	return promclient.Handler()
}

func (m *MetricsCollector) RecordTurn(status string, d time.Duration) {
	if m.turns == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.turns.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *MetricsCollector) RecordTool(name, status string, d time.Duration) {
	if m.toolExecutions == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("tool_name", name),
		attribute.String("status", status),
	)
	m.toolExecutions.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("tool_name", name)))
}

func (m *MetricsCollector) RecordRejection(class string) {
	if m.rejections == nil {
		return
	}
	m.rejections.Add(context.Background(), 1, metric.WithAttributes(attribute.String("class", class)))
}

func (m *MetricsCollector) RecordCacheHit(toolName string) {
	if m.cacheHits == nil {
		return
	}
	m.cacheHits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tool_name", toolName)))
}
