package nvimui

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/danielgatis/go-nvim-ui"

// engineMetrics holds the OpenTelemetry instruments of one engine.
// Instruments that failed to register are left nil and skipped.
type engineMetrics struct {
	frames         metric.Int64Counter
	frameGrids     metric.Int64Histogram
	ignored        metric.Int64Counter
	violations     metric.Int64Counter
	requestsFailed metric.Int64Counter
}

func newEngineMetrics(mp metric.MeterProvider, logger *slog.Logger) *engineMetrics {
	meter := mp.Meter(instrumentationName)
	m := &engineMetrics{}

	var err error
	if m.frames, err = meter.Int64Counter("nvimui.frames",
		metric.WithDescription("Frames emitted on flush.")); err != nil {
		logger.Warn("failed to create metric", "name", "nvimui.frames", "error", err)
	}
	if m.frameGrids, err = meter.Int64Histogram("nvimui.frame.grids",
		metric.WithDescription("Damaged grids per frame.")); err != nil {
		logger.Warn("failed to create metric", "name", "nvimui.frame.grids", "error", err)
	}
	if m.ignored, err = meter.Int64Counter("nvimui.events.ignored",
		metric.WithDescription("Unrecognised events and notifications.")); err != nil {
		logger.Warn("failed to create metric", "name", "nvimui.events.ignored", "error", err)
	}
	if m.violations, err = meter.Int64Counter("nvimui.protocol.violations",
		metric.WithDescription("Malformed or out-of-range mutations.")); err != nil {
		logger.Warn("failed to create metric", "name", "nvimui.protocol.violations", "error", err)
	}
	if m.requestsFailed, err = meter.Int64Counter("nvimui.requests.failed",
		metric.WithDescription("Requests answered with an error.")); err != nil {
		logger.Warn("failed to create metric", "name", "nvimui.requests.failed", "error", err)
	}
	return m
}

func (m *engineMetrics) frame(ctx context.Context, grids int) {
	if m.frames != nil {
		m.frames.Add(ctx, 1)
	}
	if m.frameGrids != nil {
		m.frameGrids.Record(ctx, int64(grids))
	}
}

func (m *engineMetrics) ignoredEvent(ctx context.Context, kind string) {
	if m.ignored != nil {
		m.ignored.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *engineMetrics) violation(ctx context.Context, event string) {
	if m.violations != nil {
		m.violations.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
}

func (m *engineMetrics) requestFailed(ctx context.Context, method string) {
	if m.requestsFailed != nil {
		m.requestsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
	}
}
