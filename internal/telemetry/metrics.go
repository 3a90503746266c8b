package telemetry

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

const (
	defaultMetricExportInterval = 60 * time.Second
)

var (
	metricsMutex        sync.RWMutex
	globalMeterProvider *sdkmetric.MeterProvider
	globalMeter         metric.Meter
	metricsEnabled      bool

	toolCallsCounter      metric.Int64Counter
	toolDurationHistogram metric.Float64Histogram
	toolErrorsCounter     metric.Int64Counter
	bytesInCounter        metric.Int64Counter
	bytesOutCounter       metric.Int64Counter
)

// InitMetrics initialises the OpenTelemetry meter provider.
// Should be called after InitTracer. Returns a shutdown function.
func InitMetrics(logger *logrus.Logger) (func() error, error) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	noopShutdown := func() error { return nil }

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" || os.Getenv("OTEL_SDK_DISABLED") == "true" {
		logger.Debug("OTEL Metrics: Not configured, using noop meter")
		metricsEnabled = false
		globalMeter = otel.GetMeterProvider().Meter(instrumentationName)
		return noopShutdown, nil
	}

	logger.WithField("endpoint", endpoint).Info("OTEL Metrics: Initialising meter")

	protocol := getOTLPProtocol()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exporter sdkmetric.Exporter
	var err error

	switch protocol {
	case "grpc":
		exporter, err = otlpmetricgrpc.New(ctx)
	case "http/protobuf", "http":
		exporter, err = otlpmetrichttp.New(ctx)
	default:
		logger.WithField("protocol", protocol).Warn("OTEL Metrics: Unknown protocol, defaulting to http")
		exporter, err = otlpmetrichttp.New(ctx)
	}

	if err != nil {
		logger.WithError(err).Warn("OTEL Metrics: Failed to create exporter, falling back to noop meter")
		metricsEnabled = false
		globalMeter = otel.GetMeterProvider().Meter(instrumentationName)
		return noopShutdown, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(getMetricExportInterval(logger)),
		)),
		sdkmetric.WithResource(newResource(ctx, logger)),
	)

	otel.SetMeterProvider(meterProvider)
	globalMeterProvider = meterProvider
	globalMeter = meterProvider.Meter(instrumentationName)

	if err := initMetricInstruments(globalMeter); err != nil {
		logger.WithError(err).Error("OTEL Metrics: Failed to initialise instruments")
		return noopShutdown, err
	}
	metricsEnabled = true

	logger.Info("OTEL Metrics: Meter initialised successfully")

	return func() error {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()

		if globalMeterProvider != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := globalMeterProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("OTEL Metrics: Failed to shutdown meter provider")
				return err
			}
			logger.Debug("OTEL Metrics: Meter provider shutdown successfully")
		}
		return nil
	}, nil
}

// initMetricInstruments creates all metric instruments. Caller holds metricsMutex.
func initMetricInstruments(meter metric.Meter) error {
	var err error

	toolCallsCounter, err = meter.Int64Counter(
		"pdf.tool.calls",
		metric.WithDescription("Total tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	toolDurationHistogram, err = meter.Float64Histogram(
		"pdf.tool.duration",
		metric.WithDescription("Tool execution duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	)
	if err != nil {
		return err
	}

	toolErrorsCounter, err = meter.Int64Counter(
		"pdf.tool.errors",
		metric.WithDescription("Tool errors by category"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	bytesInCounter, err = meter.Int64Counter(
		"pdf.tool.bytes.in",
		metric.WithDescription("Bytes of uploaded documents"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	bytesOutCounter, err = meter.Int64Counter(
		"pdf.tool.bytes.out",
		metric.WithDescription("Bytes of produced documents"),
		metric.WithUnit("By"),
	)
	return err
}

// IsMetricsEnabled returns true if metrics collection is enabled
func IsMetricsEnabled() bool {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return metricsEnabled
}

// GetMeter returns the global meter instance
func GetMeter() metric.Meter {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()

	if globalMeter == nil {
		return otel.GetMeterProvider().Meter(instrumentationName)
	}
	return globalMeter
}

// RecordToolCall records a tool invocation with its duration and transferred bytes
func RecordToolCall(ctx context.Context, toolName, transport string, success bool, durationMs float64, bytesIn, bytesOut int64) {
	if !IsMetricsEnabled() {
		return
	}

	result := "success"
	if !success {
		result = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrTransport, transport),
	)

	toolCallsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrTransport, transport),
		attribute.String("result", result),
	))
	toolDurationHistogram.Record(ctx, durationMs, attrs)
	bytesInCounter.Add(ctx, bytesIn, attrs)
	if success {
		bytesOutCounter.Add(ctx, bytesOut, attrs)
	}
}

// RecordToolError records a categorised tool error
func RecordToolError(ctx context.Context, toolName string, errorType string) {
	if !IsMetricsEnabled() {
		return
	}

	toolErrorsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrToolName, toolName),
			attribute.String(AttrErrorType, errorType),
		),
	)
}

// CategoriseToolError maps errors to metric-friendly categories
func CategoriseToolError(err error) string {
	if err == nil {
		return ""
	}

	if ve, ok := tools.IsValidation(err); ok {
		if ve.Code == tools.CodeFileTooLarge {
			return "too_large"
		}
		return "validation"
	}

	if _, ok := tools.IsParse(err); ok {
		return "parse"
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}

	return "internal"
}

func getMetricExportInterval(logger *logrus.Logger) time.Duration {
	intervalStr := os.Getenv("OTEL_METRIC_EXPORT_INTERVAL")
	if intervalStr == "" {
		return defaultMetricExportInterval
	}

	// Bare numbers are seconds
	duration, err := time.ParseDuration(intervalStr)
	if err != nil {
		duration, err = time.ParseDuration(intervalStr + "s")
		if err != nil {
			logger.WithField("interval", intervalStr).Warn("OTEL Metrics: Invalid export interval, using default")
			return defaultMetricExportInterval
		}
	}

	return duration
}
