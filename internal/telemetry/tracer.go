package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "pdf-convert"

var (
	// globalMutex protects access to global tracer variables
	globalMutex          sync.RWMutex
	globalTracer         trace.Tracer
	globalTracerProvider *sdktrace.TracerProvider
	// tools that won't create spans
	disabledTools  map[string]bool
	tracingEnabled bool

	// ServiceVersion is reported as service.version; set from main.
	ServiceVersion = "dev"
)

// otelErrorHandler adapts OTEL SDK errors to our logging system so the SDK
// never writes to stderr, which the stdio transport owns.
type otelErrorHandler struct {
	logger *logrus.Logger
}

func (h *otelErrorHandler) Handle(err error) {
	if err == nil {
		return
	}
	h.logger.WithError(err).Debug("OTEL: SDK error occurred")
}

// InitTracer initialises the OpenTelemetry tracer based on environment variables
// Returns a shutdown function and an error if initialisation fails.
// The application can continue with a noop tracer even if initialisation fails.
func InitTracer(logger *logrus.Logger) (func() error, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	disabledTools = parseDisabledTools()
	if len(disabledTools) > 0 {
		logger.WithField("disabled_tools", disabledTools).Debug("OTEL: Disabled tools configured")
	}

	noopShutdown := func() error { return nil }

	if isDisabled := os.Getenv("OTEL_SDK_DISABLED"); strings.ToLower(isDisabled) == "true" {
		logger.Debug("OTEL: Explicitly disabled via OTEL_SDK_DISABLED")
		globalTracer = noop.NewTracerProvider().Tracer(instrumentationName)
		tracingEnabled = false
		return noopShutdown, nil
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		logger.Debug("OTEL: Not configured (OTEL_EXPORTER_OTLP_ENDPOINT not set), using noop tracer")
		globalTracer = noop.NewTracerProvider().Tracer(instrumentationName)
		tracingEnabled = false
		return noopShutdown, nil
	}

	logger.WithField("endpoint", endpoint).Info("OTEL: Initialising tracer")
	otel.SetErrorHandler(&otelErrorHandler{logger: logger})

	protocol := getOTLPProtocol()
	logger.WithField("protocol", protocol).Debug("OTEL: Using protocol")

	var exporter *otlptrace.Exporter
	var err error

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch protocol {
	case "grpc":
		exporter, err = otlptracegrpc.New(ctx)
	case "http/protobuf", "http":
		exporter, err = otlptracehttp.New(ctx)
	default:
		logger.WithField("protocol", protocol).Warn("OTEL: Unknown protocol, defaulting to http")
		exporter, err = otlptracehttp.New(ctx)
	}

	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create exporter, falling back to noop tracer")
		globalTracer = noop.NewTracerProvider().Tracer(instrumentationName)
		tracingEnabled = false
		return noopShutdown, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(ctx, logger)),
		sdktrace.WithSampler(createSampler(logger)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracer = tp.Tracer(instrumentationName)
	globalTracerProvider = tp
	tracingEnabled = true

	logger.Info("OTEL: Tracer initialised successfully")

	return func() error {
		globalMutex.Lock()
		defer globalMutex.Unlock()

		if globalTracerProvider != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := globalTracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("OTEL: Failed to shutdown tracer provider")
				return fmt.Errorf("failed to shutdown tracer provider: %w", err)
			}
			logger.Debug("OTEL: Tracer provider shutdown successfully")
		}
		return nil
	}, nil
}

func newResource(ctx context.Context, logger *logrus.Logger) *resource.Resource {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getServiceName()),
			semconv.ServiceVersionKey.String(ServiceVersion),
			attribute.String("deployment.environment", getDeploymentEnvironment()),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create resource, using default")
		return resource.Default()
	}
	return res
}

// GetTracer returns the global tracer instance, or a noop tracer if not initialised
func GetTracer() trace.Tracer {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	if globalTracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return globalTracer
}

// IsEnabled returns true if tracing is enabled
func IsEnabled() bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return tracingEnabled
}

// IsToolTracingDisabled returns true if tracing is disabled for the specified tool
// via the PDF_TRACING_DISABLED_TOOLS environment variable
func IsToolTracingDisabled(toolName string) bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return disabledTools[toolName]
}

// ToolSpanInfo describes a tool execution for span attributes.
type ToolSpanInfo struct {
	Tool       string
	Transport  string
	RequestID  string
	InputCount int
	InputBytes int64
}

// StartToolSpan creates a new span for tool execution.
// The caller MUST call EndToolSpan when done.
func StartToolSpan(ctx context.Context, info ToolSpanInfo) (context.Context, trace.Span) {
	if !IsEnabled() || IsToolTracingDisabled(info.Tool) {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := GetTracer().Start(ctx, SpanNameToolExecute,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrToolName, info.Tool),
			attribute.String(AttrTransport, info.Transport),
			attribute.Int(AttrInputCount, info.InputCount),
			attribute.Int64(AttrInputBytes, info.InputBytes),
		),
	)
	if info.RequestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, info.RequestID))
	}

	return ctx, span
}

// EndToolSpan ends a tool execution span with success or error. pages and
// outputBytes describe the produced document and are ignored on error.
func EndToolSpan(span trace.Span, pages int, outputBytes int64, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool(AttrToolSuccess, false),
			attribute.String(AttrToolError, err.Error()),
		)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(
			attribute.Bool(AttrToolSuccess, true),
			attribute.Int(AttrOutputPages, pages),
			attribute.Int64(AttrOutputBytes, outputBytes),
		)
	}

	span.End()
}

func parseDisabledTools() map[string]bool {
	disabled := make(map[string]bool)
	disabledStr := os.Getenv("PDF_TRACING_DISABLED_TOOLS")
	if disabledStr == "" {
		return disabled
	}

	for tool := range strings.SplitSeq(disabledStr, ",") {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			disabled[tool] = true
		}
	}

	return disabled
}

func getOTLPProtocol() string {
	protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	if protocol == "" {
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if strings.Contains(endpoint, ":4317") {
			return "grpc"
		}
		return "http/protobuf"
	}
	return protocol
}

func getServiceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return instrumentationName
}

func getDeploymentEnvironment() string {
	for _, envVar := range []string{"ENVIRONMENT", "ENV", "DEPLOYMENT_ENV"} {
		if env := os.Getenv(envVar); env != "" {
			return env
		}
	}

	if attrs := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); attrs != "" {
		for pair := range strings.SplitSeq(attrs, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if ok && k == "deployment.environment" {
				return v
			}
		}
	}

	return "development"
}

func createSampler(logger *logrus.Logger) sdktrace.Sampler {
	samplerType := os.Getenv("OTEL_TRACES_SAMPLER")
	samplerArg := os.Getenv("OTEL_TRACES_SAMPLER_ARG")

	switch samplerType {
	case "", "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(parseRatio(samplerArg, 1.0))
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseRatio(samplerArg, 1.0)))
	default:
		logger.WithField("sampler", samplerType).Warn("OTEL: Unknown sampler type, using always_on")
		return sdktrace.AlwaysSample()
	}
}

// parseRatio parses a sampling ratio clamped to [0, 1].
func parseRatio(s string, defaultVal float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return defaultVal
	}
	return min(max(f, 0.0), 1.0)
}
