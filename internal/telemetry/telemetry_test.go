package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SDK_DISABLED", "")

	shutdown, err := InitTracer(quietLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown()) }()

	assert.False(t, IsEnabled())
	assert.NotNil(t, GetTracer())

	ctx, span := StartToolSpan(context.Background(), ToolSpanInfo{Tool: "merge", Transport: "http"})
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	EndToolSpan(span, 3, 100, nil)
}

func TestInitTracer_ExplicitlyDisabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
	t.Setenv("OTEL_SDK_DISABLED", "true")

	shutdown, err := InitTracer(quietLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown()) }()

	assert.False(t, IsEnabled())
}

func TestInitMetrics_NoEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := InitMetrics(quietLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown()) }()

	assert.False(t, IsMetricsEnabled())
	assert.NotNil(t, GetMeter())

	// Recording without instruments must be a no-op.
	RecordToolCall(context.Background(), "merge", "http", true, 12.5, 100, 200)
	RecordToolError(context.Background(), "merge", "internal")
}

func TestWrapHTTPHandler_Disabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	_, err := InitTracer(quietLogger())
	require.NoError(t, err)

	called := false
	h := WrapHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCategoriseToolError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: tools.NewValidationError(tools.CodeNoValidPages, "No valid pages to extract"), want: "validation"},
		{name: "too large", err: tools.NewValidationError(tools.CodeFileTooLarge, "too big"), want: "too_large"},
		{name: "wrapped parse", err: fmt.Errorf("merge: %w", &tools.ParseError{Name: "a.pdf", Err: errors.New("bad xref")}), want: "parse"},
		{name: "cancelled", err: fmt.Errorf("split: %w", context.Canceled), want: "cancelled"},
		{name: "other", err: errors.New("disk full"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoriseToolError(tt.err))
		})
	}
}

func TestGetOTLPProtocol(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
	assert.Equal(t, "grpc", getOTLPProtocol())

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	assert.Equal(t, "http/protobuf", getOTLPProtocol())

	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	assert.Equal(t, "grpc", getOTLPProtocol())
}

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 0.25, parseRatio("0.25", 1))
	assert.Equal(t, 1.0, parseRatio("7", 0.5))
	assert.Equal(t, 0.0, parseRatio("-1", 0.5))
	assert.Equal(t, 0.5, parseRatio("nope", 0.5))
}
