package telemetry

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WrapHTTPHandler wraps a server handler with OTEL instrumentation.
// The handler is returned unchanged when tracing is disabled.
func WrapHTTPHandler(handler http.Handler) http.Handler {
	if !IsEnabled() {
		return handler
	}

	return otelhttp.NewHandler(handler, SpanNameHTTPServer,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
