package registry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/telemetry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// Transport names reported in logs, spans and the error log.
const (
	TransportHTTP  = "http"
	TransportCLI   = "cli"
	TransportStdio = "stdio"
)

// Invocation identifies who is running a tool.
type Invocation struct {
	Transport string
	RequestID string
}

// Execute runs tool inside a span, records call metrics and appends failures
// to the tool error log. Every transport calls tools through here.
func Execute(ctx context.Context, tool tools.Tool, req *tools.Request, inv Invocation) (*tools.Result, error) {
	name := tool.Definition().Name
	log := GetLogger()
	if log == nil {
		log = logrus.StandardLogger()
	}

	ctx, span := telemetry.StartToolSpan(ctx, telemetry.ToolSpanInfo{
		Tool:       name,
		Transport:  inv.Transport,
		RequestID:  inv.RequestID,
		InputCount: len(req.Files),
		InputBytes: req.InputBytes(),
	})

	start := time.Now()
	result, err := tool.Execute(ctx, log, req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000

	var pages int
	var outBytes int64
	if err == nil && result != nil {
		pages = result.Pages
		outBytes = int64(len(result.Body))
	}

	telemetry.EndToolSpan(span, pages, outBytes, err)
	telemetry.RecordToolCall(ctx, name, inv.Transport, err == nil, durationMs, req.InputBytes(), outBytes)

	entry := log.WithFields(logrus.Fields{
		"tool":        name,
		"transport":   inv.Transport,
		"inputs":      len(req.Files),
		"duration_ms": durationMs,
	})
	if inv.RequestID != "" {
		entry = entry.WithField("request_id", inv.RequestID)
	}

	if err != nil {
		category := telemetry.CategoriseToolError(err)
		telemetry.RecordToolError(ctx, name, category)
		entry.WithError(err).WithField("category", category).Debug("Tool execution failed")

		tools.GetGlobalErrorLogger().LogToolError(name, req.LogFields(), err, inv.Transport, inv.RequestID)
		return nil, err
	}

	entry.WithFields(logrus.Fields{
		"pages":        pages,
		"output_bytes": outBytes,
	}).Debug("Tool execution completed")

	return result, nil
}
