package telemetry

// Attribute names for PDF tool spans and metrics.
const (
	AttrToolName    = "pdf.tool.name"
	AttrToolSuccess = "pdf.tool.result.success"
	AttrToolError   = "pdf.tool.result.error"
	AttrTransport   = "pdf.transport" // http, cli or stdio
	AttrRequestID   = "pdf.request.id"
	AttrInputCount  = "pdf.input.count"
	AttrInputBytes  = "pdf.input.bytes"
	AttrOutputPages = "pdf.output.pages"
	AttrOutputBytes = "pdf.output.bytes"
	AttrErrorType   = "error.type"
)

// Span names
const (
	SpanNameToolExecute = "pdf.tool.execute"
	SpanNameHTTPServer  = "pdf.http.server"
)
