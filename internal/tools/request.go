package tools

import (
	"strconv"
	"strings"
)

// Input is one uploaded document.
type Input struct {
	Name string
	Data []byte
}

// Request is the transport-neutral input to a tool: uploaded documents in
// submission order plus string fields.
type Request struct {
	Files  []Input
	Fields map[string]string
}

// NewRequest returns an empty request with initialised fields.
func NewRequest() *Request {
	return &Request{Fields: make(map[string]string)}
}

// AddFile appends an uploaded document.
func (r *Request) AddFile(name string, data []byte) {
	r.Files = append(r.Files, Input{Name: name, Data: data})
}

// SetField records a string field. Empty values are stored as given.
func (r *Request) SetField(name, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = value
}

// Field returns the trimmed value of a field, or "" when absent.
func (r *Request) Field(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// IntField parses a field as an integer. ok is false when the field is
// missing or not an integer.
func (r *Request) IntField(name string) (value int, ok bool) {
	v := r.Field(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InputBytes returns the total size of all uploaded documents.
func (r *Request) InputBytes() int64 {
	var total int64
	for _, f := range r.Files {
		total += int64(len(f.Data))
	}
	return total
}

// LogFields returns the fields with file names, suitable for logging.
// Document contents are never included.
func (r *Request) LogFields() map[string]any {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	if len(r.Files) > 0 {
		names := make([]string, len(r.Files))
		for i, f := range r.Files {
			names[i] = f.Name
		}
		out["files"] = names
	}
	return out
}

// Result is the output of a tool.
type Result struct {
	Body        []byte
	ContentType string
	Filename    string
	// Headers are extra response headers such as X-Original-Size.
	Headers map[string]string
	// Pages is the page count of the output document, when it is a document.
	Pages int
}

const ContentTypePDF = "application/pdf"
const ContentTypeJSON = "application/json"

// NewPDFResult returns a result for a PDF document body.
func NewPDFResult(body []byte, filename string, pages int) *Result {
	return &Result{
		Body:        body,
		ContentType: ContentTypePDF,
		Filename:    filename,
		Pages:       pages,
		Headers:     make(map[string]string),
	}
}
