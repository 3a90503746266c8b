package info

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// InfoTool reports page count, page sizes and metadata of a document
type InfoTool struct{}

// PageSize is a page's media box in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Report is the JSON body returned by the info tool
type Report struct {
	File      string     `json:"file"`
	Size      int        `json:"size"`
	Pages     int        `json:"pages"`
	Title     string     `json:"title,omitempty"`
	Author    string     `json:"author,omitempty"`
	Producer  string     `json:"producer,omitempty"`
	HasForm   bool       `json:"has_form"`
	PageSizes []PageSize `json:"page_sizes"`
}

func init() {
	registry.Register(&InfoTool{})
}

// Definition returns the tool's definition
func (t *InfoTool) Definition() tools.Definition {
	return tools.Definition{
		Name:           "info",
		FailureMessage: "Failed to read PDF file",
		Description:    "Report the page count, page sizes and document metadata of a PDF as JSON.",
		Params: []tools.Param{
			{Name: "file", Type: tools.ParamFile, Description: "PDF file to inspect", Required: true},
		},
	}
}

// Execute inspects the uploaded document
func (t *InfoTool) Execute(ctx context.Context, logger *logrus.Logger, req *tools.Request) (*tools.Result, error) {
	if len(req.Files) == 0 {
		return nil, tools.NewValidationError(tools.CodeMissingFile, "No PDF file provided")
	}
	input := req.Files[0]

	if err := tools.ValidateFileSize(input.Name, int64(len(input.Data))); err != nil {
		return nil, err
	}

	doc, err := document.Load(input.Name, input.Data)
	if err != nil {
		return nil, &tools.ParseError{Name: input.Name, Err: err}
	}

	dims, err := doc.PageSizes()
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes: %w", err)
	}

	meta := doc.Metadata()
	report := Report{
		File:      input.Name,
		Size:      doc.Size(),
		Pages:     doc.PageCount(),
		Title:     meta.Title,
		Author:    meta.Author,
		Producer:  meta.Producer,
		HasForm:   doc.HasForm(),
		PageSizes: make([]PageSize, len(dims)),
	}
	for i, d := range dims {
		report.PageSizes[i] = PageSize{Width: d.Width, Height: d.Height}
	}

	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"file":  input.Name,
		"pages": report.Pages,
	}).Debug("Inspected document")

	return &tools.Result{
		Body:        body,
		ContentType: tools.ContentTypeJSON,
		Filename:    strings.TrimSuffix(input.Name, ".pdf") + "-info.json",
		Pages:       report.Pages,
		Headers:     map[string]string{},
	}, nil
}
