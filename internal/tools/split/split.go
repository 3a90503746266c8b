package split

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// Split modes accepted in the splitType field
const (
	TypePages = "pages"
	TypeRange = "range"
)

// SplitTool extracts a set of pages into a new document
type SplitTool struct{}

func init() {
	registry.Register(&SplitTool{})
}

// Definition returns the tool's definition
func (t *SplitTool) Definition() tools.Definition {
	return tools.Definition{
		Name:           "split",
		FailureMessage: "Failed to split PDF file",
		Description:    "Extract selected pages of a PDF into a new document. Pages are always written in ascending order without duplicates.",
		Params: []tools.Param{
			{Name: "file", Type: tools.ParamFile, Description: "PDF file to split", Required: true},
			{
				Name:        "splitType",
				Type:        tools.ParamString,
				Description: "Selection mode: 'pages' uses pageNumbers, 'range' uses startPage and endPage",
				Required:    true,
				Enum:        []string{TypePages, TypeRange},
			},
			{Name: "pageNumbers", Type: tools.ParamString, Description: "Pages and ranges such as '1,3,5-7' (pages mode)"},
			{Name: "startPage", Type: tools.ParamInteger, Description: "First page, 1-based (range mode)"},
			{Name: "endPage", Type: tools.ParamInteger, Description: "Last page, inclusive (range mode)"},
		},
	}
}

// Execute extracts the requested pages
func (t *SplitTool) Execute(ctx context.Context, logger *logrus.Logger, req *tools.Request) (*tools.Result, error) {
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
	total := doc.PageCount()

	var sel document.PageSelection
	splitType := req.Field("splitType")
	switch splitType {
	case TypePages:
		list := req.Field("pageNumbers")
		if list == "" {
			return nil, tools.NewValidationError(tools.CodeMissingPageNumbers, "Page numbers are required")
		}
		sel = ParsePageNumbers(list, total)
	case TypeRange:
		start, okStart := req.IntField("startPage")
		end, okEnd := req.IntField("endPage")
		var ok bool
		if okStart && okEnd {
			sel, ok = RangeSelection(start, end, total)
		}
		if !ok {
			return nil, tools.NewValidationError(tools.CodeInvalidRange, "Invalid page range")
		}
	}

	if sel.Len() == 0 {
		return nil, tools.NewValidationError(tools.CodeNoValidPages, "No valid pages to extract")
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("split cancelled: %w", err)
	}

	out, err := doc.Extract(sel)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}

	body, err := out.Bytes(document.DefaultWriteOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to write split document: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"file":        input.Name,
		"split_type":  splitType,
		"pages":       sel.String(),
		"total_pages": total,
		"size":        len(body),
	}).Info("Split document")

	return tools.NewPDFResult(body, OutputFilename(sel, input.Name), sel.Len()), nil
}

// OutputFilename returns split-pages-<pages>-<original name>.
func OutputFilename(sel document.PageSelection, originalName string) string {
	return fmt.Sprintf("split-pages-%s-%s", sel, originalName)
}

// ProvideExtendedInfo provides detailed usage information for the split tool
func (t *SplitTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Extract pages 1, 3 and 5 to 7",
				Arguments:      map[string]string{"file": "report.pdf", "splitType": "pages", "pageNumbers": "1,3,5-7"},
				ExpectedResult: "split-pages-1,3,5,6,7-report.pdf",
			},
			{
				Description:    "Extract a contiguous range",
				Arguments:      map[string]string{"file": "report.pdf", "splitType": "range", "startPage": "2", "endPage": "4"},
				ExpectedResult: "split-pages-2,3,4-report.pdf",
			},
		},
		ParameterDetails: map[string]string{
			"pageNumbers": "Comma separated. Ranges are inclusive. Entries outside the document or that are not numbers are ignored; the request fails only when nothing valid remains.",
			"startPage":   "Must satisfy 1 <= startPage <= endPage <= page count, otherwise the request fails with 'Invalid page range'.",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "No valid pages to extract",
				Solution: "Every requested page was outside the document or malformed. Check the page count with the info tool.",
			},
		},
		WhenToUse:    "Pulling a subset of pages out of one document",
		WhenNotToUse: "Reordering pages; output is always in ascending page order",
	}
}
