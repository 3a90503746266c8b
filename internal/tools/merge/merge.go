package merge

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

const (
	// OutputFilename is the download name of every merged document
	OutputFilename = "merged-document.pdf"
	// MinInputs is the smallest number of documents that can be merged
	MinInputs = 2
)

// MergeTool concatenates documents in submission order
type MergeTool struct{}

func init() {
	registry.Register(&MergeTool{})
}

// Definition returns the tool's definition
func (t *MergeTool) Definition() tools.Definition {
	return tools.Definition{
		Name:           "merge",
		FailureMessage: "Failed to merge PDF files",
		Description:    "Combine two or more PDF files into one document. Pages keep their order and the files are joined in the order given.",
		Params: []tools.Param{
			{
				Name:        "files",
				Type:        tools.ParamFiles,
				Description: "PDF files to merge, in output order (at least 2)",
				Required:    true,
			},
		},
	}
}

// Execute merges every uploaded document
func (t *MergeTool) Execute(ctx context.Context, logger *logrus.Logger, req *tools.Request) (*tools.Result, error) {
	if len(req.Files) < MinInputs {
		return nil, tools.NewValidationError(tools.CodeAtLeastTwoRequired, "At least 2 PDF files are required for merging")
	}

	if err := tools.ValidateInputs(req.Files); err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(req.Files))
	totalPages := 0
	for _, f := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("merge cancelled: %w", err)
		}

		doc, err := document.Load(f.Name, f.Data)
		if err != nil {
			return nil, &tools.ParseError{Name: f.Name, Err: err}
		}

		logger.WithFields(logrus.Fields{
			"file":  f.Name,
			"pages": doc.PageCount(),
			"size":  doc.Size(),
		}).Debug("Loaded document for merge")

		docs = append(docs, doc)
		totalPages += doc.PageCount()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("merge cancelled: %w", err)
	}

	var buf bytes.Buffer
	if err := document.Merge(docs, &buf); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"inputs": len(docs),
		"pages":  totalPages,
		"size":   buf.Len(),
	}).Info("Merged documents")

	return tools.NewPDFResult(buf.Bytes(), OutputFilename, totalPages), nil
}

// ProvideExtendedInfo provides detailed usage information for the merge tool
func (t *MergeTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Merge a cover letter and a report",
				Arguments:      map[string]string{"files": "cover.pdf,report.pdf"},
				ExpectedResult: "merged-document.pdf with the cover letter pages followed by the report pages",
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "At least 2 PDF files are required for merging",
				Solution: "Pass two or more files. A single file does not need merging.",
			},
			{
				Problem:  "Failed to process file: <name>",
				Solution: "The named file is not a readable PDF. Nothing is produced when any input fails to load.",
			},
		},
		WhenToUse:    "Joining several PDFs into one download",
		WhenNotToUse: "Reordering pages within a single document",
	}
}
