package compress

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// Response headers reporting sizes in bytes
const (
	HeaderOriginalSize   = "X-Original-Size"
	HeaderCompressedSize = "X-Compressed-Size"
)

// CompressTool re-serialises a document under a compression preset
type CompressTool struct{}

func init() {
	registry.Register(&CompressTool{})
}

// Definition returns the tool's definition
func (t *CompressTool) Definition() tools.Definition {
	return tools.Definition{
		Name:           "compress",
		FailureMessage: "Failed to compress PDF file",
		Description:    "Re-save a PDF with a compression preset and report the original and compressed sizes. Images and fonts are not recompressed.",
		Params: []tools.Param{
			{Name: "file", Type: tools.ParamFile, Description: "PDF file to compress", Required: true},
			{
				Name:        "compressionLevel",
				Type:        tools.ParamString,
				Description: "Preset: low keeps a classic xref table, medium and default pack objects into object streams, high also leaves form appearances untouched",
				Enum:        PresetNames(),
				Default:     PresetDefault,
			},
		},
	}
}

// Execute writes the document with the requested preset
func (t *CompressTool) Execute(ctx context.Context, logger *logrus.Logger, req *tools.Request) (*tools.Result, error) {
	if len(req.Files) == 0 {
		return nil, tools.NewValidationError(tools.CodeMissingFile, "No PDF file provided")
	}
	input := req.Files[0]

	if err := tools.ValidateFileSize(input.Name, int64(len(input.Data))); err != nil {
		return nil, err
	}

	preset := ResolvePreset(req.Field("compressionLevel"))

	doc, err := document.Load(input.Name, input.Data)
	if err != nil {
		return nil, &tools.ParseError{Name: input.Name, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compress cancelled: %w", err)
	}

	body, err := doc.Bytes(preset.WriteOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to write compressed document: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"file":            input.Name,
		"preset":          preset.Name,
		"original_size":   len(input.Data),
		"compressed_size": len(body),
	}).Info("Compressed document")

	result := tools.NewPDFResult(body, OutputFilename(preset, input.Name), doc.PageCount())
	result.Headers[HeaderOriginalSize] = strconv.Itoa(len(input.Data))
	result.Headers[HeaderCompressedSize] = strconv.Itoa(len(body))
	return result, nil
}

// OutputFilename returns compressed-<preset>-<name without .pdf>.pdf.
func OutputFilename(preset Preset, originalName string) string {
	return fmt.Sprintf("compressed-%s-%s.pdf", preset.Name, strings.TrimSuffix(originalName, ".pdf"))
}

// ProvideExtendedInfo provides detailed usage information for the compress tool
func (t *CompressTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Compress with object streams",
				Arguments:      map[string]string{"file": "scan.pdf", "compressionLevel": "medium"},
				ExpectedResult: "compressed-medium-scan.pdf plus X-Original-Size and X-Compressed-Size headers",
			},
		},
		CommonPatterns: []string{
			"Compute the saving as 1 - compressed/original from the two size headers",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Output is larger than the input",
				Solution: "Structural re-serialisation cannot shrink image-heavy files and the low preset disables object streams. Try medium or high.",
			},
		},
		WhenToUse:    "Reducing structural overhead of a PDF",
		WhenNotToUse: "Reducing image resolution or quality",
	}
}
