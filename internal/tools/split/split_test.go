package split_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/testutils"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
	"github.com/vishalharkal15/pdf-convert/internal/tools/split"
)

func pageWidths(t *testing.T, data []byte) []float64 {
	t.Helper()
	doc, err := document.Load("out.pdf", data)
	require.NoError(t, err)
	dims, err := doc.PageSizes()
	require.NoError(t, err)
	out := make([]float64, len(dims))
	for i, d := range dims {
		out[i] = d.Width
	}
	return out
}

func newRequest(pages int, fields map[string]string) *tools.Request {
	req := tools.NewRequest()
	req.AddFile("report.pdf", testutils.NPagePDF(pages))
	for k, v := range fields {
		req.SetField(k, v)
	}
	return req
}

func run(t *testing.T, req *tools.Request) (*tools.Result, error) {
	t.Helper()
	return (&split.SplitTool{}).Execute(context.Background(), testutils.CreateTestLogger(), req)
}

func TestSplit_PagesMode(t *testing.T) {
	result, err := run(t, newRequest(10, map[string]string{
		"splitType":   "pages",
		"pageNumbers": "7,1,5-6",
	}))
	require.NoError(t, err)

	assert.Equal(t, "split-pages-1,5,6,7-report.pdf", result.Filename)
	assert.Equal(t, 4, result.Pages)

	// Widths are 100 + 10*(page-1).
	want := []float64{100, 140, 150, 160}
	if diff := cmp.Diff(want, pageWidths(t, result.Body)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_RangeFullDocumentIsIdentity(t *testing.T) {
	result, err := run(t, newRequest(4, map[string]string{
		"splitType": "range",
		"startPage": "1",
		"endPage":   "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, "split-pages-1,2,3,4-report.pdf", result.Filename)
	assert.Equal(t, testutils.Widths(100, 4), pageWidths(t, result.Body))
}

func TestSplit_OutOfRangeTolerance(t *testing.T) {
	result, err := run(t, newRequest(3, map[string]string{
		"splitType":   "pages",
		"pageNumbers": "1,99",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, "split-pages-1-report.pdf", result.Filename)
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		code    tools.ErrorCode
		message string
	}{
		{
			name:    "missing page numbers",
			fields:  map[string]string{"splitType": "pages"},
			code:    tools.CodeMissingPageNumbers,
			message: "Page numbers are required",
		},
		{
			name:    "blank page numbers",
			fields:  map[string]string{"splitType": "pages", "pageNumbers": "  "},
			code:    tools.CodeMissingPageNumbers,
			message: "Page numbers are required",
		},
		{
			name:    "nothing valid",
			fields:  map[string]string{"splitType": "pages", "pageNumbers": "5-9,abc"},
			code:    tools.CodeNoValidPages,
			message: "No valid pages to extract",
		},
		{
			name:    "range past end",
			fields:  map[string]string{"splitType": "range", "startPage": "2", "endPage": "9"},
			code:    tools.CodeInvalidRange,
			message: "Invalid page range",
		},
		{
			name:    "range not numeric",
			fields:  map[string]string{"splitType": "range", "startPage": "one", "endPage": "2"},
			code:    tools.CodeInvalidRange,
			message: "Invalid page range",
		},
		{
			name:    "range missing end",
			fields:  map[string]string{"splitType": "range", "startPage": "1"},
			code:    tools.CodeInvalidRange,
			message: "Invalid page range",
		},
		{
			name:    "unknown split type",
			fields:  map[string]string{"splitType": "odd"},
			code:    tools.CodeNoValidPages,
			message: "No valid pages to extract",
		},
		{
			name:    "missing split type",
			fields:  map[string]string{"pageNumbers": "1"},
			code:    tools.CodeNoValidPages,
			message: "No valid pages to extract",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, newRequest(4, tt.fields))
			require.Error(t, err)
			assert.True(t, tools.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestSplit_MissingFile(t *testing.T) {
	req := tools.NewRequest()
	req.SetField("splitType", "pages")
	req.SetField("pageNumbers", "1")

	_, err := run(t, req)
	assert.True(t, tools.HasCode(err, tools.CodeMissingFile))
}

func TestSplit_ParseError(t *testing.T) {
	req := tools.NewRequest()
	req.AddFile("broken.pdf", []byte("%PDF-1.7 but nothing else"))
	req.SetField("splitType", "pages")
	req.SetField("pageNumbers", "1")

	_, err := run(t, req)
	pe, ok := tools.IsParse(err)
	require.True(t, ok)
	assert.Equal(t, "broken.pdf", pe.Name)
}
