package info_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/testutils"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
	"github.com/vishalharkal15/pdf-convert/internal/tools/info"
)

func TestInfo_Report(t *testing.T) {
	data := testutils.BuildPDF(testutils.PDFOptions{
		Widths: []float64{612, 300},
		Title:  "Handbook",
		Author: "Ops",
	})
	req := tools.NewRequest()
	req.AddFile("handbook.pdf", data)

	result, err := (&info.InfoTool{}).Execute(context.Background(), testutils.CreateTestLogger(), req)
	require.NoError(t, err)
	assert.Equal(t, tools.ContentTypeJSON, result.ContentType)
	assert.Equal(t, "handbook-info.json", result.Filename)

	var report info.Report
	require.NoError(t, json.Unmarshal(result.Body, &report))
	assert.Equal(t, "handbook.pdf", report.File)
	assert.Equal(t, len(data), report.Size)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, "Handbook", report.Title)
	assert.Equal(t, "Ops", report.Author)
	assert.False(t, report.HasForm)
	assert.Equal(t, []info.PageSize{{Width: 612, Height: 792}, {Width: 300, Height: 792}}, report.PageSizes)
}

func TestInfo_MissingFile(t *testing.T) {
	_, err := (&info.InfoTool{}).Execute(context.Background(), testutils.CreateTestLogger(), tools.NewRequest())
	assert.True(t, tools.HasCode(err, tools.CodeMissingFile))
}
