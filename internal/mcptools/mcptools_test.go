package mcptools_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/mcptools"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/testutils"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
	"github.com/vishalharkal15/pdf-convert/internal/tools/merge"
	"github.com/vishalharkal15/pdf-convert/internal/tools/split"
)

func call(t *testing.T, tool tools.Tool, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	registry.Init(testutils.CreateTestLogger())

	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Definition().Name
	req.Params.Arguments = args

	result, err := mcptools.Handler(tool)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return tc.Text
}

func fixture(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testutils.NPagePDF(pages), 0o600))
	return path
}

func TestToolDefinition(t *testing.T) {
	def := mcptools.ToolDefinition((&split.SplitTool{}).Definition())

	assert.Equal(t, "split", def.Name)
	assert.Contains(t, def.InputSchema.Properties, mcptools.ParamFilePaths)
	assert.Contains(t, def.InputSchema.Properties, mcptools.ParamOutputPath)
	assert.Contains(t, def.InputSchema.Properties, "splitType")
	assert.Contains(t, def.InputSchema.Required, mcptools.ParamFilePaths)

	startPage, ok := def.InputSchema.Properties["startPage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", startPage["type"])

	splitType, ok := def.InputSchema.Properties["splitType"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"pages", "range"}, splitType["enum"])
}

func TestHandler_Merge(t *testing.T) {
	dir := t.TempDir()
	a := fixture(t, dir, "a.pdf", 2)
	b := fixture(t, dir, "b.pdf", 1)

	result := call(t, &merge.MergeTool{}, map[string]any{
		mcptools.ParamFilePaths: []any{a, b},
	})
	require.False(t, result.IsError, text(t, result))

	var summary mcptools.Summary
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &summary))
	assert.Equal(t, filepath.Join(dir, "merged-document.pdf"), summary.OutputPath)
	assert.Equal(t, 3, summary.Pages)

	data, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	doc, err := document.Load("merged.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount())
}

func TestHandler_SplitNumericFields(t *testing.T) {
	dir := t.TempDir()
	src := fixture(t, dir, "book.pdf", 5)
	out := filepath.Join(dir, "out.pdf")

	result := call(t, &split.SplitTool{}, map[string]any{
		mcptools.ParamFilePaths:  []any{src},
		mcptools.ParamOutputPath: out,
		"splitType":              "range",
		"startPage":              float64(2),
		"endPage":                float64(3),
	})
	require.False(t, result.IsError, text(t, result))
	assert.FileExists(t, out)
}

func TestHandler_ToolErrors(t *testing.T) {
	dir := t.TempDir()
	src := fixture(t, dir, "a.pdf", 1)

	tests := []struct {
		name    string
		tool    tools.Tool
		args    map[string]any
		message string
	}{
		{
			name:    "merge needs two",
			tool:    &merge.MergeTool{},
			args:    map[string]any{mcptools.ParamFilePaths: []any{src}},
			message: "At least 2 PDF files are required for merging",
		},
		{
			name:    "relative path",
			tool:    &split.SplitTool{},
			args:    map[string]any{mcptools.ParamFilePaths: []any{"a.pdf"}},
			message: "path must be absolute: a.pdf",
		},
		{
			name:    "no valid pages",
			tool:    &split.SplitTool{},
			args:    map[string]any{mcptools.ParamFilePaths: []any{src}, "splitType": "pages", "pageNumbers": "9"},
			message: "No valid pages to extract",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.message, text(t, result))
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := mcptools.NewServer("test", testutils.CreateTestLogger(), map[string]tools.Tool{
		"merge": &merge.MergeTool{},
		"split": &split.SplitTool{},
	})
	assert.NotNil(t, srv)
}
