package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/testutils"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
	"github.com/vishalharkal15/pdf-convert/internal/tools/split"

	_ "github.com/vishalharkal15/pdf-convert/internal/imports"
)

func newRunner(t *testing.T, output OutputFormat) (*Runner, *bytes.Buffer, string) {
	t.Helper()
	t.Setenv("DISABLED_TOOLS", "")
	t.Setenv(tools.EnableAdditionalToolsEnvVar, "")
	registry.Init(testutils.CreateTestLogger())

	dir := t.TempDir()
	var buf bytes.Buffer
	return NewRunner(testutils.CreateTestLogger(), output).WithWriter(&buf).WithDir(dir), &buf, dir
}

func writeFixture(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testutils.NPagePDF(pages), 0o600))
	return path
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := document.Load(filepath.Base(path), data)
	require.NoError(t, err)
	return doc.PageCount()
}

func TestToFlagName(t *testing.T) {
	assert.Equal(t, "split-type", toFlagName("splitType"))
	assert.Equal(t, "compression-level", toFlagName("compressionLevel"))
	assert.Equal(t, "file-paths", toFlagName("file_paths"))
	assert.Equal(t, "files", toFlagName("files"))
}

func TestParseArgs(t *testing.T) {
	def := (&split.SplitTool{}).Definition()

	parsed, err := parseArgs([]string{
		"--file", "a.pdf",
		"--split-type=range",
		"--start-page", "2",
		`{"endPage": 4, "startPage": 9}`,
		"--out", "result.pdf",
	}, def)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf"}, parsed.files)
	assert.Equal(t, "result.pdf", parsed.out)
	assert.Equal(t, map[string]string{
		"splitType": "range",
		"startPage": "2",
		"endPage":   "4",
	}, parsed.fields)
}

func TestParseArgs_Errors(t *testing.T) {
	def := (&split.SplitTool{}).Definition()

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing value", args: []string{"--file"}},
		{name: "bare word", args: []string{"a.pdf"}},
		{name: "bad json", args: []string{"{not json"}},
		{name: "two files for single file tool", args: []string{"--file", "a.pdf", "--file", "b.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, def)
			assert.Error(t, err)
		})
	}
}

func TestListTools(t *testing.T) {
	r, buf, _ := newRunner(t, OutputJSON)
	require.NoError(t, r.ListTools())

	var entries []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"compress", "merge", "split"}, names)
}

func TestHelpTool(t *testing.T) {
	r, buf, _ := newRunner(t, OutputText)
	require.NoError(t, r.HelpTool("split"))

	out := buf.String()
	assert.Contains(t, out, "Tool: split")
	assert.Contains(t, out, "--split-type")
	assert.Contains(t, out, "[pages|range]")
	assert.Contains(t, out, "--out")

	assert.Error(t, r.HelpTool("nope"))
}

func TestRunTool_Merge(t *testing.T) {
	r, buf, dir := newRunner(t, OutputText)
	a := writeFixture(t, dir, "a.pdf", 2)
	b := writeFixture(t, dir, "b.pdf", 3)

	require.NoError(t, r.RunTool(context.Background(), "merge", []string{"--file", a, "--file", b}))

	out := filepath.Join(dir, "merged-document.pdf")
	assert.Equal(t, 5, pageCount(t, out))
	assert.Contains(t, buf.String(), "Wrote "+out)
	assert.Contains(t, buf.String(), "5 pages")
}

func TestRunTool_SplitWithOut(t *testing.T) {
	r, buf, dir := newRunner(t, OutputJSON)
	src := writeFixture(t, dir, "book.pdf", 6)
	out := filepath.Join(dir, "chapter.pdf")

	require.NoError(t, r.RunTool(context.Background(), "split", []string{
		"--file", src, "--split-type", "range", "--start-page", "2", "--end-page", "4", "--out", out,
	}))

	assert.Equal(t, 3, pageCount(t, out))

	var summary Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, "split", summary.Tool)
	assert.Equal(t, out, summary.Output)
	assert.Equal(t, 3, summary.Pages)
}

func TestRunTool_CompressHeaders(t *testing.T) {
	r, buf, dir := newRunner(t, OutputJSON)
	src := writeFixture(t, dir, "scan.pdf", 2)

	require.NoError(t, r.RunTool(context.Background(), "compress", []string{"--file", src, "--compression-level", "low"}))

	var summary Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, filepath.Join(dir, "compressed-low-scan.pdf"), summary.Output)
	assert.Contains(t, summary.Headers, "X-Original-Size")
	assert.Contains(t, summary.Headers, "X-Compressed-Size")
}

func TestRunTool_Errors(t *testing.T) {
	r, _, dir := newRunner(t, OutputText)
	src := writeFixture(t, dir, "a.pdf", 1)

	err := r.RunTool(context.Background(), "merge", []string{"--file", src})
	require.Error(t, err)
	assert.True(t, tools.HasCode(err, tools.CodeAtLeastTwoRequired))

	err = r.RunTool(context.Background(), "merge", []string{"--file", filepath.Join(dir, "missing.pdf"), "--file", src})
	assert.ErrorContains(t, err, "failed to read")

	err = r.RunTool(context.Background(), "info", []string{"--file", src})
	assert.ErrorContains(t, err, "unknown tool")
}

func TestRunTool_OptInTool(t *testing.T) {
	r, buf, dir := newRunner(t, OutputText)
	t.Setenv(tools.EnableAdditionalToolsEnvVar, "info")
	src := writeFixture(t, dir, "a.pdf", 2)

	require.NoError(t, r.RunTool(context.Background(), "INFO", []string{"--file", src}))
	assert.FileExists(t, filepath.Join(dir, "a-info.json"))
	assert.Contains(t, buf.String(), "a-info.json")
}
