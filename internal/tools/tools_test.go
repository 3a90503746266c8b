package tools

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsToolEnabled(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		toolName string
		expected bool
	}{
		{name: "empty environment variable", envValue: "", toolName: "info", expected: false},
		{name: "single tool enabled", envValue: "info", toolName: "info", expected: true},
		{name: "tool in list", envValue: "merge, info", toolName: "info", expected: true},
		{name: "tool not in list", envValue: "merge", toolName: "info", expected: false},
		{name: "case insensitive", envValue: "INFO", toolName: "info", expected: true},
		{name: "underscore matches hyphen", envValue: "page-info", toolName: "page_info", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnableAdditionalToolsEnvVar, tt.envValue)
			assert.Equal(t, tt.expected, IsToolEnabled(tt.toolName))
		})
	}
}

func TestGetMaxFileSize(t *testing.T) {
	t.Cleanup(func() { SetMaxFileSize(0) })

	t.Setenv(MaxFileSizeEnvVar, "")
	assert.Equal(t, DefaultMaxFileSize, GetMaxFileSize())

	t.Setenv(MaxFileSizeEnvVar, "2048")
	assert.Equal(t, int64(2048), GetMaxFileSize())

	t.Setenv(MaxFileSizeEnvVar, "not-a-number")
	assert.Equal(t, DefaultMaxFileSize, GetMaxFileSize())

	SetMaxFileSize(100)
	assert.Equal(t, int64(100), GetMaxFileSize())

	err := ValidateInputs([]Input{{Name: "a.pdf", Data: make([]byte, 50)}, {Name: "b.pdf", Data: make([]byte, 150)}})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeFileTooLarge))
	assert.Contains(t, err.Error(), "b.pdf")
}

func TestRequestFields(t *testing.T) {
	req := NewRequest()
	req.AddFile("a.pdf", []byte("12345"))
	req.AddFile("b.pdf", []byte("678"))
	req.SetField("startPage", " 3 ")
	req.SetField("endPage", "three")

	assert.Equal(t, "3", req.Field("startPage"))
	assert.Equal(t, "", req.Field("missing"))

	n, ok := req.IntField("startPage")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = req.IntField("endPage")
	assert.False(t, ok)

	assert.Equal(t, int64(8), req.InputBytes())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, req.LogFields()["files"])
}

func TestErrorClassification(t *testing.T) {
	ve := NewValidationError(CodeNoValidPages, "No valid pages to extract")
	wrapped := fmt.Errorf("split: %w", ve)

	got, ok := IsValidation(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNoValidPages, got.Code)
	assert.True(t, HasCode(wrapped, CodeNoValidPages))
	assert.False(t, HasCode(wrapped, CodeInvalidRange))

	cause := errors.New("xref table corrupt")
	pe := &ParseError{Name: "bad.pdf", Err: cause}
	assert.Equal(t, "Failed to process file: bad.pdf", pe.Error())
	assert.ErrorIs(t, pe, cause)

	_, ok = IsParse(fmt.Errorf("merge: %w", pe))
	assert.True(t, ok)
	_, ok = IsParse(cause)
	assert.False(t, ok)
}

func newErrorLogger(t *testing.T) *ToolErrorLogger {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	path := filepath.Join(t.TempDir(), "logs", "tool-errors.log")
	l, err := NewToolErrorLogger(logger, ErrorLogOptions{Enabled: true, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func readEntries(t *testing.T, path string) []ToolErrorLogEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var entries []ToolErrorLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e ToolErrorLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestToolErrorLogger_Disabled(t *testing.T) {
	l, err := NewToolErrorLogger(nil, ErrorLogOptions{Enabled: false})
	require.NoError(t, err)
	assert.False(t, l.IsEnabled())

	// Must not panic
	l.LogToolError("merge", nil, errors.New("boom"), "http", "")
	assert.NoError(t, l.Close())
}

func TestToolErrorLogger_LogToolError(t *testing.T) {
	l := newErrorLogger(t)

	l.LogToolError("split", map[string]any{"splitType": "range"}, errors.New("Invalid page range"), "http", "req-1")

	entries := readEntries(t, l.GetLogFilePath())
	require.Len(t, entries, 1)
	assert.Equal(t, "split", entries[0].ToolName)
	assert.Equal(t, "Invalid page range", entries[0].Error)
	assert.Equal(t, "http", entries[0].Transport)
	assert.Equal(t, "req-1", entries[0].RequestID)
	assert.Equal(t, "range", entries[0].Arguments["splitType"])
}

func TestToolErrorLogger_Rotation(t *testing.T) {
	l := newErrorLogger(t)

	old := ToolErrorLogEntry{Timestamp: time.Now().AddDate(0, 0, -90).Format(time.RFC3339), ToolName: "merge", Error: "old"}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	_, err = l.logFile.Write(append(data, '\n'))
	require.NoError(t, err)
	_, err = l.logFile.WriteString("not json\n")
	require.NoError(t, err)

	l.LogToolError("compress", nil, errors.New("recent"), "cli", "")

	require.NoError(t, l.RotateOldLogs())

	lines := 0
	f, err := os.Open(l.GetLogFilePath())
	require.NoError(t, err)
	scanner := bufio.NewScanner(f)
	var kept []string
	for scanner.Scan() {
		lines++
		kept = append(kept, scanner.Text())
	}
	_ = f.Close()

	assert.Equal(t, 2, lines)
	assert.Equal(t, "not json", kept[0])
	assert.Contains(t, kept[1], `"error":"recent"`)

	// The file is writable again after rotation
	l.LogToolError("split", nil, errors.New("after"), "cli", "")
	entries, err := os.ReadFile(l.GetLogFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(entries), `"error":"after"`)
}
