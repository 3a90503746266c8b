// Package testutils holds helpers shared by package tests: loggers, a mock
// tool and in-memory PDF fixtures.
package testutils

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// CreateTestLogger creates a logger suitable for testing
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// MockTool implements tools.Tool for registry and transport tests
type MockTool struct {
	definition tools.Definition
	executeErr error
	result     *tools.Result

	// LastRequest is the request passed to the most recent Execute call
	LastRequest *tools.Request
}

// NewMockTool creates a mock tool taking one file and a string field named "mode"
func NewMockTool(name string) *MockTool {
	return &MockTool{
		definition: tools.Definition{
			Name:        name,
			Description: "Mock tool for testing",
			Params: []tools.Param{
				{Name: "file", Type: tools.ParamFile, Description: "Input document", Required: true},
				{Name: "mode", Type: tools.ParamString, Description: "Test mode"},
			},
		},
		result: tools.NewPDFResult([]byte("%PDF-mock"), name+".pdf", 1),
	}
}

// WithError configures the mock to return an error
func (m *MockTool) WithError(err error) *MockTool {
	m.executeErr = err
	return m
}

// WithResult configures the mock to return a specific result
func (m *MockTool) WithResult(result *tools.Result) *MockTool {
	m.result = result
	return m
}

// Definition returns the mock's definition
func (m *MockTool) Definition() tools.Definition {
	return m.definition
}

// Execute records the request and returns the configured result or error
func (m *MockTool) Execute(_ context.Context, _ *logrus.Logger, req *tools.Request) (*tools.Result, error) {
	m.LastRequest = req
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}
