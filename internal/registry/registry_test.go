package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/testutils"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

func setup(t *testing.T, disabled, enabled string) {
	t.Helper()
	t.Setenv("DISABLED_TOOLS", disabled)
	t.Setenv("ENABLE_ADDITIONAL_TOOLS", enabled)
	registry.Init(testutils.CreateTestLogger())
}

func register(t *testing.T, tool *testutils.MockTool) {
	t.Helper()
	registry.Register(tool)
	t.Cleanup(func() { registry.Unregister(tool.Definition().Name) })
}

func TestRegisterAndGet(t *testing.T) {
	setup(t, "", "")
	register(t, testutils.NewMockTool("mock_a"))

	tool, ok := registry.GetTool("mock_a")
	require.True(t, ok)
	assert.Equal(t, "mock_a", tool.Definition().Name)
	assert.Contains(t, registry.GetEnabledToolNames(), "mock_a")

	_, ok = registry.GetTool("missing")
	assert.False(t, ok)
}

func TestDisabledTools(t *testing.T) {
	setup(t, "mock_b, other", "")
	register(t, testutils.NewMockTool("mock_b"))

	_, ok := registry.GetTool("mock_b")
	assert.False(t, ok)
	assert.NotContains(t, registry.GetEnabledToolNames(), "mock_b")
}

func TestAdditionalToolsRequireEnablement(t *testing.T) {
	tests := []struct {
		name    string
		enabled string
		want    bool
	}{
		{name: "not enabled", enabled: "", want: false},
		{name: "enabled by name", enabled: "merge, INFO", want: true},
		{name: "enabled by all", enabled: "all", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t, "", tt.enabled)
			register(t, testutils.NewMockTool("info"))

			_, ok := registry.GetTool("info")
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, registry.ShouldRegisterTool("info"))
		})
	}
}

func TestDisableWinsOverEnable(t *testing.T) {
	setup(t, "info", "info")
	register(t, testutils.NewMockTool("info"))

	_, ok := registry.GetTool("info")
	assert.False(t, ok)
}

func TestExecute(t *testing.T) {
	setup(t, "", "")
	tool := testutils.NewMockTool("mock_exec")

	req := tools.NewRequest()
	req.AddFile("a.pdf", []byte("%PDF"))
	req.SetField("mode", "x")

	result, err := registry.Execute(context.Background(), tool, req, registry.Invocation{Transport: registry.TransportHTTP, RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, "mock_exec.pdf", result.Filename)
	assert.Same(t, req, tool.LastRequest)
}

func TestExecute_PropagatesError(t *testing.T) {
	setup(t, "", "")
	want := tools.NewValidationError(tools.CodeMissingFile, "PDF file is required")
	tool := testutils.NewMockTool("mock_fail").WithError(want)

	result, err := registry.Execute(context.Background(), tool, tools.NewRequest(), registry.Invocation{Transport: registry.TransportCLI})
	assert.Nil(t, result)
	require.Error(t, err)

	var ve *tools.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, tools.CodeMissingFile, ve.Code)
}
