package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

var (
	mu sync.RWMutex

	// toolRegistry is a map of tool names to tool implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is a set of tool names to disable
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger
)

// additionalTools are registered but hidden until named in ENABLE_ADDITIONAL_TOOLS.
var additionalTools = []string{
	"info",
}

// Init initialises the registry and reads DISABLED_TOOLS
func Init(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	parseDisabledTools()
}

// parseDisabledTools parses the DISABLED_TOOLS environment variable. Caller holds mu.
func parseDisabledTools() {
	disabledTools = make(map[string]bool)

	disabledEnv := os.Getenv("DISABLED_TOOLS")
	if disabledEnv == "" {
		return
	}

	for tool := range strings.SplitSeq(disabledEnv, ",") {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			disabledTools[tool] = true
			if logger != nil {
				logger.WithField("tool", tool).Debug("Tool disabled")
			}
		}
	}

	if logger != nil && len(disabledTools) > 0 {
		logger.WithField("count", len(disabledTools)).Debug("Parsed disabled tools from environment")
	}
}

// requiresEnablement checks if a tool requires enablement via ENABLE_ADDITIONAL_TOOLS.
func requiresEnablement(toolName string) bool {
	normalisedToolName := normalise(toolName)
	for _, tool := range additionalTools {
		if normalisedToolName == normalise(tool) {
			return true
		}
	}
	return false
}

func normalise(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// isEnabledLocked applies, in order: DISABLED_TOOLS (explicit disable wins),
// the tool's enablement requirement, then ENABLE_ADDITIONAL_TOOLS. Caller holds mu.
func isEnabledLocked(toolName string) bool {
	if disabledTools[toolName] {
		return false
	}
	if requiresEnablement(toolName) {
		return isToolEnabled(toolName)
	}
	return true
}

// ShouldRegisterTool reports whether a tool is exposed on the transports.
func ShouldRegisterTool(toolName string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return isEnabledLocked(toolName)
}

// Register adds a tool implementation to the registry. Tools register from
// package init, before configuration is loaded, so enablement is decided
// when tools are looked up rather than here.
func Register(tool tools.Tool) {
	mu.Lock()
	defer mu.Unlock()

	toolName := tool.Definition().Name
	toolRegistry[toolName] = tool
	if logger != nil {
		logger.WithField("tool", toolName).Debug("Tool registered")
	}
}

// Unregister removes a tool. Used by tests that register mocks.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(toolRegistry, name)
}

// GetTool retrieves an enabled tool by name
func GetTool(name string) (tools.Tool, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if !isEnabledLocked(name) {
		return nil, false
	}
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetEnabledTools returns all tools that are enabled
func GetEnabledTools() map[string]tools.Tool {
	mu.RLock()
	defer mu.RUnlock()

	filteredTools := make(map[string]tools.Tool)
	for name, tool := range toolRegistry {
		if isEnabledLocked(name) {
			filteredTools[name] = tool
		}
	}
	return filteredTools
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// GetEnabledToolNames returns a sorted list of enabled tool names
func GetEnabledToolNames() []string {
	enabled := GetEnabledTools()
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolNamesWithExtendedHelp returns a sorted list of enabled tool names that provide extended help
func GetToolNamesWithExtendedHelp() []string {
	var names []string
	for name, tool := range GetEnabledTools() {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// isToolEnabled checks ENABLE_ADDITIONAL_TOOLS, which also accepts "all"
func isToolEnabled(toolName string) bool {
	enabledTools := os.Getenv(tools.EnableAdditionalToolsEnvVar)
	if strings.TrimSpace(strings.ToLower(enabledTools)) == "all" {
		return true
	}
	return tools.IsToolEnabled(toolName)
}
