package tools

import (
	"os"
	"strings"
)

// EnableAdditionalToolsEnvVar lists opt-in tools, comma separated.
const EnableAdditionalToolsEnvVar = "ENABLE_ADDITIONAL_TOOLS"

// IsToolEnabled checks if a tool is enabled via the ENABLE_ADDITIONAL_TOOLS environment variable.
// Tool names are case-insensitive, spaces are ignored and underscores match hyphens.
//
// Example: ENABLE_ADDITIONAL_TOOLS="info"
func IsToolEnabled(toolName string) bool {
	enabledTools := os.Getenv(EnableAdditionalToolsEnvVar)
	if enabledTools == "" {
		return false
	}

	normalisedToolName := normaliseToolName(toolName)
	for tool := range strings.SplitSeq(enabledTools, ",") {
		if normaliseToolName(tool) == normalisedToolName {
			return true
		}
	}

	return false
}

func normaliseToolName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}
