package tools

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Tool is the interface that all PDF tool implementations must satisfy
type Tool interface {
	// Definition describes the tool's name and parameters for every transport
	Definition() Definition

	// Execute runs the tool against a transport-neutral request
	Execute(ctx context.Context, logger *logrus.Logger, req *Request) (*Result, error)
}

// ParamType describes how a transport should collect a parameter.
type ParamType string

const (
	// ParamFile is a single uploaded document
	ParamFile ParamType = "file"
	// ParamFiles is an ordered list of uploaded documents
	ParamFiles ParamType = "files"
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
)

// Param is a single named tool input.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     string    `json:"default,omitempty"`
}

// Definition is the transport-neutral description of a tool.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	// FailureMessage is shown to clients in place of unexpected internal errors
	FailureMessage string `json:"-"`
}

// FileParam returns the file or files parameter of the definition, if any.
func (d Definition) FileParam() (Param, bool) {
	for _, p := range d.Params {
		if p.Type == ParamFile || p.Type == ParamFiles {
			return p, true
		}
	}
	return Param{}, false
}

// FieldParams returns the non-file parameters in declaration order.
func (d Definition) FieldParams() []Param {
	var params []Param
	for _, p := range d.Params {
		if p.Type != ParamFile && p.Type != ParamFiles {
			params = append(params, p)
		}
	}
	return params
}

// ExtendedHelpProvider is an optional interface that tools can implement to provide
// detailed usage information, examples, and troubleshooting help
type ExtendedHelpProvider interface {
	ProvideExtendedInfo() *ExtendedHelp
}

// ExtendedHelp contains detailed information about a tool's usage
type ExtendedHelp struct {
	Examples         []ToolExample        `json:"examples,omitempty"`
	CommonPatterns   []string             `json:"common_patterns,omitempty"`
	Troubleshooting  []TroubleshootingTip `json:"troubleshooting,omitempty"`
	ParameterDetails map[string]string    `json:"parameter_details,omitempty"`
	WhenToUse        string               `json:"when_to_use,omitempty"`
	WhenNotToUse     string               `json:"when_not_to_use,omitempty"`
}

// ToolExample represents a usage example for a tool
type ToolExample struct {
	Description    string            `json:"description"`
	Arguments      map[string]string `json:"arguments"`
	ExpectedResult string            `json:"expected_result,omitempty"`
}

// TroubleshootingTip represents a troubleshooting tip for a tool
type TroubleshootingTip struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}
