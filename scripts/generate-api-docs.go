// Package main generates HTTP API documentation from the registered tool definitions
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/server"
	"github.com/vishalharkal15/pdf-convert/internal/tools"

	// Import all tools to register them
	_ "github.com/vishalharkal15/pdf-convert/internal/imports"
)

type ToolInfo struct {
	Name           string
	Endpoint       string
	Description    string
	FailureMessage string
	OptIn          bool
	Parameters     []ParameterInfo
	Examples       []ExampleInfo
	Troubleshoot   []tools.TroubleshootingTip
	WhenToUse      string
}

type ParameterInfo struct {
	Name        string
	Type        string
	Required    bool
	Default     string
	Enum        string
	Description string
}

type ExampleInfo struct {
	Description string
	Curl        string
	Expected    string
}

const docTemplate = `# pdf-convert HTTP API

Generated {{.Generated}}. Every tool is served at ` + "`POST " + server.RoutePrefix + "<tool>`" + ` and takes
` + "`multipart/form-data`" + `. Errors are returned as ` + "`{\"error\": \"...\"}`" + `.
{{range .Tools}}
## {{.Name}}{{if .OptIn}} (opt-in){{end}}

` + "`POST {{.Endpoint}}`" + `

{{.Description}}
{{if .WhenToUse}}
{{.WhenToUse}}
{{end}}
| Field | Type | Required | Default | Description |
|---|---|---|---|---|
{{range .Parameters}}| ` + "`{{.Name}}`" + ` | {{.Type}} | {{if .Required}}yes{{else}}no{{end}} | {{.Default}} | {{.Description}}{{if .Enum}} ({{.Enum}}){{end}} |
{{end}}
Unexpected failures return ` + "`500`" + ` with ` + "`{{.FailureMessage}}`" + `.
{{if .Examples}}
### Examples
{{range .Examples}}
{{.Description}}:

` + "```sh" + `
{{.Curl}}
` + "```" + `
{{if .Expected}}
{{.Expected}}
{{end}}{{end}}{{end}}{{if .Troubleshoot}}
### Troubleshooting
{{range .Troubleshoot}}
- **{{.Problem}}** {{.Solution}}{{end}}
{{end}}{{end}}`

func main() {
	outputDir := flag.String("output", "docs", "Directory to write API.md to")
	baseURL := flag.String("base-url", "http://localhost:3000", "Base URL used in curl examples")
	flag.Parse()

	// Opt-in tools are documented too
	if err := os.Setenv(tools.EnableAdditionalToolsEnvVar, "all"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	registry.Init(nil)

	optIn := make(map[string]bool)
	for _, name := range registry.GetEnabledToolNames() {
		optIn[name] = true
	}
	_ = os.Unsetenv(tools.EnableAdditionalToolsEnvVar)
	for _, name := range registry.GetEnabledToolNames() {
		delete(optIn, name)
	}
	_ = os.Setenv(tools.EnableAdditionalToolsEnvVar, "all")

	var infos []ToolInfo
	for name, tool := range registry.GetEnabledTools() {
		infos = append(infos, describe(tool, optIn[name], *baseURL))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	path := filepath.Join(*outputDir, "API.md")
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", path, err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	tmpl := template.Must(template.New("api").Parse(docTemplate))
	if err := tmpl.Execute(f, map[string]any{
		"Generated": time.Now().Format("2006-01-02"),
		"Tools":     infos,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering documentation: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated documentation for %d tools in %s\n", len(infos), path)
}

func describe(tool tools.Tool, optIn bool, baseURL string) ToolInfo {
	def := tool.Definition()
	info := ToolInfo{
		Name:           def.Name,
		Endpoint:       server.RoutePrefix + def.Name,
		Description:    def.Description,
		FailureMessage: def.FailureMessage,
		OptIn:          optIn,
	}

	for _, p := range def.Params {
		info.Parameters = append(info.Parameters, ParameterInfo{
			Name:        p.Name,
			Type:        string(p.Type),
			Required:    p.Required,
			Default:     p.Default,
			Enum:        strings.Join(p.Enum, ", "),
			Description: p.Description,
		})
	}

	provider, ok := tool.(tools.ExtendedHelpProvider)
	if !ok {
		return info
	}
	help := provider.ProvideExtendedInfo()
	if help == nil {
		return info
	}

	info.WhenToUse = help.WhenToUse
	info.Troubleshoot = help.Troubleshooting

	fileParam, _ := def.FileParam()
	for _, ex := range help.Examples {
		info.Examples = append(info.Examples, ExampleInfo{
			Description: ex.Description,
			Curl:        curlExample(baseURL, def.Name, fileParam.Name, ex.Arguments),
			Expected:    ex.ExpectedResult,
		})
	}
	return info
}

// curlExample renders example arguments as a curl command. File parameters
// hold comma separated file names.
func curlExample(baseURL, tool, fileParam string, args map[string]string) string {
	parts := []string{"curl -X POST"}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == fileParam {
			for name := range strings.SplitSeq(args[k], ",") {
				parts = append(parts, fmt.Sprintf("-F '%s=@%s'", k, strings.TrimSpace(name)))
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("-F '%s=%s'", k, args[k]))
	}

	parts = append(parts, fmt.Sprintf("%s%s%s -o out", baseURL, server.RoutePrefix, tool))
	return strings.Join(parts, " \\\n  ")
}
