// Package cli provides a direct command-line interface to the PDF tools,
// bypassing the HTTP server entirely. Tools are invoked in-process via the
// registry, so documents are read from and written to the local filesystem.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// OutputFormat controls how tool results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// outFlag names the destination of the tool result
const outFlag = "out"

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	output OutputFormat
	stdout io.Writer
	// dir is where results go when --out is not given
	dir string
}

// NewRunner creates a Runner that writes to stdout and saves results in the
// working directory.
func NewRunner(logger *logrus.Logger, output OutputFormat) *Runner {
	return &Runner{logger: logger, output: output, stdout: os.Stdout, dir: "."}
}

// WithWriter redirects listing and summary output
func (r *Runner) WithWriter(w io.Writer) *Runner {
	r.stdout = w
	return r
}

// WithDir sets the directory default output files are written to
func (r *Runner) WithDir(dir string) *Runner {
	r.dir = dir
	return r
}

// Summary describes a completed tool run
type Summary struct {
	Tool    string            `json:"tool"`
	Output  string            `json:"output"`
	Bytes   int               `json:"bytes"`
	Pages   int               `json:"pages,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ListTools prints all enabled tools with their descriptions.
func (r *Runner) ListTools() error {
	enabled := registry.GetEnabledTools()

	type entry struct {
		name string
		desc string
	}
	entries := make([]entry, 0, len(enabled))
	for _, t := range enabled {
		def := t.Definition()
		entries = append(entries, entry{name: def.Name, desc: firstLine(def.Description)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	if r.output == OutputJSON {
		type jsonEntry struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		out := make([]jsonEntry, len(entries))
		for i, e := range entries {
			out[i] = jsonEntry{Name: e.name, Description: e.desc}
		}
		return writeJSON(r.stdout, out)
	}

	w := tabwriter.NewWriter(r.stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.name, e.desc)
	}
	return w.Flush()
}

// HelpTool prints the parameters and usage examples for a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, ok := resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	def := tool.Definition()

	if r.output == OutputJSON {
		type jsonHelp struct {
			tools.Definition
			Extended *tools.ExtendedHelp `json:"extended_help,omitempty"`
		}
		help := jsonHelp{Definition: def}
		if p, ok := tool.(tools.ExtendedHelpProvider); ok {
			help.Extended = p.ProvideExtendedInfo()
		}
		return writeJSON(r.stdout, help)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(r.stdout, "Tool: %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(r.stdout, "%s\n\n", def.Description)
	}

	fmt.Fprintln(r.stdout, "Parameters:")
	w := tabwriter.NewWriter(r.stdout, 0, 0, 2, ' ', 0)
	for _, p := range def.Params {
		flag := toFlagName(p.Name)
		if p.Type == tools.ParamFiles {
			flag += " (repeatable)"
		}
		reqMark := ""
		if p.Required {
			reqMark = " (required)"
		}
		enumVals := ""
		if len(p.Enum) > 0 {
			enumVals = " [" + strings.Join(p.Enum, "|") + "]"
		}
		fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", flag, p.Type, firstLine(p.Description), reqMark, enumVals)
	}
	fmt.Fprintf(w, "  --%s\tpath\tWhere to write the result (default: the tool's output name)\n", outFlag)
	if err := w.Flush(); err != nil {
		return err
	}

	provider, ok := tool.(tools.ExtendedHelpProvider)
	if !ok {
		return nil
	}
	help := provider.ProvideExtendedInfo()
	if help == nil || len(help.Examples) == 0 {
		return nil
	}

	fmt.Fprintln(r.stdout)
	fmt.Fprintln(r.stdout, "Examples:")
	for _, ex := range help.Examples {
		fmt.Fprintf(r.stdout, "  # %s\n  pdf-convert cli run %s%s\n", ex.Description, def.Name, exampleFlags(ex.Arguments, def))
	}
	return nil
}

// RunTool executes a tool by name with the given arguments.
// args can be:
//   - Flag-style arguments: --file a.pdf --split-type=range
//   - A JSON object: '{"splitType": "range", "files": ["a.pdf", "b.pdf"]}'
//   - Mixed, where flags take precedence over JSON values
//
// The result is written to --out, or to the tool's output filename.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'pdf-convert cli list' to see available tools)", name)
	}
	def := tool.Definition()

	parsed, err := parseArgs(args, def)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	req, err := parsed.request()
	if err != nil {
		return err
	}

	result, err := registry.Execute(ctx, tool, req, registry.Invocation{Transport: registry.TransportCLI})
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}

	outPath := parsed.out
	if outPath == "" {
		outPath = filepath.Join(r.dir, filepath.Base(result.Filename))
	}
	if err := os.WriteFile(outPath, result.Body, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	r.logger.WithFields(logrus.Fields{
		"tool":   def.Name,
		"output": outPath,
		"bytes":  len(result.Body),
	}).Debug("Wrote tool result")

	return r.renderSummary(Summary{
		Tool:    def.Name,
		Output:  outPath,
		Bytes:   len(result.Body),
		Pages:   result.Pages,
		Headers: result.Headers,
	})
}

// renderSummary reports where the result went
func (r *Runner) renderSummary(s Summary) error {
	if r.output == OutputJSON {
		return writeJSON(r.stdout, s)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(r.stdout, "Wrote %s", s.Output)
	if s.Pages > 0 {
		fmt.Fprintf(r.stdout, " (%d pages, %d bytes)\n", s.Pages, s.Bytes)
	} else {
		fmt.Fprintf(r.stdout, " (%d bytes)\n", s.Bytes)
	}

	for _, k := range slices.Sorted(maps.Keys(s.Headers)) {
		fmt.Fprintf(r.stdout, "  %s: %s\n", k, s.Headers[k])
	}
	return nil
}

// parsedArgs holds CLI arguments resolved against a tool definition
type parsedArgs struct {
	files  []string
	fields map[string]string
	out    string
}

// request reads the named files into a tool request
func (p parsedArgs) request() (*tools.Request, error) {
	req := tools.NewRequest()
	for _, path := range p.files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		req.AddFile(filepath.Base(path), data)
	}
	for k, v := range p.fields {
		req.SetField(k, v)
	}
	return req, nil
}

// parseArgs converts CLI arguments into files, fields and an output path.
func parseArgs(args []string, def tools.Definition) (parsedArgs, error) {
	parsed := parsedArgs{fields: make(map[string]string)}
	schema := buildSchemaInfo(def)

	var jsonFiles []string
	jsonFields := make(map[string]string)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// JSON object argument
		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return parsedArgs{}, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				switch {
				case k == outFlag:
					if parsed.out == "" {
						parsed.out = fmt.Sprint(v)
					}
				case schema.isFile(k):
					jsonFiles = append(jsonFiles, toStrings(v)...)
				default:
					jsonFields[k] = scalarString(v)
				}
			}
			continue
		}

		// Flag-style argument
		if strings.HasPrefix(arg, "--") {
			key, val, err := parseFlag(arg, args, &i)
			if err != nil {
				return parsedArgs{}, err
			}
			switch {
			case key == outFlag:
				parsed.out = val
			case schema.isFileFlag(key):
				parsed.files = append(parsed.files, val)
			default:
				parsed.fields[schema.resolveParam(key)] = val
			}
			continue
		}

		return parsedArgs{}, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
	}

	// JSON values merge in; flags take precedence
	if len(parsed.files) == 0 {
		parsed.files = jsonFiles
	}
	for k, v := range jsonFields {
		if _, exists := parsed.fields[k]; !exists {
			parsed.fields[k] = v
		}
	}

	if schema.fileType == tools.ParamFile && len(parsed.files) > 1 {
		return parsedArgs{}, fmt.Errorf("%s takes a single file, got %d", def.Name, len(parsed.files))
	}

	return parsed, nil
}

// parseFlag parses a single --key=value or --key value.
func parseFlag(arg string, args []string, idx *int) (string, string, error) {
	stripped := strings.TrimPrefix(arg, "--")

	if flagName, rawVal, found := strings.Cut(stripped, "="); found {
		return flagName, rawVal, nil
	}

	*idx++
	if *idx >= len(args) {
		return "", "", fmt.Errorf("flag --%s requires a value", stripped)
	}
	return stripped, args[*idx], nil
}

// schemaInfo holds resolved definition information for argument parsing.
type schemaInfo struct {
	// fileParam is the name of the tool's file parameter, if any
	fileParam string
	fileType  tools.ParamType
	// flagToParam maps kebab-case flag names to actual parameter names
	flagToParam map[string]string
}

func buildSchemaInfo(def tools.Definition) schemaInfo {
	info := schemaInfo{flagToParam: make(map[string]string, len(def.Params))}
	if p, ok := def.FileParam(); ok {
		info.fileParam = p.Name
		info.fileType = p.Type
	}
	for _, p := range def.FieldParams() {
		info.flagToParam[toFlagName(p.Name)] = p.Name
	}
	return info
}

// isFileFlag accepts --file and --files for any tool taking documents
func (s schemaInfo) isFileFlag(flag string) bool {
	if s.fileParam == "" {
		return false
	}
	return flag == "file" || flag == "files" || flag == toFlagName(s.fileParam)
}

func (s schemaInfo) isFile(param string) bool {
	return s.fileParam != "" && (param == s.fileParam || param == "file" || param == "files")
}

// resolveParam converts a kebab-case flag name to the actual parameter name.
// Unknown flags pass through unchanged.
func (s schemaInfo) resolveParam(flagName string) string {
	if actual, ok := s.flagToParam[flagName]; ok {
		return actual
	}
	return flagName
}

// resolveTool looks up an enabled tool, ignoring case and treating
// underscores as hyphens.
func resolveTool(name string) (tools.Tool, bool) {
	if tool, ok := registry.GetTool(name); ok {
		return tool, true
	}
	lower := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	if lower != name {
		return registry.GetTool(lower)
	}
	return nil, false
}

// --- helpers ---

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if before, _, found := strings.Cut(s, "\n"); found {
		return before
	}
	return s
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{val}
	default:
		return nil
	}
}

// scalarString renders JSON numbers without a trailing ".0" or exponent
func scalarString(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}

// exampleFlags renders example arguments as flags. File parameters hold
// comma separated names and become repeated --file flags.
func exampleFlags(args map[string]string, def tools.Definition) string {
	fileParam, _ := def.FileParam()

	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(args)) {
		v := args[k]
		if k == fileParam.Name {
			for name := range strings.SplitSeq(v, ",") {
				fmt.Fprintf(&b, " --file %s", strings.TrimSpace(name))
			}
			continue
		}
		if strings.ContainsAny(v, " ,") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(&b, " --%s %s", toFlagName(k), v)
	}
	return b.String()
}

// toFlagName converts camelCase or snake_case to kebab-case for CLI flags.
func toFlagName(s string) string {
	s = strings.ReplaceAll(s, "_", "-")
	var out strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out.WriteByte('-')
			}
			out.WriteRune(r + 32) // toLower
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}
