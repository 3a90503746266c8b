// Package mcptools exposes the registered PDF tools as MCP tools. Documents
// are passed by absolute path and results are written to disk, since MCP
// messages carry JSON rather than binary uploads.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

const (
	// ParamFilePaths lists the input documents, in order
	ParamFilePaths = "file_paths"
	// ParamOutputPath is where the result is written
	ParamOutputPath = "output_path"
)

// Summary is the text content returned for a successful call
type Summary struct {
	OutputPath string            `json:"output_path"`
	Bytes      int               `json:"bytes"`
	Pages      int               `json:"pages,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// NewServer creates an MCP server with one MCP tool per entry in toolset
func NewServer(version string, logger *logrus.Logger, toolset map[string]tools.Tool) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("pdf-convert", version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for name, tool := range toolset {
		logger.WithField("tool", name).Debug("Registering MCP tool")
		srv.AddTool(ToolDefinition(tool.Definition()), Handler(tool))
	}
	return srv
}

// ServeStdio serves srv over stdin and stdout until ctx is cancelled
func ServeStdio(ctx context.Context, srv *mcpserver.MCPServer) error {
	return mcpserver.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout)
}

// ToolDefinition converts a tool definition into an MCP tool schema
func ToolDefinition(def tools.Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}

	if p, ok := def.FileParam(); ok {
		desc := "Absolute path of the PDF document to process"
		if p.Type == tools.ParamFiles {
			desc = "Absolute paths of the PDF documents to process, in order"
		}
		opts = append(opts, mcp.WithArray(ParamFilePaths,
			mcp.Required(),
			mcp.Description(desc),
			mcp.Items(map[string]any{"type": "string"}),
		))
	}

	for _, p := range def.FieldParams() {
		var propOpts []mcp.PropertyOption
		propOpts = append(propOpts, mcp.Description(p.Description))
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}

		switch p.Type {
		case tools.ParamInteger:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			if len(p.Enum) > 0 {
				propOpts = append(propOpts, mcp.Enum(p.Enum...))
			}
			if p.Default != "" {
				propOpts = append(propOpts, mcp.DefaultString(p.Default))
			}
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	opts = append(opts, mcp.WithString(ParamOutputPath,
		mcp.Description("Absolute path to write the result to. Defaults to the tool's output name next to the first input"),
	))

	return mcp.NewTool(def.Name, opts...)
}

// Handler adapts a tool to an MCP tool handler. Request problems are
// reported as tool errors so the model can correct its call.
func Handler(tool tools.Tool) mcpserver.ToolHandlerFunc {
	def := tool.Definition()

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		req, paths, err := buildRequest(def, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := registry.Execute(ctx, tool, req, registry.Invocation{Transport: registry.TransportStdio})
		if err != nil {
			if ve, ok := tools.IsValidation(err); ok {
				return mcp.NewToolResultError(ve.Message), nil
			}
			if pe, ok := tools.IsParse(err); ok {
				return mcp.NewToolResultError(pe.Error()), nil
			}
			return nil, fmt.Errorf("%s: %w", def.FailureMessage, err)
		}

		outPath, err := outputPath(args, paths, result.Filename)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := os.WriteFile(outPath, result.Body, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
		}

		summary, err := json.Marshal(Summary{
			OutputPath: outPath,
			Bytes:      len(result.Body),
			Pages:      result.Pages,
			Headers:    result.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summary: %w", err)
		}
		return mcp.NewToolResultText(string(summary)), nil
	}
}

// buildRequest reads the documents named in file_paths and copies the
// tool's fields from args.
func buildRequest(def tools.Definition, args map[string]any) (*tools.Request, []string, error) {
	req := tools.NewRequest()

	var paths []string
	if p, ok := def.FileParam(); ok {
		raw, _ := args[ParamFilePaths].([]any)
		for _, item := range raw {
			path, ok := item.(string)
			if !ok {
				return nil, nil, fmt.Errorf("%s must contain strings", ParamFilePaths)
			}
			if !filepath.IsAbs(path) {
				return nil, nil, fmt.Errorf("path must be absolute: %s", path)
			}
			paths = append(paths, path)
		}
		if p.Type == tools.ParamFile && len(paths) > 1 {
			return nil, nil, fmt.Errorf("%s takes a single file, got %d", def.Name, len(paths))
		}

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			req.AddFile(filepath.Base(path), data)
		}
	}

	for _, p := range def.FieldParams() {
		v, ok := args[p.Name]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			req.SetField(p.Name, val)
		case float64:
			req.SetField(p.Name, strconv.FormatFloat(val, 'f', -1, 64))
		default:
			req.SetField(p.Name, fmt.Sprint(val))
		}
	}

	return req, paths, nil
}

func outputPath(args map[string]any, inputs []string, filename string) (string, error) {
	if out, ok := args[ParamOutputPath].(string); ok && out != "" {
		if !filepath.IsAbs(out) {
			return "", fmt.Errorf("path must be absolute: %s", out)
		}
		return out, nil
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("%s is required when no input paths are given", ParamOutputPath)
	}
	return filepath.Join(filepath.Dir(inputs[0]), filepath.Base(filename)), nil
}
