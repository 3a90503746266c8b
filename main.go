package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	pdfcli "github.com/vishalharkal15/pdf-convert/internal/cli"
	"github.com/vishalharkal15/pdf-convert/internal/config"
	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/mcptools"
	"github.com/vishalharkal15/pdf-convert/internal/registry"
	"github.com/vishalharkal15/pdf-convert/internal/server"
	"github.com/vishalharkal15/pdf-convert/internal/telemetry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"

	// Import all tool packages to register them
	_ "github.com/vishalharkal15/pdf-convert/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

const (
	// DefaultMemoryLimit is the default memory limit for the Go application (4GB)
	DefaultMemoryLimit = 4 * 1024 * 1024 * 1024
)

// parseLogLevel parses a level name, falling back to def when empty or invalid.
func parseLogLevel(s string, def logrus.Level) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return def
	}
}

// setMemoryLimit configures the Go runtime memory limit. Documents are held
// in memory while they are processed.
func setMemoryLimit() {
	memLimitStr := os.Getenv("PDF_CONVERT_MEMORY_LIMIT")
	var memLimit int64 = DefaultMemoryLimit

	if memLimitStr != "" {
		if parsed, err := strconv.ParseInt(memLimitStr, 10, 64); err == nil && parsed > 0 {
			memLimit = parsed
		}
	}

	debug.SetMemoryLimit(memLimit)
}

func main() {
	setMemoryLimit()

	// A missing .env file is normal
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Output is configured per command once the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel(os.Getenv("LOG_LEVEL"), logrus.InfoLevel))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	registry.Init(logger)

	defer performCleanup(logger)

	app := &cli.Command{
		Name:           "pdf-convert",
		Usage:          "Merge, split and compress PDF documents",
		Version:        fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCommand(logger),
			cliCommand(logger),
			configCommand(),
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("pdf-convert version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// stdout belongs to the MCP protocol in stdio mode
		if !isStdioMode.Load() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			logger.WithError(err).Error("Exiting")
		}
		performCleanup(logger)
		os.Exit(1)
	}
}

func serveCommand(logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the PDF tools over HTTP or MCP stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "http",
				Usage:   "Transport type (http or stdio)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PDF_CONVERT_CONFIG"),
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port for the HTTP transport",
			},
			&cli.StringFlag{
				Name:  "validation-mode",
				Usage: "PDF validation mode (relaxed or strict)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")
			if transport != "http" && transport != "stdio" {
				return fmt.Errorf("unsupported transport: %s", transport)
			}
			isStdioMode.Store(transport == "stdio")

			configureLogging(logger, transport, cmd.String("log-level"))

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyConfig(logger, cfg)

			telemetry.ServiceVersion = Version
			shutdownTracer, err := telemetry.InitTracer(logger)
			if err != nil {
				logger.WithError(err).Warn("Failed to initialise tracing")
			}
			defer func() { _ = shutdownTracer() }()

			shutdownMetrics, err := telemetry.InitMetrics(logger)
			if err != nil {
				logger.WithError(err).Warn("Failed to initialise metrics")
			}
			defer func() { _ = shutdownMetrics() }()

			toolset := registry.GetEnabledTools()
			logger.WithFields(logrus.Fields{
				"version":   Version,
				"transport": transport,
				"tools":     registry.GetEnabledToolNames(),
			}).Info("Starting pdf-convert")

			if transport == "stdio" {
				return mcptools.ServeStdio(ctx, mcptools.NewServer(Version, logger, toolset))
			}
			return server.New(cfg, logger, toolset).ListenAndServe(ctx)
		},
	}
}

func cliCommand(logger *logrus.Logger) *cli.Command {
	runner := func(cmd *cli.Command) *pdfcli.Runner {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(parseLogLevel(os.Getenv("LOG_LEVEL"), logrus.WarnLevel))

		cfg, err := config.Load(cmd.String("config"))
		if err == nil && cfg.Validate() == nil {
			applyConfig(logger, cfg)
		}

		output := pdfcli.OutputText
		if cmd.String("output") == string(pdfcli.OutputJSON) {
			output = pdfcli.OutputJSON
		}
		return pdfcli.NewRunner(logger, output)
	}

	return &cli.Command{
		Name:  "cli",
		Usage: "Run a tool directly against local files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Value: string(pdfcli.OutputText),
				Usage: "Output format (text or json)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PDF_CONVERT_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available tools",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runner(cmd).ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show parameters and examples for a tool",
				ArgsUsage: "<tool>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: pdf-convert cli help <tool>")
					}
					return runner(cmd).HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool, e.g. run merge --file a.pdf --file b.pdf --out merged.pdf",
				ArgsUsage:       "<tool> [--param value ...] [--out path]",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					if len(args) == 0 {
						return fmt.Errorf("usage: pdf-convert cli run <tool> [--param value ...]")
					}
					return runner(cmd).RunTool(ctx, args[0], args[1:])
				},
			},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PDF_CONVERT_CONFIG"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			return enc.Close()
		},
	}
}

// loadConfig reads the config file and environment, then applies flags
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("validation-mode") {
		cfg.ValidationMode = cmd.String("validation-mode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyConfig pushes configuration into the packages that read it globally
func applyConfig(logger *logrus.Logger, cfg *config.Config) {
	document.SetValidationMode(document.ValidationMode(cfg.ValidationMode))
	tools.SetMaxFileSize(cfg.MaxFileSize)

	if err := tools.InitGlobalErrorLogger(logger, tools.ErrorLogOptions{
		Enabled: cfg.LogToolErrors,
		Path:    cfg.ErrorLogPath,
	}); err != nil {
		logger.WithError(err).Warn("Failed to initialise tool error logger")
	}
}

// configureLogging sends logs to stderr for HTTP, and to a file for stdio so
// the protocol stream stays clean.
func configureLogging(logger *logrus.Logger, transport, levelFlag string) {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"), logrus.InfoLevel)
	if levelFlag != "" {
		level = parseLogLevel(levelFlag, level)
	}
	logger.SetLevel(level)

	if transport != "stdio" {
		logger.SetOutput(os.Stderr)
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.SetOutput(io.Discard)
		return
	}
	logDir := filepath.Join(homeDir, ".pdf-convert", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(io.Discard)
		return
	}
	file, err := os.OpenFile(filepath.Join(logDir, "pdf-convert.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(io.Discard)
		return
	}
	debugLogFile.Store(file)
	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", level.String()).Debug("Logging configured")
}

// performCleanup handles cleanup of resources on shutdown
func performCleanup(logger *logrus.Logger) {
	if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil {
		if err := errorLogger.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close tool error logger")
		}
	}

	if file := debugLogFile.Swap(nil); file != nil {
		_ = file.Close()
	}
}
