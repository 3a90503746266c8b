package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// ToolErrorLogEntry represents a logged tool error
type ToolErrorLogEntry struct {
	Timestamp string         `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Error     string         `json:"error"`
	Transport string         `json:"transport,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ToolErrorLogger appends failed tool executions to a JSON-lines file
type ToolErrorLogger struct {
	enabled  bool
	logFile  *os.File
	logger   *logrus.Logger
	mu       sync.Mutex
	filePath string
	lock     *flock.Flock
}

// ErrorLogOptions configure the error logger.
type ErrorLogOptions struct {
	Enabled bool
	// Path of the log file. Defaults to ~/.pdf-convert/logs/tool-errors.log.
	Path string
}

var (
	globalErrorLogger *ToolErrorLogger
	errorLoggerOnce   sync.Once
)

const (
	// DefaultLogRetentionDays is the default number of days to retain error logs
	DefaultLogRetentionDays = 60
)

// ErrorLogOptionsFromEnv reads LOG_TOOL_ERRORS.
func ErrorLogOptionsFromEnv() ErrorLogOptions {
	return ErrorLogOptions{Enabled: os.Getenv("LOG_TOOL_ERRORS") == "true"}
}

// DefaultErrorLogPath returns ~/.pdf-convert/logs/tool-errors.log.
func DefaultErrorLogPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pdf-convert", "logs", "tool-errors.log"), nil
}

// NewToolErrorLogger opens (or creates) the error log described by opts.
// A disabled logger is returned when opts.Enabled is false.
func NewToolErrorLogger(logger *logrus.Logger, opts ErrorLogOptions) (*ToolErrorLogger, error) {
	if !opts.Enabled {
		return &ToolErrorLogger{enabled: false, logger: logger}, nil
	}

	logFilePath := opts.Path
	if logFilePath == "" {
		p, err := DefaultErrorLogPath()
		if err != nil {
			return nil, err
		}
		logFilePath = p
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open tool error log file: %w", err)
	}

	return &ToolErrorLogger{
		enabled:  true,
		logFile:  logFile,
		logger:   logger,
		filePath: logFilePath,
		lock:     flock.New(logFilePath + ".lock"),
	}, nil
}

// InitGlobalErrorLogger initialises the global error logger and rotates old
// entries in the background.
func InitGlobalErrorLogger(logger *logrus.Logger, opts ErrorLogOptions) error {
	var initErr error
	errorLoggerOnce.Do(func() {
		l, err := NewToolErrorLogger(logger, opts)
		if err != nil {
			initErr = err
			globalErrorLogger = &ToolErrorLogger{enabled: false, logger: logger}
			return
		}
		globalErrorLogger = l
		if !l.enabled {
			return
		}

		go func() {
			if rotateErr := l.RotateOldLogs(); rotateErr != nil {
				logger.WithError(rotateErr).Warn("Failed to rotate old tool error logs")
			}
		}()

		logger.Infof("Tool error logging enabled: %s", l.filePath)
	})

	return initErr
}

// GetGlobalErrorLogger returns the global error logger instance
func GetGlobalErrorLogger() *ToolErrorLogger {
	if globalErrorLogger == nil {
		return &ToolErrorLogger{enabled: false}
	}
	return globalErrorLogger
}

// LogToolError logs a tool execution error
func (l *ToolErrorLogger) LogToolError(toolName string, args map[string]any, err error, transport, requestID string) {
	if !l.enabled || l.logFile == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := ToolErrorLogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		ToolName:  toolName,
		Arguments: args,
		Error:     err.Error(),
		Transport: transport,
		RequestID: requestID,
	}

	jsonData, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		if l.logger != nil {
			l.logger.WithError(marshalErr).Error("Failed to marshal tool error log entry")
		}
		return
	}

	if _, writeErr := l.logFile.Write(append(jsonData, '\n')); writeErr != nil {
		if l.logger != nil {
			l.logger.WithError(writeErr).Error("Failed to write tool error log entry")
		}
		return
	}

	if syncErr := l.logFile.Sync(); syncErr != nil {
		if l.logger != nil {
			l.logger.WithError(syncErr).Error("Failed to sync tool error log file")
		}
	}
}

// Close closes the error logger and its log file
func (l *ToolErrorLogger) Close() error {
	if !l.enabled || l.logFile == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// IsEnabled returns whether error logging is enabled
func (l *ToolErrorLogger) IsEnabled() bool {
	return l.enabled
}

// GetLogFilePath returns the path to the error log file
func (l *ToolErrorLogger) GetLogFilePath() string {
	return l.filePath
}

// RotateOldLogs removes entries older than DefaultLogRetentionDays.
// The in-process mutex stops writes during rotation and the file lock keeps
// a second server sharing the same log from rotating concurrently.
func (l *ToolErrorLogger) RotateOldLogs() error {
	return l.rotateBefore(time.Now().AddDate(0, 0, -DefaultLogRetentionDays))
}

func (l *ToolErrorLogger) rotateBefore(cutoffTime time.Time) error {
	if !l.enabled || l.filePath == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock tool error log for rotation: %w", err)
	}
	if !locked {
		// Another process is rotating the same file.
		return nil
	}
	defer func() { _ = l.lock.Unlock() }()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close log file for rotation: %w", err)
		}
		l.logFile = nil
	}

	file, err := os.Open(l.filePath)
	if err != nil {
		return l.reopenLogFileLocked()
	}

	var validEntries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ToolErrorLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Keep malformed entries
			validEntries = append(validEntries, line)
			continue
		}

		entryTime, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			validEntries = append(validEntries, line)
			continue
		}

		if entryTime.After(cutoffTime) {
			validEntries = append(validEntries, line)
		}
	}

	scanErr := scanner.Err()
	_ = file.Close()

	if scanErr != nil {
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("error reading log file during rotation: %w", scanErr)
	}

	content := ""
	if len(validEntries) > 0 {
		content = strings.Join(validEntries, "\n") + "\n"
	}

	tmpPath := l.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("failed to write temporary rotated log file: %w", err)
	}

	if err := os.Rename(tmpPath, l.filePath); err != nil {
		_ = os.Remove(tmpPath)
		_ = l.reopenLogFileLocked()
		return fmt.Errorf("failed to rename temporary log file during rotation: %w", err)
	}

	return l.reopenLogFileLocked()
}

// reopenLogFileLocked reopens the log file in append mode.
// Caller must hold l.mu.
func (l *ToolErrorLogger) reopenLogFileLocked() error {
	logFile, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to reopen log file: %w", err)
	}

	l.logFile = logFile
	return nil
}
