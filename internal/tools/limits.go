package tools

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
)

const (
	// DefaultMaxFileSize is the per-document size limit when nothing else is configured
	DefaultMaxFileSize = int64(200 * 1024 * 1024)
	// MaxFileSizeEnvVar overrides DefaultMaxFileSize
	MaxFileSizeEnvVar = "PDF_MAX_FILE_SIZE"
)

var configuredMaxFileSize atomic.Int64

// SetMaxFileSize sets the per-document size limit. Zero or negative restores
// the environment or default limit.
func SetMaxFileSize(n int64) {
	configuredMaxFileSize.Store(n)
}

// GetMaxFileSize returns the configured maximum document size in bytes
func GetMaxFileSize() int64 {
	if n := configuredMaxFileSize.Load(); n > 0 {
		return n
	}
	if sizeStr := os.Getenv(MaxFileSizeEnvVar); sizeStr != "" {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxFileSize
}

// ValidateFileSize rejects documents larger than the configured limit.
func ValidateFileSize(name string, fileSize int64) error {
	maxSize := GetMaxFileSize()
	if fileSize > maxSize {
		sizeMB := float64(fileSize) / (1024 * 1024)
		maxSizeMB := float64(maxSize) / (1024 * 1024)
		return NewValidationError(CodeFileTooLarge,
			fmt.Sprintf("File %s is %.1fMB which exceeds the maximum allowed size of %.1fMB", name, sizeMB, maxSizeMB))
	}
	return nil
}

// ValidateInputs applies ValidateFileSize to every uploaded document.
func ValidateInputs(files []Input) error {
	for _, f := range files {
		if err := ValidateFileSize(f.Name, int64(len(f.Data))); err != nil {
			return err
		}
	}
	return nil
}
