package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"jobdex/internal/logging/types"
)

// FileAdapter implements the LogAdapter interface for append-only file output
type FileAdapter struct {
	name   string
	config FileConfig
	file   *os.File
	mu     sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string      `yaml:"file_path"`     // path to log file
	Format      string      `yaml:"format"`        // json or text
	CreateDirs  bool        `yaml:"create_dirs"`   // create parent directories if they don't exist
	FileMode    os.FileMode `yaml:"file_mode"`     // file permissions
	SyncOnWrite bool        `yaml:"sync_on_write"` // sync after each write
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FileMode == 0 {
		config.FileMode = 0644
	}
	if config.Format == "" {
		config.Format = "json"
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directories: %w", err)
		}
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, config.FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileAdapter{
		name:   name,
		config: config,
		file:   file,
	}, nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	output, err := formatEntry(entry, a.config.Format)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	if _, err := a.file.WriteString(output + "\n"); err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}

	if a.config.SyncOnWrite {
		if err := a.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}

	return nil
}

// Close closes the underlying file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}
