package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Antonpb/alfaapp/internal/config"
)

// ErrInvalidName is returned for names that are not a plain file name
var ErrInvalidName = errors.New("invalid file name")

// Manager provides file operations rooted at one output directory
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates baseDir if needed and returns a Manager rooted there
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", baseDir, err)
	}
	if err := config.EnsureDir(abs); err != nil {
		return nil, err
	}
	return &Manager{baseDir: abs, logger: logger}, nil
}

// BaseDir returns the absolute output directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// FileExists checks if name exists in the output directory
func (m *Manager) FileExists(name string) bool {
	fullPath, err := m.resolvePath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	exists := err == nil

	m.logger.Debug("FileExists check",
		slog.String("name", name),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// WriteFile atomically writes data to name and returns the full path
func (m *Manager) WriteFile(name string, data []byte) (string, error) {
	fullPath, err := m.resolvePath(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(m.baseDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	m.logger.Info("Wrote file",
		slog.String("path", fullPath),
		slog.Int("size_bytes", len(data)))
	return fullPath, nil
}

// resolvePath joins name onto the base directory
func (m *Manager) resolvePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.baseDir, name), nil
}
