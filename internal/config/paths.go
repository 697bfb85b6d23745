package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileLocations lists where Load looks for a YAML file when none is given,
// relative to the working directory and then to the executable.
func ConfigFileLocations() []string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	if exeDir, err := ExecutableDir(); err == nil {
		locations = append(locations,
			filepath.Join(exeDir, "config.yaml"),
			filepath.Join(exeDir, "configs", "config.yaml"),
		)
	}
	return locations
}

// ExecutableDir returns the directory holding the running binary with symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDir creates dir and its parents if they do not exist
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("empty directory path")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDir creates the directory that will contain path
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}
