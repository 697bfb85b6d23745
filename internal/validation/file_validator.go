package validation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// Upload rejection reasons
var (
	ErrEmptyFile            = errors.New("file is empty")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrTemporaryFile        = errors.New("file is a temporary office lock file")
	ErrFileTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrNotSpreadsheet       = errors.New("file content is not an xlsx workbook")
)

// zipMagic starts every xlsx (Office Open XML) package
var zipMagic = []byte("PK\x03\x04")

// FileValidator checks uploaded and local input files before they are parsed
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes <= 0 disables the size cap.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// FormatFromName maps a file name to its dataset format by extension
func FormatFromName(name string) (domain.FileFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return domain.FormatXLSX, nil
	case ".csv":
		return domain.FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(name))
}

// ValidateUpload checks an uploaded file by name, size and leading bytes.
// head needs at least the first four bytes for xlsx uploads.
func (v *FileValidator) ValidateUpload(name string, size int64, head []byte) (domain.FileFormat, error) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejected temporary Excel file", slog.String("file", base))
		return "", fmt.Errorf("%w: %s", ErrTemporaryFile, base)
	}

	format, err := FormatFromName(base)
	if err != nil {
		v.logger.Warn("Rejected upload extension",
			slog.String("file", base),
			slog.String("extension", filepath.Ext(base)))
		return "", err
	}

	if size == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyFile, base)
	}

	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Rejected oversized upload",
			slog.String("file", base),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, v.maxBytes)
	}

	if format == domain.FormatXLSX && !bytes.HasPrefix(head, zipMagic) {
		v.logger.Warn("Rejected xlsx upload without zip signature", slog.String("file", base))
		return "", fmt.Errorf("%w: %s", ErrNotSpreadsheet, base)
	}

	v.logger.Debug("Upload validated",
		slog.String("file", base),
		slog.String("format", string(format)),
		slog.Int64("size", size))
	return format, nil
}

// ValidateInputFile checks a local file for the CLI and returns its format
func (v *FileValidator) ValidateInputFile(path string) (domain.FileFormat, error) {
	if err := v.ValidateFile(path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	head := make([]byte, len(zipMagic))
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()
	n, _ := f.Read(head)

	return v.ValidateUpload(path, info.Size(), head[:n])
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
