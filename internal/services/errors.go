package services

import (
	"errors"

	"github.com/Antonpb/alfaapp/internal/dataprocessing"
	"github.com/Antonpb/alfaapp/internal/report"
)

// Analysis service errors
var (
	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrArtifactNotFound = errors.New("artifact not found")

	// Report errors
	ErrNoPlot       = errors.New("session has no plot to report on")
	ErrMissingTitle = report.ErrMissingTitle

	// Input errors
	ErrUnselectedSource     = dataprocessing.ErrUnselectedSource
	ErrUnknownSchemaVersion = dataprocessing.ErrUnknownSchemaVersion
	ErrUnsupportedFile      = errors.New("unsupported file")
	ErrInvalidPlotStyle     = errors.New("invalid plot style")
)
