package domain

import (
	"time"
)

// Artifact names inside a session scope
const (
	ArtifactPlot     = "plot.png"
	ArtifactMap      = "map.html"
	ArtifactReport   = "report.pdf"
	ArtifactEnriched = "enriched.csv"
	// ArtifactManifest records session metadata and is not downloadable
	ArtifactManifest = "session.json"
)

// DownloadableArtifacts lists the artifact names clients may fetch
var DownloadableArtifacts = []string{ArtifactPlot, ArtifactMap, ArtifactReport, ArtifactEnriched}

// IsDownloadable reports whether name is a client facing artifact
func IsDownloadable(name string) bool {
	for _, n := range DownloadableArtifacts {
		if n == name {
			return true
		}
	}
	return false
}

// ArtifactContentTypes maps artifact names to their MIME types
var ArtifactContentTypes = map[string]string{
	ArtifactPlot:     "image/png",
	ArtifactMap:      "text/html; charset=utf-8",
	ArtifactReport:   "application/pdf",
	ArtifactEnriched: "text/csv; charset=utf-8",
	ArtifactManifest: "application/json",
}

// Artifact is a generated file held in a session scope
type Artifact struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Data        []byte    `json:"-"`
}

// NewArtifact builds an Artifact, resolving the content type from its name
func NewArtifact(name string, data []byte) Artifact {
	ct, ok := ArtifactContentTypes[name]
	if !ok {
		ct = "application/octet-stream"
	}
	return Artifact{
		Name:        name,
		ContentType: ct,
		Size:        len(data),
		CreatedAt:   time.Now().UTC(),
		Data:        data,
	}
}

// PlotArtifact is a rendered chart
type PlotArtifact struct {
	Kind   PlotKind `json:"kind"`
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Points int      `json:"points"`
	PNG    []byte   `json:"-"`
}

// MapArtifact is a standalone clustered marker map
type MapArtifact struct {
	Center  GeoPoint `json:"center"`
	Markers int      `json:"markers"`
	HTML    []byte   `json:"-"`
}

// ReportArtifact is a paginated PDF document
type ReportArtifact struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	HasMapNote  bool      `json:"has_map_note"`
	PDF         []byte    `json:"-"`
}
