package http

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// FrontendHandler serves the embedded upload page and its static assets
type FrontendHandler struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewFrontendHandler creates a handler over fsys. fsys may be nil, in which
// case every page answers 503.
func NewFrontendHandler(fsys fs.FS, logger *slog.Logger) *FrontendHandler {
	return &FrontendHandler{
		fsys:   fsys,
		logger: logger.With(slog.String("handler", "frontend")),
	}
}

// ServeIndex handles GET /
func (h *FrontendHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "index.html", "no-cache, no-store, must-revalidate")
}

// ServeAsset handles GET /assets/*
func (h *FrontendHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if !strings.HasPrefix(name, "assets/") || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}
	h.serveFile(w, r, name, "public, max-age=86400")
}

func (h *FrontendHandler) serveFile(w http.ResponseWriter, r *http.Request, name, cacheControl string) {
	if h.fsys == nil {
		http.Error(w, "Frontend not available", http.StatusServiceUnavailable)
		return
	}

	file, err := h.fsys.Open(name)
	if err != nil {
		h.logger.WarnContext(r.Context(), "frontend file not found",
			slog.String("path", name),
			slog.String("error", err.Error()))
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	if stat, err := file.Stat(); err == nil && stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, file); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write frontend file",
			slog.String("path", name),
			slog.String("error", err.Error()))
	}
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
