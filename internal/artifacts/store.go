// Package artifacts stores generated files per analysis session.
//
// Every artifact lives under its session, keyed "<session>/<name>", so
// concurrent sessions never share a location. Two backends exist: an
// in-memory go-cache store with a TTL janitor and a MinIO object store.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Antonpb/alfaapp/internal/config"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

var (
	// ErrNotFound is returned for unknown artifacts
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidKey is returned for empty or path-like session ids and names
	ErrInvalidKey = errors.New("invalid artifact key")
)

// Store persists session artifacts
type Store interface {
	Put(ctx context.Context, session string, a domain.Artifact) error
	Get(ctx context.Context, session, name string) (domain.Artifact, error)
	List(ctx context.Context, session string) ([]domain.Artifact, error)
	DeleteSession(ctx context.Context, session string) error
	Close() error
}

// New creates the store selected by cfg
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case config.StorageMemory, "":
		return NewMemoryStore(cfg.TTL, cfg.CleanupInterval), nil
	case config.StorageMinIO:
		return NewMinIOStore(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// Key joins a session and artifact name
func Key(session, name string) (string, error) {
	if err := validPart(session); err != nil {
		return "", err
	}
	if err := validPart(name); err != nil {
		return "", err
	}
	return session + "/" + name, nil
}

func sessionPrefix(session string) (string, error) {
	if err := validPart(session); err != nil {
		return "", err
	}
	return session + "/", nil
}

func validPart(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return nil
}

func sortByName(list []domain.Artifact) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}
