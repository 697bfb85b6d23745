package artifacts

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// MemoryStore keeps artifacts in process memory until their TTL expires
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store. The cleanup interval drives the
// janitor that evicts expired sessions.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Put stores an artifact with the default TTL
func (s *MemoryStore) Put(_ context.Context, session string, a domain.Artifact) error {
	key, err := Key(session, a.Name)
	if err != nil {
		return err
	}
	a.Data = append([]byte(nil), a.Data...)
	a.Size = len(a.Data)
	s.cache.SetDefault(key, a)
	return nil
}

// Get retrieves an artifact
func (s *MemoryStore) Get(_ context.Context, session, name string) (domain.Artifact, error) {
	key, err := Key(session, name)
	if err != nil {
		return domain.Artifact{}, err
	}
	if val, found := s.cache.Get(key); found {
		return val.(domain.Artifact), nil
	}
	return domain.Artifact{}, ErrNotFound
}

// List returns the session's artifacts ordered by name
func (s *MemoryStore) List(_ context.Context, session string) ([]domain.Artifact, error) {
	prefix, err := sessionPrefix(session)
	if err != nil {
		return nil, err
	}
	var out []domain.Artifact
	for key, item := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, item.Object.(domain.Artifact))
		}
	}
	sortByName(out)
	return out, nil
}

// DeleteSession removes every artifact of a session
func (s *MemoryStore) DeleteSession(_ context.Context, session string) error {
	prefix, err := sessionPrefix(session)
	if err != nil {
		return err
	}
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	return nil
}

// Len returns the number of stored artifacts, expired ones included until
// the janitor runs
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}

// Close drops every stored artifact
func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
