package artifacts

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Antonpb/alfaapp/internal/config"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// fakeS3 implements the handful of path-style S3 calls the store makes
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string][]byte
	types    map[string]string
	modified time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:  map[string]bool{},
		objects:  map[string][]byte{},
		types:    map[string]string{},
		modified: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if key == "" {
		switch r.Method {
		case http.MethodHead:
			if f.buckets[bucket] {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			f.buckets[bucket] = true
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			// listing is refused so callers see a list error mid-range
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>listing disabled</Message><BucketName>`+bucket+`</BucketName></Error>`)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message><Key>`+key+`</Key></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Last-Modified", f.modified.Format(http.TimeFormat))
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestMinIOStore(t *testing.T) (*MinIOStore, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default().Storage
	cfg.Backend = config.StorageMinIO
	cfg.CleanupInterval = 0
	cfg.MinIO.Endpoint = strings.TrimPrefix(srv.URL, "http://")
	cfg.MinIO.AccessKey = "minio"
	cfg.MinIO.SecretKey = "minio123"
	cfg.MinIO.Region = "us-east-1"
	cfg.MinIO.Bucket = "alfaapp-test"

	s, err := NewMinIOStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, fake
}

func TestMinIOStore_CreatesBucket(t *testing.T) {
	_, fake := newTestMinIOStore(t)
	assert.True(t, fake.buckets["alfaapp-test"])
}

func TestMinIOStore_PutGet(t *testing.T) {
	s, fake := newTestMinIOStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s1", domain.NewArtifact(domain.ArtifactReport, []byte("%PDF-1.3"))))
	assert.Contains(t, fake.objects, "sessions/s1/report.pdf")
	assert.Equal(t, "application/pdf", fake.types["sessions/s1/report.pdf"])

	got, err := s.Get(ctx, "s1", domain.ArtifactReport)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), got.Data)
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.Equal(t, domain.ArtifactReport, got.Name)
}

func TestMinIOStore_GetMissing(t *testing.T) {
	s, _ := newTestMinIOStore(t)

	_, err := s.Get(context.Background(), "s1", domain.ArtifactMap)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMinIOStore_InvalidKey(t *testing.T) {
	s, _ := newTestMinIOStore(t)

	err := s.Put(context.Background(), "a/b", domain.NewArtifact(domain.ArtifactPlot, nil))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMinIOStore_ListErrors(t *testing.T) {
	s, fake := newTestMinIOStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, s.Put(ctx, "s1", domain.NewArtifact(domain.ArtifactPlot, []byte("png"))))

	_, err := s.List(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list session s1")

	err = s.DeleteSession(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list")
	assert.Contains(t, fake.objects, "sessions/s1/plot.png", "nothing is removed when listing fails")

	require.Error(t, s.Expire(ctx, time.Now()))
}
