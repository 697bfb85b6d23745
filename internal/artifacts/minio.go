package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Antonpb/alfaapp/internal/config"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

// objectPrefix is the bucket folder holding all sessions
const objectPrefix = "sessions/"

// MinIOStore keeps artifacts in an S3 compatible bucket
type MinIOStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	logger *slog.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewMinIOStore connects to MinIO, creates the bucket if needed and starts
// the expiry janitor.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &MinIOStore{
		client: client,
		bucket: cfg.MinIO.Bucket,
		ttl:    cfg.TTL,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if err := s.ensureBucket(ctx, cfg.MinIO.Region); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval > 0 && cfg.TTL > 0 {
		s.wg.Add(1)
		go s.janitor(cfg.CleanupInterval)
	}
	return s, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads an artifact
func (s *MinIOStore) Put(ctx context.Context, session string, a domain.Artifact) error {
	key, err := Key(session, a.Name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectPrefix+key, bytes.NewReader(a.Data), int64(len(a.Data)), minio.PutObjectOptions{
		ContentType: a.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Get downloads an artifact
func (s *MinIOStore) Get(ctx context.Context, session, name string) (domain.Artifact, error) {
	key, err := Key(session, name)
	if err != nil {
		return domain.Artifact{}, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectPrefix+key, minio.GetObjectOptions{})
	if err != nil {
		return domain.Artifact{}, s.translate(err, key)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return domain.Artifact{}, s.translate(err, key)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return domain.Artifact{}, s.translate(err, key)
	}
	return domain.Artifact{
		Name:        name,
		ContentType: info.ContentType,
		Size:        len(data),
		CreatedAt:   info.LastModified,
		Data:        data,
	}, nil
}

// List returns artifact metadata for a session without payloads
func (s *MinIOStore) List(ctx context.Context, session string) ([]domain.Artifact, error) {
	prefix, err := sessionPrefix(session)
	if err != nil {
		return nil, err
	}
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []domain.Artifact
	for obj := range s.client.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Prefix: objectPrefix + prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list session %s: %w", session, obj.Err)
		}
		name := path.Base(obj.Key)
		ct := obj.ContentType
		if ct == "" {
			ct = domain.NewArtifact(name, nil).ContentType
		}
		out = append(out, domain.Artifact{
			Name:        name,
			ContentType: ct,
			Size:        int(obj.Size),
			CreatedAt:   obj.LastModified,
		})
	}
	sortByName(out)
	return out, nil
}

// DeleteSession removes every object under the session prefix
func (s *MinIOStore) DeleteSession(ctx context.Context, session string) error {
	prefix, err := sessionPrefix(session)
	if err != nil {
		return err
	}
	return s.removeWhere(ctx, objectPrefix+prefix, func(minio.ObjectInfo) bool { return true })
}

// Expire removes objects last modified before cutoff
func (s *MinIOStore) Expire(ctx context.Context, cutoff time.Time) error {
	return s.removeWhere(ctx, objectPrefix, func(o minio.ObjectInfo) bool {
		return o.LastModified.Before(cutoff)
	})
}

// removeWhere deletes matching objects under prefix. Returning early cancels
// the listing so the lister goroutine exits.
func (s *MinIOStore) removeWhere(ctx context.Context, prefix string, match func(minio.ObjectInfo) bool) error {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		if !match(obj) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (s *MinIOStore) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if err := s.Expire(ctx, now.Add(-s.ttl)); err != nil {
				s.logger.Warn("artifact expiry failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

// Close stops the janitor
func (s *MinIOStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

func (s *MinIOStore) translate(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to get object %s: %w", key, err)
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || strings.EqualFold(code, "NotFound")
}
