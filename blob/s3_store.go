package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3BlobStore implements BlobStore against an S3-compatible endpoint
// (MinIO, AWS S3), with an in-process cache in front for read-after-
// write consistency within a single run.
type S3BlobStore struct {
	client     *minio.Client
	bucketName string
	mu         sync.RWMutex
	cache      map[string]*Blob
	logger     *slog.Logger
}

// S3BlobStoreConfig configures an S3BlobStore.
type S3BlobStoreConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// NewS3BlobStore creates an S3-backed blob store and ensures the target
// bucket exists.
func NewS3BlobStore(config S3BlobStoreConfig) (*S3BlobStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: create minio client: %w", err)
	}

	store := &S3BlobStore{
		client:     client,
		bucketName: config.BucketName,
		cache:      make(map[string]*Blob),
		logger:     slog.Default(),
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("blob: check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, config.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("blob: create bucket: %w", err)
		}
	}

	return store, nil
}

// NewLocalS3BlobStore points at a local MinIO instance, for development
// and integration tests.
func NewLocalS3BlobStore() (*S3BlobStore, error) {
	return NewS3BlobStore(S3BlobStoreConfig{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		BucketName:      "shadowdiff-blobs",
		UseSSL:          false,
	})
}

func (s *S3BlobStore) Store(ctx context.Context, blob *Blob) error {
	objectName := s.getObjectName(blob)

	s.mu.Lock()
	s.cache[objectName] = blob
	s.mu.Unlock()

	reader := strings.NewReader(string(blob.Data))
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, int64(len(blob.Data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		s.logger.Warn("blob: s3 store failed, continuing with cache only", "object", objectName, "error", err)
	}

	return nil
}

func (s *S3BlobStore) RetrieveSnapshotBlob(version int64) *Blob {
	return s.retrieveBlob(fmt.Sprintf("snapshots/snapshot-%d.blob", version), Snapshot, version)
}

func (s *S3BlobStore) RetrieveDeltaBlob(fromVersion int64) *Blob {
	return s.retrieveBlob(fmt.Sprintf("deltas/delta-%d.blob", fromVersion), Delta, fromVersion)
}

func (s *S3BlobStore) RetrieveReverseBlob(toVersion int64) *Blob {
	return s.retrieveBlob(fmt.Sprintf("reverse/reverse-%d.blob", toVersion), Reverse, toVersion)
}

func (s *S3BlobStore) retrieveBlob(objectName string, blobType Type, version int64) *Blob {
	s.mu.RLock()
	blob, exists := s.cache[objectName]
	s.mu.RUnlock()
	if exists {
		return blob
	}

	ctx := context.Background()
	object, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil
	}

	blob = &Blob{Type: blobType, Version: version, Data: data}

	s.mu.Lock()
	s.cache[objectName] = blob
	s.mu.Unlock()

	return blob
}

func (s *S3BlobStore) RemoveSnapshot(version int64) error {
	objectName := fmt.Sprintf("snapshots/snapshot-%d.blob", version)

	s.mu.Lock()
	delete(s.cache, objectName)
	s.mu.Unlock()

	ctx := context.Background()
	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("blob: remove snapshot: %w", err)
	}
	return nil
}

func (s *S3BlobStore) ListVersions() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	for objectName := range s.cache {
		if version := s.extractVersionFromObjectName(objectName); version > 0 {
			seen[version] = true
		}
	}

	result := make([]int64, 0, len(seen))
	for version := range seen {
		result = append(result, version)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (s *S3BlobStore) getObjectName(blob *Blob) string {
	switch blob.Type {
	case Snapshot:
		return fmt.Sprintf("snapshots/snapshot-%d.blob", blob.Version)
	case Delta:
		return fmt.Sprintf("deltas/delta-%d.blob", blob.FromVersion)
	case Reverse:
		return fmt.Sprintf("reverse/reverse-%d.blob", blob.ToVersion)
	default:
		return fmt.Sprintf("unknown/blob-%d.blob", blob.Version)
	}
}

func (s *S3BlobStore) extractVersionFromObjectName(objectName string) int64 {
	parts := strings.Split(objectName, "/")
	if len(parts) != 2 {
		return 0
	}

	filename := parts[1]
	if strings.HasPrefix(filename, "snapshot-") {
		versionStr := strings.TrimSuffix(strings.TrimPrefix(filename, "snapshot-"), ".blob")
		if version, err := strconv.ParseInt(versionStr, 10, 64); err == nil {
			return version
		}
	}
	return 0
}
