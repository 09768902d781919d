package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// MinIOStore wraps MinIO operations
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates a new MinIO client and makes sure the bucket exists
func NewMinIOStore(ctx context.Context, cfg *config.MinIOConfig) (*MinIOStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStore{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

// ensureBucket creates the bucket if it does not exist.
// Recordings stay private: no bucket policy is applied.
func (m *MinIOStore) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (m *MinIOStore) Backend() entities.StorageBackend {
	return entities.StorageBackendMinIO
}

func (m *MinIOStore) Upload(ctx context.Context, r io.Reader, size int64, name, folder, contentType string) (entities.StorageRef, error) {
	key := NewObjectKey(folder, name)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return entities.StorageRef{}, fmt.Errorf("failed to upload file: %w", err)
	}
	return entities.StorageRef{Backend: entities.StorageBackendMinIO, Key: key}, nil
}

func (m *MinIOStore) Download(ctx context.Context, ref entities.StorageRef, destPath string) error {
	if err := validateKey(ref.Key); err != nil {
		return err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces a missing key before the file is created.
	if _, err := obj.Stat(); err != nil {
		if isMinIONotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, ref.Key)
		}
		return fmt.Errorf("failed to stat object: %w", err)
	}
	return writeFile(destPath, obj)
}

func (m *MinIOStore) Delete(ctx context.Context, ref entities.StorageRef) (bool, error) {
	exists, err := m.Exists(ctx, ref)
	if err != nil || !exists {
		return false, err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, ref.Key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("failed to remove object: %w", err)
	}
	return true, nil
}

func (m *MinIOStore) Exists(ctx context.Context, ref entities.StorageRef) (bool, error) {
	if err := validateKey(ref.Key); err != nil {
		return false, err
	}
	_, err := m.client.StatObject(ctx, m.bucket, ref.Key, minio.StatObjectOptions{})
	if err != nil {
		if isMinIONotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

func isMinIONotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
