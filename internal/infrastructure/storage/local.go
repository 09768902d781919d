package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

// LocalStore keeps blobs on the local filesystem under a root directory
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Backend() entities.StorageBackend {
	return entities.StorageBackendLocal
}

// Upload writes the blob atomically: to a temp file first, then renamed into place
func (s *LocalStore) Upload(ctx context.Context, r io.Reader, size int64, name, folder, contentType string) (entities.StorageRef, error) {
	key := NewObjectKey(folder, name)
	dest, err := s.pathFor(key)
	if err != nil {
		return entities.StorageRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return entities.StorageRef{}, fmt.Errorf("failed to create folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return entities.StorageRef{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return entities.StorageRef{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return entities.StorageRef{}, fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return entities.StorageRef{}, fmt.Errorf("failed to move blob into place: %w", err)
	}

	return entities.StorageRef{Backend: entities.StorageBackendLocal, Key: key}, nil
}

func (s *LocalStore) Download(ctx context.Context, ref entities.StorageRef, destPath string) error {
	src, err := s.pathFor(ref.Key)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, ref.Key)
		}
		return fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	return writeFile(destPath, ctxReader{ctx: ctx, r: f})
}

func (s *LocalStore) Delete(ctx context.Context, ref entities.StorageRef) (bool, error) {
	p, err := s.pathFor(ref.Key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete blob: %w", err)
	}
	return true, nil
}

func (s *LocalStore) Exists(ctx context.Context, ref entities.StorageRef) (bool, error) {
	p, err := s.pathFor(ref.Key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *LocalStore) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// ctxReader stops a copy once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
