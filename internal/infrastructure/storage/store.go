package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

var (
	// ErrObjectNotFound is returned by Download when the key does not exist
	ErrObjectNotFound = errors.New("object not found")
	// ErrBackendNotRegistered is returned when a ref names a backend this process cannot reach
	ErrBackendNotRegistered = errors.New("storage backend not registered")
	// ErrInvalidKey is returned for keys that are empty or escape the store root
	ErrInvalidKey = errors.New("invalid object key")
)

// ObjectStore is blob storage addressed by StorageRef.
// A ref returned by Upload is accepted unchanged by Download, Delete and Exists.
type ObjectStore interface {
	Backend() entities.StorageBackend
	Upload(ctx context.Context, r io.Reader, size int64, name, folder, contentType string) (entities.StorageRef, error)
	Download(ctx context.Context, ref entities.StorageRef, destPath string) error
	Delete(ctx context.Context, ref entities.StorageRef) (bool, error)
	Exists(ctx context.Context, ref entities.StorageRef) (bool, error)
}

// NewObjectKey builds "<folder>/<uuid><ext>" from the original file name
func NewObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ErrInvalidKey
	}
	return nil
}

// writeFile streams r into destPath, creating parent directories
func writeFile(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination dir: %w", err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	return f.Close()
}

// Router sends uploads to the active backend and every other operation to the
// backend named in the ref. Refs without a backend resolve to the active one.
type Router struct {
	active ObjectStore
	stores map[entities.StorageBackend]ObjectStore
}

// NewRouter creates a router; extra stores serve refs written by other backends
func NewRouter(active ObjectStore, others ...ObjectStore) *Router {
	stores := map[entities.StorageBackend]ObjectStore{active.Backend(): active}
	for _, s := range others {
		if s == nil {
			continue
		}
		if _, ok := stores[s.Backend()]; !ok {
			stores[s.Backend()] = s
		}
	}
	return &Router{active: active, stores: stores}
}

func (r *Router) Backend() entities.StorageBackend {
	return r.active.Backend()
}

func (r *Router) Upload(ctx context.Context, body io.Reader, size int64, name, folder, contentType string) (entities.StorageRef, error) {
	return r.active.Upload(ctx, body, size, name, folder, contentType)
}

func (r *Router) Download(ctx context.Context, ref entities.StorageRef, destPath string) error {
	s, err := r.storeFor(ref)
	if err != nil {
		return err
	}
	return s.Download(ctx, r.normalize(ref), destPath)
}

func (r *Router) Delete(ctx context.Context, ref entities.StorageRef) (bool, error) {
	s, err := r.storeFor(ref)
	if err != nil {
		return false, err
	}
	return s.Delete(ctx, r.normalize(ref))
}

func (r *Router) Exists(ctx context.Context, ref entities.StorageRef) (bool, error) {
	s, err := r.storeFor(ref)
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, r.normalize(ref))
}

func (r *Router) storeFor(ref entities.StorageRef) (ObjectStore, error) {
	if ref.Backend == "" {
		return r.active, nil
	}
	s, ok := r.stores[ref.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotRegistered, ref.Backend)
	}
	return s, nil
}

func (r *Router) normalize(ref entities.StorageRef) entities.StorageRef {
	if ref.Backend == "" {
		ref.Backend = r.active.Backend()
	}
	return ref
}
