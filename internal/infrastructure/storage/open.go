package storage

import (
	"context"
	"fmt"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// Open builds the router for cfg.Backend. The local store is always
// registered so refs written before a backend switch stay readable.
func Open(ctx context.Context, cfg *config.StorageConfig) (*Router, error) {
	local, err := NewLocalStore(cfg.LocalRoot)
	if err != nil {
		return nil, err
	}

	var active ObjectStore
	switch cfg.Backend {
	case "local", "":
		active = local
	case "minio":
		active, err = NewMinIOStore(ctx, &cfg.MinIO)
	case "s3":
		active, err = NewS3Store(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}

	return NewRouter(active, local), nil
}
