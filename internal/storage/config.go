package storage

import (
	"context"
	"fmt"
)

// Config holds storage configuration
type Config struct {
	Type      string // "local" or "gcs"
	UploadDir string // root directory for local storage
	Bucket    string // bucket for gcs
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir)
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
