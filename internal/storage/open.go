package storage

import (
	"context"
	"fmt"

	"docvault/internal/config"
)

// Open returns the Storage selected by cfg.Driver: "minio" (default) or "bolt".
// Drivers holding local resources also implement io.Closer.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "minio":
		s, err := NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		b, err := NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
