package postgres

import (
	"context"
	"fmt"

	"github.com/lugondev/go-agora/internal/storage"
)

// Type is the storage type name of this backend.
const Type = "postgres"

func init() {
	storage.Register(Type, func(ctx context.Context, opts storage.Options) (storage.Repository, error) {
		repo, err := NewPostgresRepository(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres repository: %w", err)
		}
		return repo, nil
	})
}
