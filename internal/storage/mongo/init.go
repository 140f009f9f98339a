package mongo

import (
	"context"
	"fmt"

	"github.com/lugondev/go-agora/internal/storage"
)

// Type is the storage type name of this backend.
const Type = "mongo"

func init() {
	storage.Register(Type, func(ctx context.Context, opts storage.Options) (storage.Repository, error) {
		repo, err := NewMongoRepository(ctx, opts.DSN, opts.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongo repository: %w", err)
		}
		return repo, nil
	})
}
