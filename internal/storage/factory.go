package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Options are passed to a Factory.
type Options struct {
	// DSN is the connection string of the backend.
	DSN string

	// Database names the database for backends whose DSN does not.
	Database string
}

// Factory opens a Repository.
type Factory func(ctx context.Context, opts Options) (Repository, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a storage type available to Open. Backends register
// themselves from init, so importing the backend package is enough:
//
//	import _ "github.com/lugondev/go-agora/internal/storage/postgres"
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("storage: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("storage: Register called twice for " + name)
	}
	factories[name] = factory
}

// Types returns the registered storage types.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a repository of the named type.
func Open(ctx context.Context, name string, opts Options) (Repository, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported storage type %q (registered: %v)", name, Types())
	}
	return factory(ctx, opts)
}
