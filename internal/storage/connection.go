package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/lugondev/go-agora/internal/config"
)

// ConnectionManager opens the audit repository once and shares it.
type ConnectionManager struct {
	config *config.AuditConfig

	mu         sync.Mutex
	repository Repository
}

func NewConnectionManager(cfg *config.AuditConfig) (*ConnectionManager, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("audit is not enabled in configuration")
	}

	return &ConnectionManager{
		config: cfg,
	}, nil
}

func (cm *ConnectionManager) Connect(ctx context.Context) (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository != nil {
		return cm.repository, nil
	}

	repo, err := Open(ctx, cm.config.Type, Options{
		DSN:      cm.config.DSN,
		Database: cm.config.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", cm.config.Type, err)
	}

	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", cm.config.Type, err)
	}

	cm.repository = repo
	return repo, nil
}

func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository == nil {
		return nil
	}
	err := cm.repository.Close()
	cm.repository = nil
	return err
}
