package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// TypeMemory keeps records in process memory. It is the default audit store.
const TypeMemory = "memory"

func init() {
	Register(TypeMemory, func(context.Context, Options) (Repository, error) {
		return NewMemoryRepository(), nil
	})
}

var errClosed = errors.New("repository is closed")

// MemoryRepository is a Repository held in memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*SubmissionModel
	closed  bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*SubmissionModel)}
}

func (r *MemoryRepository) Submissions() SubmissionRepository {
	return r
}

func (r *MemoryRepository) Save(ctx context.Context, submission *SubmissionModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errClosed
	}
	stored := *submission
	r.records[submission.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*SubmissionModel, error) {
	return r.findOne(ctx, func(m *SubmissionModel) bool { return m.ID == id })
}

func (r *MemoryRepository) FindBySignature(ctx context.Context, signature string) (*SubmissionModel, error) {
	return r.findOne(ctx, func(m *SubmissionModel) bool { return m.Signature == signature })
}

func (r *MemoryRepository) FindByGovernor(ctx context.Context, governor string, limit int) ([]*SubmissionModel, error) {
	found, err := r.find(ctx, func(m *SubmissionModel) bool { return m.Governor == governor })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r *MemoryRepository) findOne(ctx context.Context, match func(*SubmissionModel) bool) (*SubmissionModel, error) {
	found, err := r.find(ctx, match)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// find returns copies of the matching records, newest first.
func (r *MemoryRepository) find(ctx context.Context, match func(*SubmissionModel) bool) ([]*SubmissionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}

	var found []*SubmissionModel
	for _, m := range r.records {
		if match(m) {
			c := *m
			found = append(found, &c)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].CreatedAt.After(found[j].CreatedAt)
		}
		return found[i].ID > found[j].ID
	})
	return found, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errClosed
	}
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}
