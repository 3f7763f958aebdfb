package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory implementation of the Repository
// interface, used by the CLI and in tests
type MemoryRepository struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		workflows: make(map[string]*Workflow),
	}
}

// List returns all stored workflows, most recently updated first
func (r *MemoryRepository) List(_ context.Context) ([]*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflows := make([]*Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		copied := *wf
		workflows = append(workflows, &copied)
	}
	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].UpdatedAt.After(workflows[j].UpdatedAt)
	})
	return workflows, nil
}

// Get retrieves a workflow by its ID
func (r *MemoryRepository) Get(_ context.Context, id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wf, ok := r.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *wf
	return &copied, nil
}

// Save creates or updates a workflow
func (r *MemoryRepository) Save(_ context.Context, wf *Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
	}
	wf.UpdatedAt = now

	copied := *wf
	r.workflows[wf.ID] = &copied
	return nil
}

// Delete removes a workflow by its ID
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(r.workflows, id)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
