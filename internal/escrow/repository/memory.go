package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/escrow/domain"
)

// MemoryRepository is a process-local ledger. Update holds the lock across
// the mutation, so transitions on one project are serialized.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]*domain.Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projects: make(map[int64]*domain.Project)}
}

func (r *MemoryRepository) Create(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.CreatedAt, p.UpdatedAt = now, now
	r.projects[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectDoesNotExist
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update applies fn to a copy and stores it only if fn succeeds.
func (r *MemoryRepository) Update(_ context.Context, id int64, fn func(*domain.Project) error) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectDoesNotExist
	}
	cp := p.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now().UTC()
	r.projects[id] = cp
	return cp.Clone(), nil
}
