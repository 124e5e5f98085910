package repository

import (
	"context"
	"sync"

	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/google/uuid"
)

// MemoryRepository is the quote store used when Redis is not configured.
// Quotes are never evicted; expiry is still enforced by the service.
type MemoryRepository struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{quotes: make(map[string]domain.Quote)}
}

func (r *MemoryRepository) Save(_ context.Context, q *domain.Quote) error {
	if q.QuoteID == "" {
		q.QuoteID = uuid.New().String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[q.QuoteID] = cloneQuote(*q)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, quoteID string) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	out := cloneQuote(q)
	return &out, nil
}

func (r *MemoryRepository) Claim(_ context.Context, quoteID string) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok {
		return nil, domain.ErrQuoteAlreadyUsed
	}
	delete(r.quotes, quoteID)
	return &q, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Quote{}
	for _, q := range r.quotes {
		if q.UserID == userID {
			c := cloneQuote(q)
			out = append(out, &c)
		}
	}
	return out, nil
}

func cloneQuote(q domain.Quote) domain.Quote {
	q.SelectedSources = append([]domain.SelectedSource(nil), q.SelectedSources...)
	return q
}
