package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

// MemoryRepository keeps order history in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[string]domain.Order
	byQuote map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:  make(map[string]domain.Order),
		byQuote: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.OrderID]; ok {
		return domain.ErrDuplicateOrder
	}
	if _, ok := r.byQuote[o.QuoteID]; ok {
		return domain.ErrDuplicateOrder
	}
	r.orders[o.OrderID] = cloneOrder(*o)
	r.byQuote[o.QuoteID] = o.OrderID
	return nil
}

func (r *MemoryRepository) SetCertificateURL(_ context.Context, orderID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.CertificateURL = url
	r.orders[orderID] = o
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			c := cloneOrder(o)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]quotes.SelectedSource(nil), o.Items...)
	return o
}
