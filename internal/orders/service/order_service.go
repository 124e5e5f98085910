package service

import (
	"context"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/orders/certificates"
	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	SetCertificateURL(ctx context.Context, orderID, url string) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrderService struct {
	repo  Repository
	certs certificates.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewOrderService wires order history with an optional certificate store;
// with a nil store certificates are not archived.
func NewOrderService(repo Repository, certs certificates.Store, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{repo: repo, certs: certs, log: log, now: time.Now}
}

// Record turns a claimed quote into an order. The purchase has already
// happened by the time this runs, so neither a history write failure nor a
// certificate upload failure is returned; both are logged and the receipt is
// still produced.
func (s *OrderService) Record(ctx context.Context, q *quotes.Quote, cert quotes.Certificate) *domain.Receipt {
	o := &domain.Order{
		OrderID:     uuid.New().String(),
		QuoteID:     q.QuoteID,
		UserID:      q.UserID,
		ProjectID:   q.ProjectID,
		ProjectName: q.ProjectName,
		Quantity:    q.Quantity,
		TotalCost:   q.TotalCost,
		Items:       q.SelectedSources,
		Certificate: domain.CertificateFrom(cert),
		Status:      domain.StatusCompleted,
		CreatedAt:   s.now().UTC(),
	}

	log := s.log.With(zap.String("order_id", o.OrderID), zap.String("quote_id", o.QuoteID))

	saved := true
	if err := s.repo.Create(ctx, o); err != nil {
		saved = false
		log.Error("failed to save order history", zap.Error(err))
	}

	if s.certs != nil {
		if url, err := s.archive(ctx, o); err != nil {
			log.Warn("failed to archive certificate", zap.Error(err))
		} else {
			o.CertificateURL = url
			if saved {
				if err := s.repo.SetCertificateURL(ctx, o.OrderID, url); err != nil {
					log.Warn("failed to store certificate url", zap.Error(err))
				}
			}
		}
	}

	log.Info("order recorded",
		zap.String("user_id", o.UserID),
		zap.String("project_id", o.ProjectID),
		zap.Float64("quantity", o.Quantity),
		zap.Float64("total_cost", o.TotalCost))

	return domain.NewReceipt(o)
}

func (s *OrderService) archive(ctx context.Context, o *domain.Order) (string, error) {
	body, err := certificates.Render(o)
	if err != nil {
		return "", err
	}
	return s.certs.Put(ctx, certificates.ObjectKey(o), body)
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns the order only to the user who placed it.
func (s *OrderService) Get(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}
