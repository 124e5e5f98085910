package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	mkt "github.com/carbonchain/carbonchain-backend/internal/marketplace/domain"
	orders "github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/calc"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/selection"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectSource returns live project data, bypassing any display cache.
type ProjectSource interface {
	FreshProject(ctx context.Context, id string) (*mkt.Project, error)
}

type Store interface {
	Save(ctx context.Context, q *domain.Quote) error
	Get(ctx context.Context, quoteID string) (*domain.Quote, error)
	Claim(ctx context.Context, quoteID string) (*domain.Quote, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Quote, error)
}

type OrderRecorder interface {
	Record(ctx context.Context, q *domain.Quote, cert domain.Certificate) *orders.Receipt
}

type Options struct {
	TTL           time.Duration
	CostTolerance float64
}

type QuoteService struct {
	projects ProjectSource
	store    Store
	orders   OrderRecorder
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func NewQuoteService(projects ProjectSource, store Store, orders OrderRecorder, opts Options, log *zap.Logger) *QuoteService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	return &QuoteService{
		projects: projects,
		store:    store,
		orders:   orders,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// GetQuote prices the request against live supply and stores the quote.
func (s *QuoteService) GetQuote(ctx context.Context, req domain.QuoteRequest, userID string) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.AmountUSD == 0 && calc.FloorCents(req.Quantity) <= 0 {
		return nil, &domain.ValidationError{Fields: map[string]string{
			"quantity": "quantity must be at least 0.01",
		}}
	}

	project, err := s.projects.FreshProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	available := selection.Available(project.Prices)
	amount, err := requestedAmount(req, float64(project.Price), available)
	if err != nil {
		return nil, err
	}
	quantity := amount.tons

	res, err := selection.Select(project.Prices, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientSupply) {
			return nil, fmt.Errorf("%w: requested %.2f, available %.2f",
				err, quantity, calc.FloorCents(available))
		}
		return nil, err
	}

	expected := req.TotalCost
	if expected <= 0 {
		expected = amount.usd
	}
	if expected <= 0 {
		expected = calc.RoundCents(calc.TonsToUSD(quantity, float64(project.Price)))
	}

	now := s.now().UTC()
	q := &domain.Quote{
		QuoteID:             uuid.New().String(),
		UserID:              userID,
		ProjectID:           req.ProjectID,
		ProjectName:         projectName(project, req.ProjectData),
		Registry:            project.Registry,
		Quantity:            quantity,
		ExpectedCost:        expected,
		TotalCost:           res.TotalCost,
		CostExceedsExpected: expected > 0 && selection.CostExceedsExpected(res.TotalCost, expected, s.opts.CostTolerance),
		SupplyExceeded:      amount.supplyExceeded,
		AmountUSD:           amount.usd,
		SelectedSources:     res.Sources,
		Certificate:         req.Certificate(),
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.opts.TTL),
	}

	if err := s.store.Save(ctx, q); err != nil {
		return nil, err
	}

	s.log.Info("quote created",
		zap.String("quote_id", q.QuoteID),
		zap.String("user_id", userID),
		zap.String("project_id", q.ProjectID),
		zap.Float64("quantity", q.Quantity),
		zap.Float64("total_cost", q.TotalCost),
		zap.Int("sources", len(q.SelectedSources)),
		zap.Bool("cost_exceeds_expected", q.CostExceedsExpected))
	return q, nil
}

type requested struct {
	tons           float64
	usd            float64
	supplyExceeded bool
}

// requestedAmount turns the request into tons floored to cents. A USD amount
// is converted at the project price after being capped at what the listed
// supply covers. Tons are capped only when the caller asks for it; otherwise
// an oversized request fails selection with ErrInsufficientSupply.
func requestedAmount(req domain.QuoteRequest, price, available float64) (requested, error) {
	var out requested
	field := "quantity"
	tons := req.Quantity

	if req.AmountUSD > 0 {
		field = "amountUsd"
		usd, capped, err := calc.CapUSD(req.AmountUSD, price, available)
		if errors.Is(err, calc.ErrZeroPrice) {
			return out, &domain.ValidationError{Fields: map[string]string{
				field: "project has no price to convert USD at; quote by quantity",
			}}
		}
		if err != nil {
			return out, err
		}
		if tons, err = calc.USDToTons(usd, price); err != nil {
			return out, err
		}
		out.usd = usd
		out.supplyExceeded = capped
	}

	clamped, atCap, err := calc.ClampQuantity(tons, available)
	if err != nil {
		return out, &domain.ValidationError{Fields: map[string]string{field: err.Error()}}
	}
	out.supplyExceeded = out.supplyExceeded || atCap
	if req.AmountUSD > 0 || req.ClampToSupply {
		out.tons = clamped
	} else {
		out.tons = calc.FloorCents(tons)
	}

	if out.tons <= 0 {
		return out, &domain.ValidationError{Fields: map[string]string{
			field: "amount is below the smallest tradable quantity of 0.01 t",
		}}
	}
	return out, nil
}

// Purchase confirms a quote into an order. Checks run against a read of the
// quote first so a refused purchase leaves it usable; the claim itself is
// atomic, so a quote is purchased at most once.
func (s *QuoteService) Purchase(ctx context.Context, req domain.PurchaseRequest, userID string) (*orders.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q, err := s.store.Get(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	if q.UserID != "" && q.UserID != userID {
		return nil, domain.ErrQuoteOwnership
	}
	if q.Expired(s.now()) {
		return nil, domain.ErrQuoteExpired
	}

	cert := req.Certificate(q.Certificate)
	if err := cert.Validate(); err != nil {
		return nil, err
	}

	claimed, err := s.store.Claim(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	if claimed.UserID == "" {
		claimed.UserID = userID
	}

	return s.orders.Record(ctx, claimed, cert), nil
}

// ListQuotes returns the user's outstanding, unexpired quotes.
func (s *QuoteService) ListQuotes(ctx context.Context, userID string) ([]*domain.Quote, error) {
	all, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*domain.Quote, 0, len(all))
	for _, q := range all {
		if !q.Expired(now) {
			out = append(out, q)
		}
	}
	return out, nil
}

func projectName(p *mkt.Project, snapshot *domain.ProjectData) string {
	if p.Name != "" {
		return p.Name
	}
	if snapshot != nil && snapshot.Name != "" {
		return snapshot.Name
	}
	return p.Key
}
