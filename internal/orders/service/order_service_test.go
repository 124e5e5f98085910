package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	"github.com/carbonchain/carbonchain-backend/internal/orders/repository"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingRepo struct {
	*repository.MemoryRepository
}

func (failingRepo) Create(context.Context, *domain.Order) error {
	return errors.New("db down")
}

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Put(_ context.Context, key string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://certs.example/" + key, nil
}

func claimedQuote() *quotes.Quote {
	return &quotes.Quote{
		QuoteID:         "q-1",
		UserID:          "user-1",
		ProjectID:       "VCS-191",
		ProjectName:     "Rimba Raya",
		Quantity:        2,
		TotalCost:       5,
		SelectedSources: []quotes.SelectedSource{{SourceID: "pool-a", Quantity: 2, PricePerTon: 2.5, TotalCost: 5}},
	}
}

var cert = quotes.Certificate{FirstName: "Ada", LastName: "Lovelace", Message: "for the forests"}

func TestRecord_SavesAndArchives(t *testing.T) {
	repo := repository.NewMemoryRepository()
	store := &fakeStore{}
	svc := NewOrderService(repo, store, zap.NewNop())
	ctx := context.Background()

	receipt := svc.Record(ctx, claimedQuote(), cert)
	assert.Equal(t, domain.StatusCompleted, receipt.Status)
	assert.Equal(t, "Ada Lovelace", receipt.Data.CertificateName)
	assert.Equal(t, 5.0, receipt.CarbonmarkOrder.TotalPrice)
	require.Len(t, store.keys, 1)
	assert.Contains(t, receipt.CertificateURL, store.keys[0])

	o, err := svc.Get(ctx, receipt.OrderID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, receipt.CertificateURL, o.CertificateURL)
	assert.Equal(t, "q-1", o.QuoteID)

	_, err = svc.Get(ctx, receipt.OrderID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRecord_HistoryFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewOrderService(failingRepo{repository.NewMemoryRepository()}, nil, zap.New(core))

	receipt := svc.Record(context.Background(), claimedQuote(), cert)
	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.OrderID)
	assert.Equal(t, 1, logs.FilterMessage("failed to save order history").Len())
}

func TestRecord_UploadFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewOrderService(repository.NewMemoryRepository(), &fakeStore{err: errors.New("denied")}, zap.New(core))

	receipt := svc.Record(context.Background(), claimedQuote(), cert)
	assert.Empty(t, receipt.CertificateURL)
	assert.Equal(t, 1, logs.FilterMessage("failed to archive certificate").Len())
}

func TestListByUser(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewOrderService(repo, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first := svc.Record(ctx, claimedQuote(), cert)

	q := claimedQuote()
	q.QuoteID = "q-2"
	svc.now = func() time.Time { return base.Add(time.Minute) }
	second := svc.Record(ctx, q, cert)

	list, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.OrderID, list[0].OrderID)
	assert.Equal(t, first.OrderID, list[1].OrderID)
}
