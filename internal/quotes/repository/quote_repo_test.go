package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleQuote() *domain.Quote {
	return &domain.Quote{
		UserID:      "user-1",
		ProjectID:   "VCS-191",
		ProjectName: "Rimba Raya",
		Quantity:    2,
		TotalCost:   5,
		SelectedSources: []domain.SelectedSource{
			{SourceID: "pool-a", PoolName: "BCT", Quantity: 2, PricePerTon: 2.5, TotalCost: 5},
		},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
}

func TestQuoteRepository_SaveGet(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewQuoteRepository(client)
	ctx := context.Background()

	q := sampleQuote()
	require.NoError(t, repo.Save(ctx, q))
	require.NotEmpty(t, q.QuoteID)

	got, err := repo.Get(ctx, q.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, q.ProjectID, got.ProjectID)
	assert.Equal(t, q.SelectedSources, got.SelectedSources)

	ttl := mr.TTL(quoteKey(q.QuoteID))
	assert.Greater(t, ttl, 15*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute+expiredGrace)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
}

func TestQuoteRepository_ClaimOnce(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewQuoteRepository(client)
	ctx := context.Background()

	q := sampleQuote()
	require.NoError(t, repo.Save(ctx, q))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		already int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Claim(ctx, q.QuoteID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, domain.ErrQuoteAlreadyUsed) {
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, already)

	_, err := repo.Get(ctx, q.QuoteID)
	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
}

func TestQuoteRepository_ListByUser(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewQuoteRepository(client)
	ctx := context.Background()

	a, b := sampleQuote(), sampleQuote()
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	list, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.Claim(ctx, a.QuoteID)
	require.NoError(t, err)

	list, err = repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.QuoteID, list[0].QuoteID)

	list, err = repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	q := sampleQuote()
	require.NoError(t, repo.Save(ctx, q))

	got, err := repo.Get(ctx, q.QuoteID)
	require.NoError(t, err)
	got.SelectedSources[0].Quantity = 99

	again, err := repo.Get(ctx, q.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, again.SelectedSources[0].Quantity)

	list, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.Claim(ctx, q.QuoteID)
	require.NoError(t, err)
	_, err = repo.Claim(ctx, q.QuoteID)
	assert.ErrorIs(t, err, domain.ErrQuoteAlreadyUsed)
}
