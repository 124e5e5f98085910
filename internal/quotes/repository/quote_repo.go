package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	quoteKeyPrefix     = "quote:"      // quote:{quote_id}
	userQuoteSetPrefix = "quote:user:" // quote:user:{user_id} -> set of quote ids

	// expiredGrace keeps a quote readable past its expiry so a late purchase
	// is told "expired" rather than "not found".
	expiredGrace = time.Hour
)

// QuoteRepository stores quotes in Redis until they are purchased or lapse.
type QuoteRepository struct {
	client *redis.Client
}

func NewQuoteRepository(client *redis.Client) *QuoteRepository {
	return &QuoteRepository{client: client}
}

func (r *QuoteRepository) Save(ctx context.Context, q *domain.Quote) error {
	if q.QuoteID == "" {
		q.QuoteID = uuid.New().String()
	}

	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	ttl := time.Until(q.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = expiredGrace
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, quoteKey(q.QuoteID), data, ttl)
	if q.UserID != "" {
		pipe.SAdd(ctx, userQuoteSetKey(q.UserID), q.QuoteID)
		pipe.Expire(ctx, userQuoteSetKey(q.UserID), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) Get(ctx context.Context, quoteID string) (*domain.Quote, error) {
	data, err := r.client.Get(ctx, quoteKey(quoteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return decode(data)
}

// Claim removes and returns the quote in one step. Of two concurrent claims
// exactly one gets the quote; the other sees ErrQuoteAlreadyUsed.
func (r *QuoteRepository) Claim(ctx context.Context, quoteID string) (*domain.Quote, error) {
	data, err := r.client.GetDel(ctx, quoteKey(quoteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrQuoteAlreadyUsed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim quote: %w", err)
	}

	q, err := decode(data)
	if err != nil {
		return nil, err
	}
	if q.UserID != "" {
		// best effort, the set expires on its own
		r.client.SRem(ctx, userQuoteSetKey(q.UserID), q.QuoteID)
	}
	return q, nil
}

// ListByUser returns the user's outstanding quotes. Ids whose quote has
// already been claimed or evicted are skipped.
func (r *QuoteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Quote, error) {
	ids, err := r.client.SMembers(ctx, userQuoteSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user quotes: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Quote{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, quoteKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load user quotes: %w", err)
	}

	quotes := make([]*domain.Quote, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		q, err := decode(data)
		if err != nil {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func decode(data []byte) (*domain.Quote, error) {
	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &q, nil
}

func quoteKey(id string) string {
	return quoteKeyPrefix + id
}

func userQuoteSetKey(userID string) string {
	return userQuoteSetPrefix + userID
}
