package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Schema is applied by EnsureSchema. quote_id is unique so a quote is
// purchased at most once.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
    order_id        TEXT PRIMARY KEY,
    quote_id        TEXT NOT NULL UNIQUE,
    user_id         TEXT NOT NULL,
    project_id      TEXT NOT NULL,
    project_name    TEXT NOT NULL,
    quantity        DOUBLE PRECISION NOT NULL,
    total_cost      DOUBLE PRECISION NOT NULL,
    items           JSONB NOT NULL,
    certificate     JSONB NOT NULL,
    certificate_url TEXT,
    status          TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC);
`

// OrderRepository persists order history in Postgres through database/sql.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply orders schema: %w", err)
	}
	return nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (order_id, quote_id, user_id, project_id, project_name, quantity,
		                    total_cost, items, certificate, certificate_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	cert, err := json.Marshal(o.Certificate)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		o.OrderID,
		o.QuoteID,
		o.UserID,
		o.ProjectID,
		o.ProjectName,
		o.Quantity,
		o.TotalCost,
		items,
		cert,
		sql.NullString{String: o.CertificateURL, Valid: o.CertificateURL != ""},
		o.Status,
		o.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) SetCertificateURL(ctx context.Context, orderID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET certificate_url = $2 WHERE order_id = $1`, orderID, url)
	if err != nil {
		return fmt.Errorf("failed to update certificate url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrders+` WHERE order_id = $1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	return o, err
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrders+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const selectOrders = `
	SELECT order_id, quote_id, user_id, project_id, project_name, quantity, total_cost,
	       items, certificate, certificate_url, status, created_at
	FROM orders`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o       domain.Order
		items   []byte
		cert    []byte
		certURL sql.NullString
	)
	err := s.Scan(
		&o.OrderID,
		&o.QuoteID,
		&o.UserID,
		&o.ProjectID,
		&o.ProjectName,
		&o.Quantity,
		&o.TotalCost,
		&items,
		&cert,
		&certURL,
		&o.Status,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
	}
	if len(cert) > 0 {
		if err := json.Unmarshal(cert, &o.Certificate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
		}
	}
	if certURL.Valid {
		o.CertificateURL = certURL.String
	}
	return &o, nil
}
