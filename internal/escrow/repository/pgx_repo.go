package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonchain/carbonchain-backend/internal/escrow/domain"
)

// Schema is applied by EnsureSchema. Wei amounts are numeric(78,0), wide
// enough for any uint256.
const Schema = `
create table if not exists escrow_projects (
    id                bigserial primary key,
    proposer          text not null,
    beneficiary       text not null,
    verifier          text not null,
    initiative        text not null default '',
    metadata_uri      text not null default '',
    goal              numeric(78,0) not null default 0,
    deadline          timestamptz,
    state             smallint not null default 0,
    total_contributed numeric(78,0) not null default 0,
    released          numeric(78,0) not null default 0,
    cancel_reason     text not null default '',
    created_at        timestamptz not null default now(),
    updated_at        timestamptz not null default now()
);

create table if not exists escrow_contributions (
    project_id  bigint not null references escrow_projects(id),
    contributor text not null,
    amount      numeric(78,0) not null default 0,
    refunded    boolean not null default false,
    primary key (project_id, contributor)
);
`

type PgxRepository struct {
	db *pgxpool.Pool
}

func NewPgxRepository(db *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{db: db}
}

func (r *PgxRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply escrow schema: %w", err)
	}
	return nil
}

func (r *PgxRepository) Create(ctx context.Context, p *domain.Project) error {
	const q = `
insert into escrow_projects (proposer, beneficiary, verifier, initiative, metadata_uri, goal, deadline, state)
values ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
returning id, created_at, updated_at;
`
	return r.db.QueryRow(ctx, q,
		p.Proposer, p.Beneficiary, p.Verifier, p.Initiative, p.MetadataURI,
		p.Goal.String(), nullableTime(p.Deadline), int16(p.State),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PgxRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return r.load(ctx, r.db, id, false)
}

func (r *PgxRepository) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx, `select id from escrow_projects order by id;`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Project, 0, len(ids))
	for _, id := range ids {
		p, err := r.load(ctx, r.db, id, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update locks the project row for the duration of fn, then writes the
// project and its contributions back in the same transaction.
func (r *PgxRepository) Update(ctx context.Context, id int64, fn func(*domain.Project) error) (*domain.Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := r.load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	const upd = `
update escrow_projects
set state = $2, total_contributed = $3::numeric, released = $4::numeric,
    cancel_reason = $5, updated_at = now()
where id = $1
returning updated_at;
`
	if err := tx.QueryRow(ctx, upd, p.ID, int16(p.State), p.TotalContributed.String(),
		p.Released.String(), p.CancelReason).Scan(&p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update escrow project: %w", err)
	}

	const upsert = `
insert into escrow_contributions (project_id, contributor, amount, refunded)
values ($1, $2, $3::numeric, $4)
on conflict (project_id, contributor)
do update set amount = excluded.amount, refunded = excluded.refunded;
`
	batch := &pgx.Batch{}
	for _, c := range p.SortedContributions() {
		batch.Queue(upsert, p.ID, c.Contributor, c.Amount.String(), c.Refunded)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("upsert contributions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PgxRepository) load(ctx context.Context, db querier, id int64, forUpdate bool) (*domain.Project, error) {
	q := `
select id, proposer, beneficiary, verifier, initiative, metadata_uri, goal::text, deadline,
       state, total_contributed::text, released::text, cancel_reason, created_at, updated_at
from escrow_projects
where id = $1`
	if forUpdate {
		q += ` for update`
	}

	var (
		p                     domain.Project
		goal, total, released string
		deadline              *time.Time
		state                 int16
	)
	err := db.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Proposer, &p.Beneficiary, &p.Verifier, &p.Initiative, &p.MetadataURI,
		&goal, &deadline, &state, &total, &released, &p.CancelReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectDoesNotExist
	}
	if err != nil {
		return nil, err
	}

	p.State = domain.State(state)
	if deadline != nil {
		p.Deadline = deadline.UTC()
	}
	if p.Goal, err = parseWei(goal); err != nil {
		return nil, err
	}
	if p.TotalContributed, err = parseWei(total); err != nil {
		return nil, err
	}
	if p.Released, err = parseWei(released); err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
select contributor, amount::text, refunded
from escrow_contributions
where project_id = $1;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Contributions = make(map[string]*domain.Contribution)
	for rows.Next() {
		var (
			c      domain.Contribution
			amount string
		)
		if err := rows.Scan(&c.Contributor, &amount, &c.Refunded); err != nil {
			return nil, err
		}
		if c.Amount, err = parseWei(amount); err != nil {
			return nil, err
		}
		p.Contributions[c.Contributor] = &c
	}
	return &p, rows.Err()
}

func parseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei value %q", s)
	}
	return v, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
