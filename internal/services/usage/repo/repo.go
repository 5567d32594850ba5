// Package repo provides the usage counters repository on Postgres
package repo

import (
	"context"

	perr "creatorhoop/internal/platform/errors"
	"creatorhoop/internal/platform/store"
	"creatorhoop/internal/services/usage/domain"
)

// Storage defines the usage repository
type Storage interface {
	Ensure(ctx context.Context) error
	Get(ctx context.Context, q store.RowQuerier, userID, feature, month string) (domain.Counter, bool, error)
	GetForUpdate(ctx context.Context, q store.RowQuerier, userID, feature, month string) (domain.Counter, bool, error)
	Upsert(ctx context.Context, q store.RowQuerier, c domain.Counter) error
}

// PG implements Storage against a pgx-backed querier
type PG struct {
	DB store.TxRunner
}

// NewPG constructs a Postgres usage repo
func NewPG(db store.TxRunner) *PG { return &PG{DB: db} }

const ensureDDL = `
CREATE TABLE IF NOT EXISTS usage_counters (
  id SERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  feature TEXT NOT NULL,
  month TEXT NOT NULL,
  plan TEXT,
  used INTEGER NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (user_id, feature, month)
);
CREATE INDEX IF NOT EXISTS idx_usage_lookup ON usage_counters (user_id, feature, month);`

// Ensure creates the usage_counters table when missing
func (r *PG) Ensure(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, ensureDDL); err != nil {
		return perr.FromPG(err, "usage.ensure")
	}
	return nil
}

func (r *PG) get(ctx context.Context, q store.RowQuerier, userID, feature, month, suffix string) (domain.Counter, bool, error) {
	c := domain.Counter{UserID: userID, Feature: feature, Month: month}
	row := q.QueryRow(ctx,
		`SELECT COALESCE(plan, ''), used FROM usage_counters
		 WHERE user_id = $1 AND feature = $2 AND month = $3`+suffix,
		userID, feature, month)
	if err := row.Scan(&c.Plan, &c.Used); err != nil {
		if perr.IsNoRows(err) {
			return c, false, nil
		}
		return c, false, perr.FromPG(err, "usage.get")
	}
	return c, true, nil
}

// Get reads a counter; found=false when no row exists yet
func (r *PG) Get(ctx context.Context, q store.RowQuerier, userID, feature, month string) (domain.Counter, bool, error) {
	return r.get(ctx, q, userID, feature, month, "")
}

// GetForUpdate reads a counter holding a row lock for the enclosing tx
func (r *PG) GetForUpdate(ctx context.Context, q store.RowQuerier, userID, feature, month string) (domain.Counter, bool, error) {
	return r.get(ctx, q, userID, feature, month, " FOR UPDATE")
}

// Upsert writes the counter value for its (user, feature, month) key
func (r *PG) Upsert(ctx context.Context, q store.RowQuerier, c domain.Counter) error {
	_, err := q.Exec(ctx,
		`INSERT INTO usage_counters (user_id, feature, month, plan, used)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, feature, month)
		 DO UPDATE SET used = EXCLUDED.used, plan = EXCLUDED.plan, updated_at = NOW()`,
		c.UserID, c.Feature, c.Month, c.Plan, c.Used)
	if err != nil {
		return perr.FromPG(err, "usage.upsert")
	}
	return nil
}
