package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Postgres keeps every namespace in one kv_entries table.
type Postgres struct {
	DB        *pgxpool.Pool
	Namespace string
}

// NewPostgres makes sure the kv_entries table exists.
func NewPostgres(ctx context.Context, db *pgxpool.Pool, namespace string) (*Postgres, error) {
	if _, err := db.Exec(ctx, createEntriesTable); err != nil {
		return nil, fmt.Errorf("create kv_entries: %w", err)
	}
	return &Postgres{DB: db, Namespace: namespace}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := p.DB.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE namespace=$1 AND key=$2`,
		p.Namespace, key,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.DB.Exec(ctx, `
		INSERT INTO kv_entries(namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, p.Namespace, key, value)
	return err
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	_, err := p.DB.Exec(ctx, `DELETE FROM kv_entries WHERE namespace=$1 AND key=$2`, p.Namespace, key)
	return err
}

func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.DB.Exec(ctx, `DELETE FROM kv_entries WHERE namespace=$1`, p.Namespace)
	return err
}
