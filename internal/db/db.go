package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id UUID PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	channel_ids TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS channels (
	channel_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	team_id UUID NOT NULL REFERENCES teams(id),
	monitored_accounts TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS channel_checkpoints (
	channel_id TEXT PRIMARY KEY,
	last_ts DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activities (
	id UUID PRIMARY KEY,
	team_id UUID NOT NULL REFERENCES teams(id),
	channel_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	content TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	parent_id UUID REFERENCES activities(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS activities_channel_ts_idx ON activities (channel_id, ts);
CREATE INDEX IF NOT EXISTS activities_parent_idx ON activities (parent_id);
`

type DB struct {
	Pool *pgxpool.Pool
}

// New opens a connection pool and ensures the schema exists.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	d.Pool.Close()
}
