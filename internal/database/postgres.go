package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool the provider uses; pgxmock implements
// it for tests.
type Pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresProvider stores run records in a `runs` table.
//
// Expected schema:
//
//	CREATE TABLE runs (
//	    id UUID PRIMARY KEY,
//	    user_name TEXT NOT NULL,
//	    outcome TEXT NOT NULL,
//	    message TEXT,
//	    keywords INT NOT NULL,
//	    domains_found INT NOT NULL,
//	    valid_sites INT NOT NULL,
//	    contacts INT NOT NULL,
//	    elapsed_ms BIGINT NOT NULL,
//	    config JSONB,
//	    artifacts JSONB,
//	    finished_at TIMESTAMPTZ NOT NULL,
//	    created_at TIMESTAMPTZ DEFAULT NOW()
//	);
type PostgresProvider struct {
	Pool Pool
}

// NewPostgresProvider connects to the DSN and verifies the connection.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return &PostgresProvider{Pool: pool}, nil
}

const insertRun = `
	INSERT INTO runs (id, user_name, outcome, message, keywords, domains_found,
	                  valid_sites, contacts, elapsed_ms, config, artifacts, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id
`

// SaveRun inserts one terminal run record.
func (p *PostgresProvider) SaveRun(ctx context.Context, rec RunRecord) error {
	cfgJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("database: marshal config: %w", err)
	}
	artifactsJSON, err := json.Marshal(rec.Summary.Artifacts)
	if err != nil {
		return fmt.Errorf("database: marshal artifacts: %w", err)
	}

	var id string
	err = p.Pool.QueryRow(ctx, insertRun,
		rec.ID,
		rec.Config.UserName,
		string(rec.Summary.Outcome),
		rec.Summary.Message,
		rec.Summary.Keywords,
		rec.Summary.DomainsFound,
		rec.Summary.ValidSites,
		rec.Summary.Contacts,
		rec.Summary.Elapsed.Milliseconds(),
		cfgJSON,
		artifactsJSON,
		rec.FinishedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("database: insert run: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (p *PostgresProvider) Close() error {
	p.Pool.Close()
	return nil
}
