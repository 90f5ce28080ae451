// Package database persists run history. The interface decouples the server
// from PostgreSQL so local development can run without a database.
package database

import (
	"context"
	"time"

	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// RunRecord is the durable trace of one finished run.
type RunRecord struct {
	ID         string
	Config     scraper.RunConfig
	Summary    scraper.RunSummary
	FinishedAt time.Time
}

// Provider is the run-history store.
type Provider interface {
	// SaveRun persists a terminal run record.
	SaveRun(ctx context.Context, rec RunRecord) error

	// Close releases the underlying connections.
	Close() error
}

// NoOpProvider discards everything. Used when no DSN is configured.
type NoOpProvider struct{}

func (NoOpProvider) SaveRun(context.Context, RunRecord) error { return nil }

func (NoOpProvider) Close() error { return nil }
