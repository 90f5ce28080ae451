// Package queue announces finished runs on a message topic so downstream
// consumers (CRM importers, dashboards) can react without polling.
package queue

import (
	"context"
	"time"
)

// RunEvent is the payload published when a run reaches a terminal state.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	UserName   string    `json:"user_name"`
	Outcome    string    `json:"outcome"`
	Contacts   int       `json:"contacts"`
	FinishedAt time.Time `json:"finished_at"`
}

// Provider publishes run events.
type Provider interface {
	// Publish sends one event. Implementations may deliver asynchronously.
	Publish(ctx context.Context, evt RunEvent) error

	// Close cleans up client connections.
	Close() error
}

// NoOpProvider drops all events. Used when no topic is configured.
type NoOpProvider struct{}

func (NoOpProvider) Publish(context.Context, RunEvent) error { return nil }

func (NoOpProvider) Close() error { return nil }
