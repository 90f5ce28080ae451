// Package registry tracks pipeline runs for the HTTP API: starting them in
// the background, exposing status snapshots, and relaying cancellation.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/pipeline"
	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/progress/sinks"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// Status is the lifecycle state of a run as seen by API clients.
type Status string

// Run lifecycle states.
const (
	StatusQueued     Status = "queued"
	StatusRunning    Status = "running"
	StatusCancelling Status = "cancelling"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusError      Status = "error"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

var (
	// ErrNotFound is returned for unknown run IDs.
	ErrNotFound = errors.New("registry: run not found")
	// ErrFinished is returned when cancelling an already terminal run.
	ErrFinished = errors.New("registry: run already finished")
)

// Runner executes one run to completion.
type Runner interface {
	Run(ctx context.Context, cfg scraper.RunConfig, token *scraper.Token, rep progress.Reporter) scraper.RunSummary
}

// States resolves per-run progress snapshots, normally the hub's StoreSink.
type States interface {
	Snapshot(runID string) (sinks.RunState, bool)
}

// FinishedHook is invoked after a run reaches a terminal state. Hooks run on
// the run's goroutine; they should be quick or spin off their own work.
type FinishedHook func(ctx context.Context, id string, cfg scraper.RunConfig, summary scraper.RunSummary)

// Snapshot is the externally visible state of one run.
type Snapshot struct {
	ID          string              `json:"run_id"`
	Status      Status              `json:"status"`
	Progress    int                 `json:"progress"`
	Log         []string            `json:"log"`
	ResultFiles []string            `json:"result_files"`
	Summary     *scraper.RunSummary `json:"summary,omitempty"`
	Created     time.Time           `json:"created"`
}

type entry struct {
	id       string
	status   Status
	cfg      scraper.RunConfig
	token    *scraper.Token
	cancel   context.CancelFunc
	summary  *scraper.RunSummary
	created  time.Time
	finished time.Time
}

// Registry owns all run state for a server process.
type Registry struct {
	mu     sync.RWMutex
	runs   map[string]*entry
	runner Runner
	hub    *progress.Hub
	states States
	logger *zap.Logger
	hooks  []FinishedHook
	wg     sync.WaitGroup
}

// Option customizes a Registry.
type Option func(*Registry)

// WithFinishedHook registers a hook called once per terminal run.
func WithFinishedHook(hook FinishedHook) Option {
	return func(r *Registry) { r.hooks = append(r.hooks, hook) }
}

// New builds a Registry.
func New(runner Runner, hub *progress.Hub, states States, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		runs:   make(map[string]*entry),
		runner: runner,
		hub:    hub,
		states: states,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches a run in the background and returns its ID.
func (r *Registry) Start(cfg scraper.RunConfig) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		id:      id,
		status:  StatusQueued,
		cfg:     cfg,
		token:   &scraper.Token{},
		cancel:  cancel,
		created: time.Now(),
	}

	r.mu.Lock()
	r.runs[id] = e
	r.mu.Unlock()

	r.wg.Add(1)
	go r.execute(ctx, e)
	return id
}

func (r *Registry) execute(ctx context.Context, e *entry) {
	defer r.wg.Done()
	defer e.cancel()

	r.mu.Lock()
	// A queued run cancelled before this goroutine woke up never starts.
	if e.status == StatusCancelling {
		e.status = StatusCancelled
		e.finished = time.Now()
		r.mu.Unlock()
		return
	}
	e.status = StatusRunning
	r.mu.Unlock()

	rep := r.hub.Reporter(e.id, progress.PhaseRun)
	summary := r.runner.Run(ctx, e.cfg, e.token, rep)

	r.mu.Lock()
	e.summary = &summary
	e.finished = time.Now()
	switch summary.Outcome {
	case scraper.OutcomeCancelled:
		e.status = StatusCancelled
	case scraper.OutcomeError:
		e.status = StatusError
	default:
		e.status = StatusCompleted
	}
	final := e.status
	r.mu.Unlock()

	r.logger.Info("run reached terminal state",
		zap.String("run_id", e.id), zap.String("status", string(final)))
	for _, hook := range r.hooks {
		hook(ctx, e.id, e.cfg, summary)
	}
}

// Get returns the current snapshot of a run.
func (r *Registry) Get(id string) (Snapshot, error) {
	r.mu.RLock()
	e, ok := r.runs[id]
	if !ok {
		r.mu.RUnlock()
		return Snapshot{}, ErrNotFound
	}
	snap := Snapshot{
		ID:      e.id,
		Status:  e.status,
		Created: e.created,
		Log:     []string{},
	}
	if e.summary != nil {
		s := *e.summary
		snap.Summary = &s
	}
	r.mu.RUnlock()

	if state, ok := r.states.Snapshot(id); ok {
		snap.Progress = state.Percent
		snap.Log = state.Log
	}
	if snap.Status.Terminal() {
		snap.Progress = 100
		if snap.Summary != nil {
			snap.ResultFiles = pipeline.ArtifactNames(*snap.Summary)
		}
	}
	return snap, nil
}

// Cancel requests cooperative cancellation. It returns the status observed at
// the time of the request.
func (r *Registry) Cancel(id string) (Status, error) {
	r.mu.Lock()
	e, ok := r.runs[id]
	if !ok {
		r.mu.Unlock()
		return "", ErrNotFound
	}
	status := e.status
	if status.Terminal() {
		r.mu.Unlock()
		return status, ErrFinished
	}
	if status != StatusCancelling {
		e.status = StatusCancelling
	}
	token, cancel := e.token, e.cancel
	r.mu.Unlock()

	token.Cancel()
	cancel()
	r.logger.Info("cancellation requested", zap.String("run_id", id))
	return status, nil
}

// List returns snapshots of all runs, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	ids := make([]string, 0, len(r.runs))
	created := make(map[string]time.Time, len(r.runs))
	for id, e := range r.runs {
		ids = append(ids, id)
		created[id] = e.created
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, err := r.Get(id); err == nil {
			out = append(out, snap)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if created[out[j].ID].After(created[out[i].ID]) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Shutdown cancels every live run and waits for their goroutines.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, e := range r.runs {
		if !e.status.Terminal() {
			e.token.Cancel()
			e.cancel()
		}
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
