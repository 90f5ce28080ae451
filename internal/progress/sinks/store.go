package sinks

import (
	"context"
	"sync"

	"github.com/ayzen-labs/leadminer/internal/progress"
)

// maxLogLines bounds the per-run log ring exposed by the status endpoint.
const maxLogLines = 150

// RunState is the latest observed progress of one run.
type RunState struct {
	Percent int      `json:"progress"`
	Log     []string `json:"log"`
}

// StoreSink keeps the latest percentage and a bounded log ring per run. It
// backs the registry's status endpoint.
type StoreSink struct {
	mu   sync.RWMutex
	runs map[string]*runEntry
}

type runEntry struct {
	percent int
	log     []string
}

// NewStoreSink returns an empty store.
func NewStoreSink() *StoreSink {
	return &StoreSink{runs: make(map[string]*runEntry)}
}

// Consume folds the batch into per-run state. Sentinel events append to the
// log without moving the percentage.
func (s *StoreSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		if evt.RunID == "" {
			continue
		}
		entry := s.runs[evt.RunID]
		if entry == nil {
			entry = &runEntry{}
			s.runs[evt.RunID] = entry
		}
		if evt.Percent != progress.Sentinel && evt.Percent > entry.percent {
			entry.percent = evt.Percent
		}
		if evt.Message != "" {
			line := "[" + evt.TS.Format("15:04:05") + "] " + evt.Message
			if n := len(entry.log); n == 0 || entry.log[n-1] != line {
				entry.log = append(entry.log, line)
				if len(entry.log) > maxLogLines {
					entry.log = entry.log[len(entry.log)-maxLogLines:]
				}
			}
		}
	}
	return nil
}

// Snapshot returns a copy of the run's state; ok is false for unknown runs.
func (s *StoreSink) Snapshot(runID string) (RunState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.runs[runID]
	if !ok {
		return RunState{}, false
	}
	return RunState{
		Percent: entry.percent,
		Log:     append([]string(nil), entry.log...),
	}, true
}

// Forget drops a run's state, bounding memory for long-lived servers.
func (s *StoreSink) Forget(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error { return nil }
