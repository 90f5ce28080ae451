package progress

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel marks a log-only event: the message is recorded but the run's
// percentage does not change.
const Sentinel = -1

// Phase labels the pipeline stage an event belongs to.
type Phase string

// Pipeline phases reported by the orchestrator.
const (
	PhaseRun      Phase = "run"
	PhaseKeywords Phase = "keywords"
	PhaseCollect  Phase = "collect"
	PhaseVerify   Phase = "verify"
	PhaseExtract  Phase = "extract"
)

// Event is one status update from a run. Percent is either Sentinel or a
// value in [0,100]; percent events within a phase are non-decreasing, while
// log-only events interleave freely.
type Event struct {
	RunID   string
	TS      time.Time
	Phase   Phase
	Percent int
	Message string
}

// Validate performs coarse validation before an event enters the hub.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Percent != Sentinel && (e.Percent < 0 || e.Percent > 100) {
		return fmt.Errorf("percent %d out of range", e.Percent)
	}
	switch e.Phase {
	case PhaseRun, PhaseKeywords, PhaseCollect, PhaseVerify, PhaseExtract:
		return nil
	default:
		return fmt.Errorf("unknown phase %q", e.Phase)
	}
}
