package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *memorySink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *memorySink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memorySink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// TestHubDeliversToSinks confirms events emitted before Close reach every
// registered sink.
func TestHubDeliversToSinks(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, sink)

	reporter := hub.Reporter("run-1", PhaseCollect)
	reporter.Report(25, "collecting")
	reporter.Report(Sentinel, "log only")

	require.NoError(t, hub.Close(context.Background()))

	events := sink.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "run-1", events[0].RunID)
	assert.Equal(t, PhaseCollect, events[0].Phase)
	assert.Equal(t, 25, events[0].Percent)
	assert.Equal(t, Sentinel, events[1].Percent)
	assert.True(t, sink.closed)
}

// TestHubDiscardsInvalidEvents keeps malformed events out of the sinks.
func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	hub := NewHub(Config{}, sink)

	hub.Emit(Event{TS: time.Now(), Phase: "bogus", Percent: 10})
	hub.Emit(Event{TS: time.Now(), Phase: PhaseVerify, Percent: 400})
	hub.Emit(Event{Phase: PhaseVerify, Percent: 10}) // zero timestamp

	require.NoError(t, hub.Close(context.Background()))
	assert.Empty(t, sink.snapshot())
}

// TestHubEmitAfterCloseIsIgnored guards against panics on late emitters.
func TestHubEmitAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Reporter("run-2", PhaseRun).Report(50, "late")
	assert.Empty(t, sink.snapshot())
}
