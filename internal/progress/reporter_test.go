package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureReporter struct {
	mu       sync.Mutex
	percents []int
	messages []string
}

func (c *captureReporter) Report(percent int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.percents = append(c.percents, percent)
	c.messages = append(c.messages, message)
}

// TestRangeMapsIntoWindow verifies the linear interpolation of phase-local
// progress into the global window.
func TestRangeMapsIntoWindow(t *testing.T) {
	t.Parallel()

	capture := &captureReporter{}
	r := Range(capture, 40, 70)

	r.Report(0, "start")
	r.Report(50, "half")
	r.Report(100, "done")

	require.Equal(t, []int{40, 55, 70}, capture.percents)
}

// TestRangeIsNonDecreasing checks that a lower phase-local report never
// moves the global percentage backwards.
func TestRangeIsNonDecreasing(t *testing.T) {
	t.Parallel()

	capture := &captureReporter{}
	r := Range(capture, 10, 40)

	r.Report(80, "ahead")
	r.Report(20, "late completion")

	require.Len(t, capture.percents, 2)
	assert.Equal(t, capture.percents[0], capture.percents[1])
}

// TestRangeSentinelPassesThrough keeps log-only events untouched.
func TestRangeSentinelPassesThrough(t *testing.T) {
	t.Parallel()

	capture := &captureReporter{}
	r := Range(capture, 70, 98)

	r.Report(Sentinel, "just a log line")
	require.Equal(t, []int{Sentinel}, capture.percents)
	assert.Equal(t, []string{"just a log line"}, capture.messages)
}

// TestRangeClampsOutOfBoundsInput tolerates sloppy phase-local values.
func TestRangeClampsOutOfBoundsInput(t *testing.T) {
	t.Parallel()

	capture := &captureReporter{}
	r := Range(capture, 0, 10)

	r.Report(250, "overshoot")
	require.Equal(t, []int{10}, capture.percents)
}
