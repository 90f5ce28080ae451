package pool

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunProcessesAllItems drains every result regardless of completion
// order.
func TestRunProcessesAllItems(t *testing.T) {
	t.Parallel()

	items := []int{5, 1, 4, 2, 3}
	out := Run(context.Background(), items, 3, func(_ context.Context, n int) int {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	})

	var got []int
	for v := range out {
		got = append(got, v)
	}
	sort.Ints(got)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, got)
}

// TestRunBoundsConcurrency never runs more than `workers` goroutines at once.
func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var active, peak atomic.Int32
	items := make([]int, 20)
	out := Run(context.Background(), items, 4, func(_ context.Context, n int) int {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return n
	})
	for range out {
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

// TestRunCancelReleasesWorkers guarantees the channel closes after the
// caller abandons the drain and cancels the context.
func TestRunCancelReleasesWorkers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 50)
	out := Run(ctx, items, 2, func(_ context.Context, n int) int {
		time.Sleep(2 * time.Millisecond)
		return n
	})

	<-out // read one result, then abandon
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-out:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("pool did not shut down after cancel")
		}
	}
}

// TestRunEmptyInput closes the channel immediately.
func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	out := Run(context.Background(), nil, 4, func(_ context.Context, n int) int { return n })
	_, open := <-out
	require.False(t, open)
}
