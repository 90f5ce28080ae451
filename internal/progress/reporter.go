package progress

import "sync/atomic"

// Reporter receives phase-local progress. Implementations must not block the
// caller meaningfully; workers treat Report as fire-and-forget.
type Reporter interface {
	// Report takes a percentage in [0,100], or Sentinel for a log-only
	// message.
	Report(percent int, message string)
}

// Func adapts a plain function to the Reporter interface.
type Func func(percent int, message string)

// Report implements Reporter.
func (f Func) Report(percent int, message string) { f(percent, message) }

// Nop discards all reports.
var Nop Reporter = Func(func(int, string) {})

// rangeReporter maps phase-local 0-100 into the global [lo,hi) window by
// linear interpolation and clamps the output to be non-decreasing.
type rangeReporter struct {
	parent Reporter
	lo, hi int
	floor  atomic.Int64
}

// Range scopes a reporter to the global percentage window [lo,hi). Sentinel
// values pass through untouched.
func Range(parent Reporter, lo, hi int) Reporter {
	r := &rangeReporter{parent: parent, lo: lo, hi: hi}
	r.floor.Store(int64(lo))
	return r
}

func (r *rangeReporter) Report(percent int, message string) {
	if percent == Sentinel {
		r.parent.Report(Sentinel, message)
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	global := r.lo + percent*(r.hi-r.lo)/100
	// Never report backwards within the phase.
	for {
		prev := r.floor.Load()
		if int64(global) <= prev {
			global = int(prev)
			break
		}
		if r.floor.CompareAndSwap(prev, int64(global)) {
			break
		}
	}
	r.parent.Report(global, message)
}
