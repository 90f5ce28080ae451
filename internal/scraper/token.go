package scraper

import (
	"errors"
	"sync/atomic"
)

// ErrCancelled is the sentinel returned by pipeline code once cooperative
// cancellation has been requested. It marks a partial-success exit, not a
// failure.
var ErrCancelled = errors.New("run cancelled")

// Token is a monotonic cancellation flag shared by reference between the
// orchestrator and every worker of a run. Once requested it never resets.
// The zero value is ready to use.
type Token struct {
	cancelled atomic.Bool
}

// NewToken returns a fresh, un-cancelled token.
func NewToken() *Token { return &Token{} }

// Cancel requests cancellation. Safe to call from any goroutine, any number
// of times; the first call wins and the flag never clears.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested. A nil token
// never cancels, which lets tests pass nil where cancellation is irrelevant.
func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Err returns ErrCancelled once the token has fired, nil before.
func (t *Token) Err() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}
