// Package collect implements the first pipeline phase: turning keywords into
// a deduplicated pool of candidate domains via the search provider.
package collect

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// defaultSearchDelay paces keyword searches so the engine does not throttle
// the whole run.
const defaultSearchDelay = 2500 * time.Millisecond

// Collector drives keyword searches until the domain target is met or the
// keyword list runs out.
type Collector struct {
	provider scraper.SearchProvider
	logger   *zap.Logger
	delay    time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Collector.
type Option func(*Collector)

// WithSearchDelay overrides the pause between keyword searches.
func WithSearchDelay(d time.Duration) Option {
	return func(c *Collector) { c.delay = d }
}

// New builds a Collector.
func New(provider scraper.SearchProvider, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		provider: provider,
		logger:   logger,
		delay:    defaultSearchDelay,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect searches each keyword in order and accumulates unique domains until
// target is reached. A target of zero returns immediately without touching
// the provider. Per-keyword search failures are logged and skipped; only
// cancellation aborts the phase.
func (c *Collector) Collect(ctx context.Context, kws []string, target int, token *scraper.Token, rep progress.Reporter) ([]scraper.Domain, error) {
	if target <= 0 || len(kws) == 0 {
		return nil, nil
	}
	rep.Report(0, fmt.Sprintf("Phase 1: collecting domains (target %d)", target))

	seen := make(map[scraper.Domain]struct{}, target)
	var found []scraper.Domain

	// Roughly twice the even split per keyword so weak keywords do not
	// starve the target.
	perKeyword := (target+len(kws)-1)/len(kws) * 2
	if perKeyword < 20 {
		perKeyword = 20
	}

	for i, kw := range kws {
		if err := runErr(ctx, token); err != nil {
			return found, err
		}
		if len(found) >= target {
			rep.Report(progress.Sentinel, "Target domain count reached")
			break
		}
		rep.Report(i*100/len(kws), fmt.Sprintf("Searching keyword %d/%d: %q", i+1, len(kws), truncate(kw, 40)))

		remain := target - len(found)
		quota := perKeyword
		if quota > remain+20 {
			quota = remain + 20
		}
		if quota < 10 {
			quota = 10
		}

		domains, err := c.provider.Search(ctx, kw, quota)
		if err != nil {
			if cancelErr := runErr(ctx, token); cancelErr != nil {
				return found, cancelErr
			}
			c.logger.Warn("keyword search failed, skipping",
				zap.String("keyword", kw), zap.Error(err))
			rep.Report(progress.Sentinel, fmt.Sprintf("Search failed for %q, skipping", truncate(kw, 40)))
			continue
		}

		added := 0
		for _, d := range domains {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			found = append(found, d)
			added++
			if len(found)%50 == 0 || added == 1 {
				pct := len(found) * 100 / target
				if pct > 100 {
					pct = 100
				}
				rep.Report(pct, fmt.Sprintf("Domains found: %d/%d", len(found), target))
			}
			if len(found) >= target {
				break
			}
		}
		c.logger.Debug("keyword processed",
			zap.String("keyword", kw), zap.Int("added", added), zap.Int("total", len(found)))

		if len(found) < target && i < len(kws)-1 {
			jitter := c.delay/2 + time.Duration(rand.Int63n(int64(c.delay/2)+1))
			if err := c.sleep(ctx, jitter); err != nil {
				return found, err
			}
			if err := runErr(ctx, token); err != nil {
				return found, err
			}
		}
	}

	rep.Report(finalPercent(len(found), target),
		fmt.Sprintf("Domain collection complete: %d unique domains", len(found)))
	return found, nil
}

func finalPercent(found, target int) int {
	if target <= 0 || found >= target {
		return 100
	}
	return found * 100 / target
}

// runErr folds context and token cancellation into a single check.
func runErr(ctx context.Context, token *scraper.Token) error {
	if err := token.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("collect: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
