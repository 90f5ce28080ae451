// Package fetcher implements the site Fetcher using gocolly.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/ayzen-labs/leadminer/internal/metrics"
	"github.com/ayzen-labs/leadminer/internal/policy/ratelimit"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// defaultUserAgents rotate per request to look like ordinary browser
// traffic; dealer sites aggressively block obvious bots.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Linux; Android 12; Pixel 6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36",
}

// Config controls collector behavior.
type Config struct {
	// Timeout bounds each request; the only wall-clock limit in the
	// pipeline (default 20s).
	Timeout time.Duration
	// MaxBodyBytes caps how much of a response body is read (default 1 MiB).
	MaxBodyBytes int
	// UserAgents overrides the rotating default set.
	UserAgents []string
	// PerHostQPS throttles requests per target host (default 2/s);
	// <= 0 keeps the default, and a negative value disables limiting.
	PerHostQPS float64
}

// Site fetches single pages for the verification and extraction phases.
type Site struct {
	cfg       Config
	transport http.RoundTripper
	base      *colly.Collector
	limiter   *ratelimit.Limiter
}

// New builds a Site fetcher with a pooled transport. Certificate errors are
// ignored: many small dealer sites run with broken TLS and their content is
// still worth probing.
func New(cfg Config) *Site {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.PerHostQPS == 0 {
		cfg.PerHostQPS = 2
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	base := colly.NewCollector(colly.Async(false))
	base.IgnoreRobotsTxt = true
	base.WithTransport(transport)

	return &Site{
		cfg:       cfg,
		transport: transport,
		base:      base,
		limiter:   ratelimit.New(ratelimit.Config{DefaultRPS: cfg.PerHostQPS}),
	}
}

// Fetch executes one HTTP GET and returns the (possibly redirected) page.
// Non-2xx responses and transport failures are returned as errors; callers
// treat them as "no response" for the probed URL.
func (f *Site) Fetch(ctx context.Context, url string) (scraper.FetchResult, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return scraper.FetchResult{}, err
	}

	var (
		result   scraper.FetchResult
		fetchErr error
	)
	collector := f.base.Clone()
	collector.UserAgent = f.cfg.UserAgents[rand.Intn(len(f.cfg.UserAgents))]
	collector.MaxBodySize = f.cfg.MaxBodyBytes
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})
	collector.OnResponse(func(r *colly.Response) {
		result = scraper.FetchResult{
			URL:        url,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return scraper.FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			metrics.ObserveFetch("error", 0)
			return scraper.FetchResult{}, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			metrics.ObserveFetch("error", 0)
			return scraper.FetchResult{}, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
		metrics.ObserveFetch("ok", len(result.Body))
		return result, nil
	}
}
