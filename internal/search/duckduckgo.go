// Package search implements the keyword search provider used by domain
// collection.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/ayzen-labs/leadminer/internal/scraper"
)

const defaultBaseURL = "https://html.duckduckgo.com/html"

// Config controls the DuckDuckGo provider.
type Config struct {
	// BaseURL points at the HTML search endpoint; overridable for tests.
	BaseURL string
	// Timeout bounds each search request (default 20s).
	Timeout time.Duration
	// QPS limits outgoing search requests (default 0.5/s); the engine
	// throttles aggressive clients.
	QPS float64
	// UserAgent is sent with each request.
	UserAgent string
}

// DuckDuckGo queries the DuckDuckGo HTML endpoint and extracts result
// domains. It satisfies scraper.SearchProvider.
type DuckDuckGo struct {
	cfg     Config
	limiter *rate.Limiter
	base    *colly.Collector
}

// NewDuckDuckGo builds a provider.
func NewDuckDuckGo(cfg Config) *DuckDuckGo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.QPS <= 0 {
		cfg.QPS = 0.5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	}
	base := colly.NewCollector(colly.Async(false))
	base.IgnoreRobotsTxt = true
	return &DuckDuckGo{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), 1),
		base:    base,
	}
}

// Search returns up to limit unique domains from the first result page for
// the keyword. The provider's own domains are filtered out.
func (p *DuckDuckGo) Search(ctx context.Context, keyword string, limit int) ([]scraper.Domain, error) {
	if limit <= 0 {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate wait: %w", err)
	}

	seen := make(map[scraper.Domain]struct{})
	var domains []scraper.Domain

	collector := p.base.Clone()
	collector.UserAgent = p.cfg.UserAgent
	collector.SetRequestTimeout(p.cfg.Timeout)

	var visitErr error
	collector.OnHTML("a.result__a[href], a.result__url[href]", func(e *colly.HTMLElement) {
		if len(domains) >= limit {
			return
		}
		domain, ok := resultDomain(e.Attr("href"))
		if !ok {
			return
		}
		if strings.Contains(string(domain), "duckduckgo.com") {
			return
		}
		if _, dup := seen[domain]; dup {
			return
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	query := p.cfg.BaseURL + "/?q=" + url.QueryEscape(keyword)
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(query)
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("search canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", keyword, err)
		}
		if visitErr != nil {
			return nil, fmt.Errorf("search %q: %w", keyword, visitErr)
		}
	}
	return domains, nil
}

// resultDomain unwraps DuckDuckGo's redirect links (…/l/?uddg=<target>) and
// normalizes the target hostname.
func resultDomain(href string) (scraper.Domain, bool) {
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if target := u.Query().Get("uddg"); target != "" {
		return scraper.DomainFromURL(target)
	}
	return scraper.DomainFromURL(href)
}
