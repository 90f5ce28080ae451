// Package verify implements the second pipeline phase: probing candidate
// domains for DealerCenter platform indicators.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/pool"
	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// indicatorPatterns identify DealerCenter-hosted sites in headers or markup.
var indicatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)dealer[-_\s]?center`),
	regexp.MustCompile(`(?i)dchublinks`),
	regexp.MustCompile(`(?i)dcimg`),
	regexp.MustCompile(`(?i)powered\s+by\s+dealer\s*center`),
	regexp.MustCompile(`(?i)dealercenter\.com`),
	regexp.MustCompile(`(?i)/Inventory/Listing/DCH`),
	regexp.MustCompile(`(?i)widget\.dealercenter\.com`),
	regexp.MustCompile(`(?i)images\.dealercenter\.com`),
}

// bodyScanBytes caps how much of a page body is scanned for indicators.
const bodyScanBytes = 128 << 10

// progressEvery throttles progress updates to one per N completed probes.
const progressEvery = 25

// Verifier probes domains concurrently and partitions them into platform
// matches and everything else.
type Verifier struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
	workers int
}

// New builds a Verifier running `workers` concurrent probes.
func New(fetcher scraper.Fetcher, logger *zap.Logger, workers int) *Verifier {
	if workers < 1 {
		workers = 1
	}
	return &Verifier{fetcher: fetcher, logger: logger, workers: workers}
}

// Run probes every domain and returns the valid/invalid partition. On
// cancellation it returns the partition built so far together with
// scraper.ErrCancelled; unfinished probes are abandoned.
func (v *Verifier) Run(ctx context.Context, domains []scraper.Domain, token *scraper.Token, rep progress.Reporter) (valid, invalid []scraper.Domain, err error) {
	if len(domains) == 0 {
		rep.Report(100, "No domains to verify")
		return nil, nil, nil
	}
	rep.Report(0, fmt.Sprintf("Phase 2: verifying %d domains", len(domains)))

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := pool.Run(poolCtx, domains, v.workers, func(ctx context.Context, d scraper.Domain) scraper.VerificationOutcome {
		return v.Probe(ctx, d)
	})

	processed := 0
	for outcome := range results {
		if cerr := token.Err(); cerr != nil {
			cancel()
			rep.Report(progress.Sentinel, "Verification cancelled")
			return valid, invalid, cerr
		}
		if outcome.Valid {
			valid = append(valid, outcome.Domain)
		} else {
			invalid = append(invalid, outcome.Domain)
		}
		processed++
		if processed%progressEvery == 0 || processed == len(domains) {
			rep.Report(processed*100/len(domains),
				fmt.Sprintf("Verifying: %d/%d processed", processed, len(domains)))
		}
	}
	if cerr := ctx.Err(); cerr != nil {
		return valid, invalid, fmt.Errorf("verify: %w", cerr)
	}

	rep.Report(100, fmt.Sprintf("Verification complete: %d platform sites, %d others", len(valid), len(invalid)))
	return valid, invalid, nil
}

// Probe checks a single domain, trying https first and falling back to http
// only when https produced no response at all.
func (v *Verifier) Probe(ctx context.Context, domain scraper.Domain) scraper.VerificationOutcome {
	outcome := scraper.VerificationOutcome{Domain: domain}
	for _, probeURL := range []string{"https://" + string(domain), "http://" + string(domain)} {
		if ctx.Err() != nil {
			return outcome
		}
		res, err := v.fetcher.Fetch(ctx, probeURL)
		if err != nil {
			v.logger.Debug("probe failed", zap.String("url", probeURL), zap.Error(err))
			continue
		}
		outcome.ProbeURL = probeURL
		outcome.Valid = Matches(res.Headers, res.FinalURL, res.Body)
		// One responding scheme decides the domain.
		return outcome
	}
	return outcome
}

// Matches reports whether any DealerCenter indicator appears in the response
// headers, the redirected hostname, or the leading bodyScanBytes of markup.
func Matches(headers http.Header, finalURL string, body []byte) bool {
	if len(headers) > 0 {
		var sb strings.Builder
		for key, values := range headers {
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(strings.Join(values, ", "))
			sb.WriteString("\n")
		}
		header := sb.String()
		for _, p := range indicatorPatterns {
			if p.MatchString(header) {
				return true
			}
		}
	}

	if u, err := url.Parse(finalURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if strings.Contains(host, "dealercenter") {
			return true
		}
	}

	if len(body) > bodyScanBytes {
		body = body[:bodyScanBytes]
	}
	for _, p := range indicatorPatterns {
		if p.Match(body) {
			return true
		}
	}
	return false
}
