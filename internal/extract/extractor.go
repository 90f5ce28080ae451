// Package extract implements the third pipeline phase: pulling emails, phone
// numbers, and street addresses out of verified sites.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/pool"
	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// progressEvery throttles progress updates to one per N completed sites.
const progressEvery = 25

// Extractor walks a handful of likely contact pages per domain and emits one
// ContactRecord per site.
type Extractor struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
	workers int
}

// New builds an Extractor running `workers` concurrent site walks.
func New(fetcher scraper.Fetcher, logger *zap.Logger, workers int) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{fetcher: fetcher, logger: logger, workers: workers}
}

// candidateURLs lists probe targets from most to least promising. The http
// home page is a last resort and is skipped once any https URL answered.
func candidateURLs(d scraper.Domain) []string {
	host := string(d)
	return []string{
		"https://" + host + "/contact",
		"https://" + host + "/contact-us",
		"https://" + host + "/about",
		"https://" + host + "/about-us",
		"https://" + host,
		"http://" + host,
	}
}

// Run extracts contacts for every domain, streaming each finished record to
// the sink as it completes. It returns the count of records with contact
// details. On cancellation the records written so far remain in the sink and
// scraper.ErrCancelled is returned.
func (e *Extractor) Run(ctx context.Context, domains []scraper.Domain, token *scraper.Token, rep progress.Reporter, sink scraper.ContactWriter) (int, error) {
	if len(domains) == 0 {
		rep.Report(100, "No valid sites to extract contacts from")
		return 0, nil
	}
	rep.Report(0, fmt.Sprintf("Phase 3: extracting contacts from %d sites", len(domains)))

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := pool.Run(poolCtx, domains, e.workers, func(ctx context.Context, d scraper.Domain) scraper.ContactRecord {
		return e.Contact(ctx, d, token)
	})

	contacts, processed := 0, 0
	for rec := range results {
		if err := sink.Append(rec); err != nil {
			e.logger.Error("contact sink write failed",
				zap.String("domain", string(rec.Domain)), zap.Error(err))
		}
		if rec.Status == scraper.StatusSuccess {
			contacts++
		}
		processed++
		if processed%progressEvery == 0 || processed == len(domains) {
			rep.Report(processed*100/len(domains),
				fmt.Sprintf("Extracting: %d/%d processed", processed, len(domains)))
		}
		if cerr := token.Err(); cerr != nil {
			cancel()
			rep.Report(progress.Sentinel, "Extraction cancelled")
			return contacts, cerr
		}
	}
	if cerr := ctx.Err(); cerr != nil {
		return contacts, fmt.Errorf("extract: %w", cerr)
	}

	rep.Report(100, fmt.Sprintf("Extraction complete: contacts for %d sites", contacts))
	return contacts, nil
}

// Contact builds the record for a single domain. It never returns an error;
// every failure mode is encoded in the record status so the run keeps moving.
func (e *Extractor) Contact(ctx context.Context, d scraper.Domain, token *scraper.Token) (rec scraper.ContactRecord) {
	rec = scraper.ContactRecord{
		Domain:    d,
		Emails:    []string{},
		Phones:    []string{},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extraction panicked",
				zap.String("domain", string(d)), zap.Any("panic", r))
			rec.Status = scraper.StatusExtractError
		}
	}()

	var (
		html string
		doc  *goquery.Document
	)
	httpsOK := false
	for _, u := range candidateURLs(d) {
		if token.Cancelled() || ctx.Err() != nil {
			rec.Status = scraper.StatusCancelled
			return rec
		}
		if strings.HasPrefix(u, "http://") && httpsOK {
			continue
		}
		res, err := e.fetcher.Fetch(ctx, u)
		if err != nil {
			e.logger.Debug("contact page fetch failed", zap.String("url", u), zap.Error(err))
			continue
		}
		if strings.HasPrefix(u, "https://") {
			httpsOK = true
		}
		parsed, perr := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if perr != nil {
			e.logger.Debug("contact page parse failed", zap.String("url", u), zap.Error(perr))
			continue
		}
		html = string(res.Body)
		doc = parsed
		rec.URLChecked = res.FinalURL
		break
	}

	if doc == nil {
		rec.Status = scraper.StatusNoContent
		return rec
	}
	if token.Cancelled() {
		rec.Status = scraper.StatusCancelled
		return rec
	}

	text := visibleText(doc)
	rec.Emails = Emails(html, text, doc)
	rec.Phones = Phones(text, doc)
	rec.Address = Address(doc)

	if len(rec.Emails) > 0 || len(rec.Phones) > 0 || rec.Address != "" {
		rec.Status = scraper.StatusSuccess
	} else {
		rec.Status = scraper.StatusNoContacts
	}
	return rec
}

// visibleText flattens the body to space-separated text.
func visibleText(doc *goquery.Document) string {
	sel := doc.Find("body")
	if sel.Length() == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
