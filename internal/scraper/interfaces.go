package scraper

import (
	"context"
	"net/http"
)

// SearchProvider returns candidate domains for a keyword. A failure is
// non-fatal to the collector; the keyword is simply skipped.
type SearchProvider interface {
	Search(ctx context.Context, keyword string, limit int) ([]Domain, error)
}

// KeywordSource resolves the ordered keyword list for a run.
type KeywordSource interface {
	Keywords(ctx context.Context) ([]string, error)
}

// FetchResult is the outcome of fetching one site page.
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fetcher retrieves a single page. Implementations bound body size and apply
// a per-request timeout; cancellation of in-flight requests is not required.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Notifier pushes best-effort messages and files to an external channel.
// Implementations must swallow their own failures.
type Notifier interface {
	SendText(ctx context.Context, text string)
	SendDocument(ctx context.Context, path string, caption string)
}

// ContactWriter receives finished contact records. Append is only ever
// called from the orchestrator's drain loop, never concurrently.
type ContactWriter interface {
	Append(record ContactRecord) error
}
