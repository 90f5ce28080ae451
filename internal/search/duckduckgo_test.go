package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayzen-labs/leadminer/internal/scraper"
)

const serpPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.smithauto.com%2Finventory&amp;rut=abc">Smith Auto</a>
    <a class="result__url" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.smithauto.com%2F">smithauto.com</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://jonesmotors.example.net/used-cars">Jones Motors</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://duckduckgo.com/about">About results</a>
  </div>
  <div class="result">
    <a class="result__a" href="http://valleycars.example.org">Valley Cars</a>
  </div>
</div>
</body></html>`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDuckDuckGo(Config{BaseURL: srv.URL, QPS: 1000, Timeout: 5 * time.Second})
}

func TestSearchExtractsDomains(t *testing.T) {
	var gotQuery string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, serpPage)
	})

	domains, err := p.Search(context.Background(), "used car dealership near me", 10)
	require.NoError(t, err)

	assert.Equal(t, "used car dealership near me", gotQuery)
	// Redirect links unwrap to the target host, duplicates collapse, and the
	// engine's own domain is skipped.
	assert.Equal(t, []scraper.Domain{
		"smithauto.com",
		"jonesmotors.example.net",
		"valleycars.example.org",
	}, domains)
}

func TestSearchHonorsLimit(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, serpPage)
	})

	domains, err := p.Search(context.Background(), "buy car online", 1)
	require.NoError(t, err)
	assert.Equal(t, []scraper.Domain{"smithauto.com"}, domains)

	domains, err = p.Search(context.Background(), "buy car online", 0)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestSearchServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := p.Search(context.Background(), "used cars", 5)
	assert.Error(t, err)
}

func TestSearchCancelledContext(t *testing.T) {
	p := NewDuckDuckGo(Config{BaseURL: "http://127.0.0.1:1", QPS: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, "used cars", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want scraper.Domain
		ok   bool
	}{
		{"//duckduckgo.com/l/?uddg=" + url.QueryEscape("https://www.smithauto.com/contact"), "smithauto.com", true},
		{"https://jonesmotors.example.net/used-cars", "jonesmotors.example.net", true},
		{"", "", false},
		{"%%bad", "", false},
	}
	for _, tc := range tests {
		got, ok := resultDomain(tc.href)
		assert.Equal(t, tc.ok, ok, tc.href)
		assert.Equal(t, tc.want, got, tc.href)
	}
}
