package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/runs/{run_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs/abc-123")
	require.NoError(t, err)
	_ = resp.Body.Close()

	metricsSrv := httptest.NewServer(promhttp.Handler())
	defer metricsSrv.Close()
	resp, err = http.Get(metricsSrv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	// The route pattern labels the series, not the raw path.
	assert.Contains(t, body, `http_requests_total{code="404",method="GET"}`)
	assert.Contains(t, body, `route="/runs/{run_id}"`)
	assert.NotContains(t, body, "abc-123")
}

func TestObserveHelpersDoNotPanic(t *testing.T) {
	ObserveFetch("ok", 2048)
	ObserveFetch("error", 0)
	ObserveRateLimitDelay(250 * time.Millisecond)
}
