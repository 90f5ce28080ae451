package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ayzen-labs/leadminer/internal/ai"
	"github.com/ayzen-labs/leadminer/internal/chat"
	"github.com/ayzen-labs/leadminer/internal/registry"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

type fakeRuns struct {
	started  []scraper.RunConfig
	snaps    map[string]registry.Snapshot
	cancels  map[string]error
	statuses map[string]registry.Status
}

func (f *fakeRuns) Start(cfg scraper.RunConfig) string {
	f.started = append(f.started, cfg)
	return "run-1"
}

func (f *fakeRuns) Get(id string) (registry.Snapshot, error) {
	snap, ok := f.snaps[id]
	if !ok {
		return registry.Snapshot{}, registry.ErrNotFound
	}
	return snap, nil
}

func (f *fakeRuns) Cancel(id string) (registry.Status, error) {
	if err, ok := f.cancels[id]; ok {
		return f.statuses[id], err
	}
	return "", registry.ErrNotFound
}

func (f *fakeRuns) List() []registry.Snapshot {
	out := make([]registry.Snapshot, 0, len(f.snaps))
	for _, s := range f.snaps {
		out = append(out, s)
	}
	return out
}

type fakeAI struct {
	text string
	err  error
}

func (f fakeAI) Complete(context.Context, ai.Request) (string, error) { return f.text, f.err }

func newTestServer(t *testing.T, runs Runs, assistant *chat.Assistant, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(runs, assistant, cfg, zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStartRun(t *testing.T) {
	t.Parallel()

	runs := &fakeRuns{}
	srv := newTestServer(t, runs, nil, Config{ResultsDir: t.TempDir()})

	resp := postJSON(t, srv.URL+"/api/v1/runs",
		`{"user_name":"dana","target_domains":50,"keyword_source":"list","keywords_list":["used cars"],"max_threads":8}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "run-1", body["run_id"])

	require.Len(t, runs.started, 1)
	cfg := runs.started[0]
	assert.Equal(t, "dana", cfg.UserName)
	assert.Equal(t, 50, cfg.TargetDomains)
	assert.Equal(t, scraper.KeywordsStatic, cfg.KeywordMode)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestStartRunValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"negative target", `{"target_domains":-1}`},
		{"huge target", `{"target_domains":999999}`},
		{"bad keyword source", `{"keyword_source":"magic"}`},
		{"list mode without list", `{"keyword_source":"list"}`},
		{"too many threads", `{"max_threads":100}`},
	}
	srv := newTestServer(t, &fakeRuns{}, nil, Config{ResultsDir: t.TempDir()})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := postJSON(t, srv.URL+"/api/v1/runs", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	runs := &fakeRuns{snaps: map[string]registry.Snapshot{
		"run-1": {ID: "run-1", Status: registry.StatusRunning, Progress: 42},
	}}
	srv := newTestServer(t, runs, nil, Config{ResultsDir: t.TempDir()})

	resp, err := http.Get(srv.URL + "/api/v1/runs/run-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, float64(42), body["progress"])

	resp, err = http.Get(srv.URL + "/api/v1/runs/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRun(t *testing.T) {
	t.Parallel()

	runs := &fakeRuns{
		cancels:  map[string]error{"run-1": nil, "run-2": registry.ErrFinished},
		statuses: map[string]registry.Status{"run-2": registry.StatusCompleted},
	}
	srv := newTestServer(t, runs, nil, Config{ResultsDir: t.TempDir()})

	resp := postJSON(t, srv.URL+"/api/v1/runs/run-1/cancel", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/runs/run-2/cancel", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/runs/ghost/cancel", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadminer_contacts_x.csv"), []byte("domain,emails\n"), 0o644))
	srv := newTestServer(t, &fakeRuns{}, nil, Config{ResultsDir: dir})

	resp, err := http.Get(srv.URL + "/api/v1/results/leadminer_contacts_x.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "leadminer_contacts_x.csv")

	for _, name := range []string{"..%2f..%2fetc%2fpasswd", "a%2fb.txt", "..."} {
		resp, err := http.Get(srv.URL + "/api/v1/results/" + name)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.NotEqual(t, http.StatusOK, resp.StatusCode, name)
	}
}

func TestChat(t *testing.T) {
	t.Parallel()

	assistant := chat.NewAssistant(fakeAI{text: "hello there"}, "")
	srv := newTestServer(t, &fakeRuns{}, assistant, Config{ResultsDir: t.TempDir()})

	resp := postJSON(t, srv.URL+"/api/v1/chat", `{"message":"hi","persona_id":"2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello there", decode(t, resp)["reply"])

	resp = postJSON(t, srv.URL+"/api/v1/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatUnavailable(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRuns{}, chat.NewAssistant(nil, ""), Config{ResultsDir: t.TempDir()})
	resp := postJSON(t, srv.URL+"/api/v1/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRuns{}, nil, Config{ResultsDir: t.TempDir()})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	runs := &fakeRuns{snaps: map[string]registry.Snapshot{"run-1": {ID: "run-1"}}}
	srv := newTestServer(t, runs, nil, Config{ResultsDir: t.TempDir(), APIKey: "sekret"})

	resp, err := http.Get(srv.URL + "/api/v1/runs/run-1")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/runs/run-1", nil)
	req.Header.Set("X-API-Key", "sekret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open.
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
