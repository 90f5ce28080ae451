package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayzen-labs/leadminer/internal/chat"
	"github.com/ayzen-labs/leadminer/internal/registry"
	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// maxTargetDomains caps a single run; larger requests are almost certainly
// typos and would hammer the search engine for hours.
const maxTargetDomains = 10000

const maxConcurrency = 32

type startRunRequest struct {
	UserName      string   `json:"user_name"`
	TargetDomains int      `json:"target_domains"`
	KeywordSource string   `json:"keyword_source"`
	KeywordsList  []string `json:"keywords_list"`
	AIPrompt      string   `json:"ai_prompt"`
	MaxThreads    int      `json:"max_threads"`
	SendTelegram  bool     `json:"send_telegram"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	cfg, err := s.toRunConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := s.runs.Start(cfg)
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id, "status": string(registry.StatusQueued)})
}

func (s *Server) toRunConfig(req startRunRequest) (scraper.RunConfig, error) {
	if req.TargetDomains < 0 || req.TargetDomains > maxTargetDomains {
		return scraper.RunConfig{}, fmt.Errorf("target_domains must be between 0 and %d", maxTargetDomains)
	}
	if req.MaxThreads < 0 || req.MaxThreads > maxConcurrency {
		return scraper.RunConfig{}, fmt.Errorf("max_threads must be between 0 and %d", maxConcurrency)
	}
	mode := scraper.KeywordMode(req.KeywordSource)
	switch mode {
	case "", scraper.KeywordsDefault, scraper.KeywordsStatic, scraper.KeywordsAI:
	default:
		return scraper.RunConfig{}, fmt.Errorf("unknown keyword_source %q", req.KeywordSource)
	}
	if mode == scraper.KeywordsStatic && len(req.KeywordsList) == 0 {
		return scraper.RunConfig{}, errors.New("keywords_list required for keyword_source \"list\"")
	}
	return scraper.NewRunConfig(scraper.RunConfig{
		UserName:      req.UserName,
		TargetDomains: req.TargetDomains,
		KeywordMode:   mode,
		KeywordList:   req.KeywordsList,
		AIPrompt:      req.AIPrompt,
		Concurrency:   req.MaxThreads,
		Notify:        req.SendTelegram,
		OutputDir:     s.cfg.ResultsDir,
	}), nil
}

func (s *Server) listRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.runs.List()})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")
	snap, err := s.runs.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "run_id")
	status, err := s.runs.Cancel(id)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, registry.ErrFinished):
		writeError(w, http.StatusConflict, fmt.Sprintf("run already %s", status))
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"run_id": id, "status": string(registry.StatusCancelling)})
	}
}

// downloadResult serves one artifact by base name. Only plain filenames are
// accepted; anything that could traverse out of the results dir is rejected.
func (s *Server) downloadResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) ||
		strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	path := filepath.Join(s.cfg.ResultsDir, name)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

type chatRequest struct {
	Message   string `json:"message"`
	PersonaID string `json:"persona_id"`
}

func (s *Server) chatReply(w http.ResponseWriter, r *http.Request) {
	if !s.assistant.Available() {
		writeError(w, http.StatusServiceUnavailable, "chat feature is not available")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "no message provided")
		return
	}
	reply, err := s.assistant.Reply(r.Context(), req.PersonaID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "chat feature is not available")
			return
		}
		writeError(w, http.StatusInternalServerError, "assistant request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
