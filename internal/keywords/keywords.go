// Package keywords provides the keyword sources that seed domain collection:
// a built-in default list, a caller-supplied list, and an AI-generated list.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayzen-labs/leadminer/internal/ai"
)

// GenerateCount is how many keywords the AI source asks for.
const GenerateCount = 30

// DefaultList seeds runs that request no explicit keywords.
var DefaultList = []string{
	"used car dealership near me",
	"buy car online",
}

var (
	// ErrMissingKey is returned when the AI source is selected without an
	// API key configured.
	ErrMissingKey = errors.New("keywords: ai api key not configured")
	// ErrNoKeywords is returned when a source yields nothing usable.
	ErrNoKeywords = errors.New("keywords: no keywords available")
)

// DefaultPrompt is the generation prompt when the caller supplies none.
func DefaultPrompt(count int) string {
	return fmt.Sprintf("Generate a diverse list of exactly %d unique search engine keywords "+
		"that someone would use to find used car dealerships across the USA. "+
		"Include variations for locations, dealership types, inventory, financing, and general searches. "+
		"Format as a plain text list, one keyword per line, no extra text.", count)
}

// Default returns the built-in keyword list.
type Default struct{}

func (Default) Keywords(context.Context) ([]string, error) {
	out := make([]string, len(DefaultList))
	copy(out, DefaultList)
	return out, nil
}

// Static serves a caller-supplied list, trimmed and deduplicated.
type Static struct {
	List []string
}

func (s Static) Keywords(context.Context) ([]string, error) {
	seen := make(map[string]struct{}, len(s.List))
	var out []string
	for _, kw := range s.List {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil, ErrNoKeywords
	}
	return out, nil
}

// Generated asks the model for a fresh keyword list.
type Generated struct {
	Client ai.Client
	// Model overrides ai.DefaultModel when set.
	Model string
	// Prompt overrides DefaultPrompt when set.
	Prompt string
	// Count defaults to GenerateCount.
	Count int
}

func (g Generated) Keywords(ctx context.Context) ([]string, error) {
	if g.Client == nil {
		return nil, ErrMissingKey
	}
	count := g.Count
	if count <= 0 {
		count = GenerateCount
	}
	prompt := g.Prompt
	if prompt == "" {
		prompt = DefaultPrompt(count)
	}

	text, err := g.Client.Complete(ctx, ai.Request{
		Model:     g.Model,
		MaxTokens: 2048,
		Messages:  []ai.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("keywords: generate: %w", err)
	}

	parsed := ParseList(text)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("keywords: model returned nothing usable: %w", ErrNoKeywords)
	}
	return parsed, nil
}

// ParseList splits model output into keywords, one per line, dropping list
// markers and lines too short to be real queries.
func ParseList(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(text, "\n") {
		kw := strings.TrimSpace(line)
		kw = strings.TrimLeft(kw, "-*• \t")
		// "1. keyword" and "1) keyword" forms
		if i := strings.IndexAny(kw, ".)"); i > 0 && i <= 3 && isDigits(kw[:i]) {
			kw = strings.TrimSpace(kw[i+1:])
		}
		kw = strings.Trim(kw, `"'`)
		if len(kw) <= 3 {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
