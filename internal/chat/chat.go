// Package chat powers the in-app assistant. Each persona is a system prompt;
// the frontend selects one per conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayzen-labs/leadminer/internal/ai"
)

// ErrUnavailable is returned when no AI client is configured.
var ErrUnavailable = errors.New("chat: assistant not configured")

// Persona is a named system prompt.
type Persona struct {
	Name   string
	Prompt string
}

// DefaultPersona is used for unknown persona IDs.
const DefaultPersona = "default"

// personas mirror the set offered in the web UI.
var personas = map[string]Persona{
	"1": {
		Name: "Alex (He/Him)",
		Prompt: "You are Alex, a data-driven tech analyst specializing in lead generation for car dealerships. " +
			"You're enthusiastic, knowledgeable about scraping technology and data analysis, and eager to help users " +
			"maximize their lead potential. Respond in a friendly, slightly technical, and encouraging tone.",
	},
	"2": {
		Name: "Brenda (She/Her)",
		Prompt: "You are Brenda, a seasoned car dealership sales manager. You are highly experienced, pragmatic, and " +
			"results-driven. You prefer direct communication and focus on actionable insights and effective sales " +
			"strategies related to the scraped data. Respond in a professional, concise, and authoritative tone.",
	},
	"3": {
		Name: "Chris (They/Them)",
		Prompt: "You are Chris, a helpful and patient support specialist for the lead mining tool. You excel at " +
			"explaining technical details in simple terms and guiding users through the tool's features and results. " +
			"Respond in a clear, friendly, supportive, and easy-to-understand manner.",
	},
	"4": {
		Name: "Diana (She/Her)",
		Prompt: "You are Diana, a meticulous and analytical researcher focused on data quality and interpretation. " +
			"You are calm, precise, and detail-oriented. Provide accurate information based on the scraper's function " +
			"and potential data, avoiding speculation. Respond in a formal, analytical, and slightly reserved tone.",
	},
	"5": {
		Name: "Mike (He/Him)",
		Prompt: "You are Mike, an old-school car guy with decades of experience in the auto industry. You're practical, " +
			"knowledgeable about dealerships and the market, and speak in a straightforward, maybe slightly informal or " +
			"gruff, but helpful manner. Draw on practical industry insights when relevant. Respond like a seasoned pro " +
			"giving practical advice.",
	},
	DefaultPersona: {
		Name:   "Assistant",
		Prompt: "You are a helpful AI assistant for a dealership lead mining tool. Answer questions clearly and concisely.",
	},
}

// LookupPersona resolves an ID, falling back to the default persona.
func LookupPersona(id string) Persona {
	if p, ok := personas[id]; ok {
		return p
	}
	return personas[DefaultPersona]
}

// Assistant answers user messages in a chosen persona.
type Assistant struct {
	client ai.Client
	model  string
}

// NewAssistant builds an Assistant; a nil client yields ErrUnavailable on
// every Reply.
func NewAssistant(client ai.Client, model string) *Assistant {
	return &Assistant{client: client, model: model}
}

// Available reports whether the assistant can answer.
func (a *Assistant) Available() bool { return a != nil && a.client != nil }

// Reply answers one message as the persona identified by personaID.
func (a *Assistant) Reply(ctx context.Context, personaID, message string) (string, error) {
	if !a.Available() {
		return "", ErrUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("chat: empty message")
	}
	persona := LookupPersona(personaID)
	reply, err := a.client.Complete(ctx, ai.Request{
		Model:     a.model,
		MaxTokens: 1024,
		System:    persona.Prompt,
		Messages:  []ai.Message{{Role: "user", Content: message}},
	})
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "(I couldn't generate a response for that.)"
	}
	return reply, nil
}
