package llm

import (
	"context"
	"strings"
)

// Provider names used for routing and logging.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// DefaultSystemPrompt is used when a request carries no system prompt.
const DefaultSystemPrompt = "You are an expert academic content generator. Generate detailed, faculty-ready educational content."

// Request describes one completion call, provider-agnostic.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSONOnly    bool
}

// Provider is a language model backend.
type Provider interface {
	Name() string
	Available() bool
	Complete(ctx context.Context, req Request) (string, error)
}

// PreferredProvider inspects free text for explicit provider hints.
// "use llama", "use groq", and "fast mode" pick Groq; "use gemini" picks
// Gemini. Empty string means no preference.
func PreferredProvider(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "use llama"),
		strings.Contains(lowered, "use groq"),
		strings.Contains(lowered, "fast mode"):
		return ProviderGroq
	case strings.Contains(lowered, "use gemini"):
		return ProviderGemini
	default:
		return ""
	}
}
