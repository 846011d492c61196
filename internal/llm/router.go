package llm

import (
	"context"
	"fmt"
	"log/slog"

	"eduassist/internal/logging"
	"eduassist/internal/services"
)

// Router picks a provider per request: explicit preference first, Gemini by
// default, Groq as the availability fallback.
type Router struct {
	gemini Provider
	groq   Provider
	logger *slog.Logger
}

// NewRouter builds a router over the two supported providers. Either provider
// may be nil or unavailable; resolution fails only when no provider can serve.
func NewRouter(gemini, groq Provider, logger *slog.Logger) *Router {
	return &Router{
		gemini: gemini,
		groq:   groq,
		logger: logging.NewComponentLogger(logger, "llm"),
	}
}

// Resolve returns the provider for the given preference ("", "gemini",
// "groq"). An unavailable preferred provider falls back to the other one.
func (r *Router) Resolve(preference string) (Provider, error) {
	var first, second Provider
	switch preference {
	case ProviderGroq:
		first, second = r.groq, r.gemini
	default:
		first, second = r.gemini, r.groq
	}

	if available(first) {
		return first, nil
	}
	if available(second) {
		if preference != "" {
			r.logger.Warn("preferred provider unavailable, falling back",
				logging.String(logging.FieldProvider, preference),
				logging.String("fallback", second.Name()),
				logging.String(logging.FieldEventType, "provider_fallback"),
			)
		}
		return second, nil
	}
	return nil, services.Wrap(services.ErrConfiguration, "llm", "resolve",
		"no language model provider is configured; set GEMINI_API_KEY or GROQ_API_KEY", nil)
}

// Complete resolves a provider for the preference and runs the request.
func (r *Router) Complete(ctx context.Context, preference string, req Request) (string, error) {
	provider, err := r.Resolve(preference)
	if err != nil {
		return "", err
	}
	if req.System == "" {
		req.System = DefaultSystemPrompt
	}
	content, err := provider.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", provider.Name(), err)
	}
	r.logger.Debug("completion served",
		logging.String(logging.FieldProvider, provider.Name()),
		logging.Int("response_chars", len(content)),
	)
	return content, nil
}

// Available reports whether any provider can serve requests.
func (r *Router) Available() bool {
	return available(r.gemini) || available(r.groq)
}

func available(p Provider) bool {
	return p != nil && p.Available()
}
