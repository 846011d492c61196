// Package gemini implements the Gemini provider over the official genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"eduassist/internal/config"
	"eduassist/internal/llm"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
	maxAttempts        = 3
	retryBaseDelay     = 2 * time.Second
	retryMaxDelay      = 60 * time.Second
)

// Provider wraps the Gemini API behind the llm.Provider contract.
type Provider struct {
	apiKey  string
	model   string
	timeout time.Duration
	sleeper func(time.Duration)

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// Option customizes the provider.
type Option func(*Provider)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *Provider) {
		p.sleeper = sleeper
	}
}

// New constructs a Gemini provider from configuration.
func New(cfg config.Gemini, opts ...Option) *Provider {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	provider := &Provider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return llm.ProviderGemini }

// Available implements llm.Provider.
func (p *Provider) Available() bool { return p != nil && p.apiKey != "" }

// Complete implements llm.Provider. Rate limits (429) are retried with the
// delay the API suggests when it names one, otherwise exponential backoff
// capped at a minute; timeouts are retried once.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("gemini complete: prompt required")
	}
	if !p.Available() {
		return "", errors.New("gemini complete: api key required")
	}

	client, err := p.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	system := strings.TrimSpace(req.System)
	if system == "" {
		system = llm.DefaultSystemPrompt
	}
	temperature := float32(req.Temperature)
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONOnly {
		genConfig.ResponseMIMEType = "application/json"
	}

	var lastErr error
	timeoutRetried := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		resp, err := client.Models.GenerateContent(callCtx, p.model, genai.Text(prompt), genConfig)
		cancel()
		if err == nil {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return "", errors.New("gemini complete: empty response")
			}
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if isTimeout(err) {
			if timeoutRetried {
				return "", fmt.Errorf("gemini complete: %w", err)
			}
			timeoutRetried = true
			continue
		}
		if !isRateLimited(err) || attempt == maxAttempts {
			return "", fmt.Errorf("gemini complete: %w", err)
		}

		delay := suggestedRetryDelay(err)
		if delay <= 0 {
			delay = backoffDelay(attempt)
		}
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
		if err := p.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("gemini complete: failed after %d attempts: %w", maxAttempts, lastErr)
}

func (p *Provider) ensureClient(ctx context.Context) (*genai.Client, error) {
	p.initOnce.Do(func() {
		p.client, p.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if p.initErr != nil {
		return nil, fmt.Errorf("gemini client: %w", p.initErr)
	}
	return p.client, nil
}

func (p *Provider) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "429") || strings.Contains(message, "RESOURCE_EXHAUSTED")
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

var retryHintPattern = regexp.MustCompile(`(?i)(?:retry|try again) in\s+(\d+(?:\.\d+)?)\s*(ms|s|m)?`)

// suggestedRetryDelay parses the "retry in Ns" detail the Gemini API embeds
// in 429 error messages. Zero means no hint found.
func suggestedRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	match := retryHintPattern.FindStringSubmatch(err.Error())
	if len(match) < 2 {
		return 0
	}
	value, parseErr := strconv.ParseFloat(match[1], 64)
	if parseErr != nil || value <= 0 {
		return 0
	}
	unit := time.Second
	switch strings.ToLower(match[2]) {
	case "ms":
		unit = time.Millisecond
	case "m":
		unit = time.Minute
	}
	return time.Duration(value * float64(unit))
}
