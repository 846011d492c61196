// Package testsupport provides shared helpers for package tests: temp-backed
// configurations and pre-opened stores with cleanup registered.
package testsupport

import (
	"path/filepath"
	"testing"

	"eduassist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The API server is disabled unless WithAPIBind is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.APIBind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGeminiKey sets the Gemini API key on the test config.
func WithGeminiKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.APIKey = key
	}
}

// WithGroqKey sets the Groq API key on the test config.
func WithGroqKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Groq.APIKey = key
	}
}

// WithAPIBind enables the HTTP API on the given bind address.
func WithAPIBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIBind = bind
	}
}
