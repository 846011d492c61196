package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	InboxDir   string `toml:"inbox_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Gemini contains configuration for the Gemini API provider.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Groq contains configuration for the Groq chat-completions provider.
type Groq struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Unsplash contains configuration for slide image lookup.
type Unsplash struct {
	AccessKey      string `toml:"access_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxImages      int    `toml:"max_images"`
}

// Generation contains limits and defaults for content generation jobs.
type Generation struct {
	DefaultSlides  int `toml:"default_slides"`
	MaxSlides      int `toml:"max_slides"`
	DefaultMarks   int `toml:"default_marks"`
	MaxSets        int `toml:"max_sets"`
	SetConcurrency int `toml:"set_concurrency"`
}

// Timetable contains the teaching-day window used by grid imports.
type Timetable struct {
	DayStart string `toml:"day_start"`
	DayEnd   string `toml:"day_end"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Inbox contains configuration for the dropped-file watcher.
type Inbox struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Generation     bool   `toml:"generation"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for EduAssist.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Gemini: Gemini API provider settings
//   - Groq: Groq chat-completions provider settings
//   - Unsplash: slide image lookup
//   - Generation: limits and defaults for generation jobs
//   - Timetable: teaching-day window for grid imports
//   - Workflow: daemon polling intervals and timeouts
//   - Inbox: dropped-file watcher
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gemini        Gemini        `toml:"gemini"`
	Groq          Groq          `toml:"groq"`
	Unsplash      Unsplash      `toml:"unsplash"`
	Generation    Generation    `toml:"generation"`
	Timetable     Timetable     `toml:"timetable"`
	Workflow      Workflow      `toml:"workflow"`
	Inbox         Inbox         `toml:"inbox"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/eduassist/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); value != "" {
		c.Gemini.APIKey = value
	}
	if value := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); value != "" {
		c.Groq.APIKey = value
	}
	if value := strings.TrimSpace(os.Getenv("UNSPLASH_ACCESS_KEY")); value != "" {
		c.Unsplash.AccessKey = value
	}
	if value := strings.TrimSpace(os.Getenv("EDUASSIST_API_TOKEN")); value != "" {
		c.Paths.APIToken = value
	}
	if value := strings.TrimSpace(os.Getenv("EDUASSIST_NTFY_TOPIC")); value != "" {
		c.Notifications.NtfyTopic = value
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/eduassist/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("eduassist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	if c.Inbox.Enabled && strings.TrimSpace(c.Paths.InboxDir) != "" {
		if err := os.MkdirAll(c.Paths.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Paths.InboxDir, err)
		}
	}
	return nil
}

// GeminiAvailable reports whether the Gemini provider has a usable key.
func (c *Config) GeminiAvailable() bool {
	return strings.TrimSpace(c.Gemini.APIKey) != ""
}

// GroqAvailable reports whether the Groq provider has a usable key.
func (c *Config) GroqAvailable() bool {
	return strings.TrimSpace(c.Groq.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
