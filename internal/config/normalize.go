package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeGroq()
	c.normalizeUnsplash()
	c.normalizeGeneration()
	c.normalizeTimetable()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		c.Paths.InboxDir = defaultInboxDir
	}
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if value, ok := os.LookupEnv("GEMINI_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Gemini.Model = strings.TrimSpace(value)
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
}

func (c *Config) normalizeGroq() {
	c.Groq.APIKey = strings.TrimSpace(c.Groq.APIKey)
	if c.Groq.APIKey == "" {
		if value, ok := os.LookupEnv("GROQ_API_KEY"); ok {
			c.Groq.APIKey = strings.TrimSpace(value)
		}
	}
	c.Groq.BaseURL = strings.TrimSpace(c.Groq.BaseURL)
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = defaultGroqBaseURL
	}
	c.Groq.Model = strings.TrimSpace(c.Groq.Model)
	if c.Groq.Model == "" {
		c.Groq.Model = defaultGroqModel
	}
	if c.Groq.TimeoutSeconds <= 0 {
		c.Groq.TimeoutSeconds = defaultGroqTimeout
	}
}

func (c *Config) normalizeUnsplash() {
	c.Unsplash.AccessKey = strings.TrimSpace(c.Unsplash.AccessKey)
	if c.Unsplash.AccessKey == "" {
		if value, ok := os.LookupEnv("UNSPLASH_ACCESS_KEY"); ok {
			c.Unsplash.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Unsplash.BaseURL = strings.TrimSpace(c.Unsplash.BaseURL)
	if c.Unsplash.BaseURL == "" {
		c.Unsplash.BaseURL = defaultUnsplashURL
	}
	if c.Unsplash.TimeoutSeconds <= 0 {
		c.Unsplash.TimeoutSeconds = 15
	}
	if c.Unsplash.MaxImages < 0 {
		c.Unsplash.MaxImages = 0
	}
	if c.Unsplash.MaxImages == 0 {
		c.Unsplash.MaxImages = defaultUnsplashImages
	}
}

func (c *Config) normalizeGeneration() {
	if c.Generation.DefaultSlides <= 0 {
		c.Generation.DefaultSlides = defaultGenerationSlides
	}
	if c.Generation.MaxSlides <= 0 {
		c.Generation.MaxSlides = defaultGenerationMaxSl
	}
	if c.Generation.DefaultMarks <= 0 {
		c.Generation.DefaultMarks = defaultGenerationMarks
	}
	if c.Generation.MaxSets <= 0 {
		c.Generation.MaxSets = defaultGenerationMaxSets
	}
	if c.Generation.SetConcurrency <= 0 {
		c.Generation.SetConcurrency = defaultSetConcurrency
	}
}

func (c *Config) normalizeTimetable() {
	c.Timetable.DayStart = strings.TrimSpace(c.Timetable.DayStart)
	if c.Timetable.DayStart == "" {
		c.Timetable.DayStart = defaultTimetableDayStart
	}
	c.Timetable.DayEnd = strings.TrimSpace(c.Timetable.DayEnd)
	if c.Timetable.DayEnd == "" {
		c.Timetable.DayEnd = defaultTimetableDayEnd
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
