package deps

import (
	"fmt"
	"os"
	"strings"

	"eduassist/internal/config"
)

// Status reports the availability of one external dependency.
type Status struct {
	Name        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check evaluates the external services and paths EduAssist relies on.
// Nothing here blocks daemon startup; content generation needs at least one
// language model provider, illustration needs Unsplash, and notifications
// need an ntfy topic.
func Check(cfg *config.Config) []Status {
	if cfg == nil {
		return nil
	}
	results := make([]Status, 0, 5)

	results = append(results, keyStatus("gemini", "Google Gemini language model", cfg.Gemini.APIKey,
		"gemini.api_key not configured"))
	results = append(results, keyStatus("groq", "Groq language model", cfg.Groq.APIKey,
		"groq.api_key not configured"))
	results = append(results, keyStatus("unsplash", "Unsplash stock images for slide decks", cfg.Unsplash.AccessKey,
		"unsplash.access_key not configured; decks stay text-only"))
	results = append(results, keyStatus("ntfy", "Push notifications via ntfy", cfg.Notifications.NtfyTopic,
		"notifications.ntfy_topic not configured"))
	results = append(results, libraryStatus(cfg.Paths.LibraryDir))

	return results
}

func keyStatus(name, description, value, missingDetail string) Status {
	status := Status{
		Name:        name,
		Description: description,
		Optional:    true,
		Available:   strings.TrimSpace(value) != "",
	}
	if !status.Available {
		status.Detail = missingDetail
	}
	return status
}

func libraryStatus(dir string) Status {
	status := Status{
		Name:        "library",
		Description: "Library directory for finished artifacts",
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		status.Detail = "library directory not configured"
		return status
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		// Created on first organize; report it as usable.
		status.Available = true
		status.Detail = "directory will be created on first use"
	case err != nil:
		status.Detail = fmt.Sprintf("cannot stat library directory: %v", err)
	case !info.IsDir():
		status.Detail = fmt.Sprintf("library path %q is not a directory", dir)
	default:
		status.Available = true
	}
	return status
}
