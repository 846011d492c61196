package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eduassist/internal/config"
)

const userAgent = "EduAssist-Go/0.1.0"

// Event enumerates the workflow milestones that produce notifications.
type Event string

const (
	EventGenerationQueued    Event = "generation_queued"
	EventGenerationCompleted Event = "generation_completed"
	EventGenerationFailed    Event = "generation_failed"
	EventQueueStarted        Event = "queue_started"
	EventQueueCompleted      Event = "queue_completed"
	EventError               Event = "error"
	EventTest                Event = "test"
)

// Payload carries the event-specific values used to format a message.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		generation: cfg.Notifications.Generation,
		queue:      cfg.Notifications.Queue,
		errors:     cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	generation bool
	queue      bool
	errors     bool
}

// Publish formats the event into an ntfy message and posts it. Events whose
// category is disabled in config are silently skipped; the test event always
// goes through.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	data, err := n.format(event, payload)
	if err != nil {
		return err
	}
	return n.send(ctx, data)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventGenerationQueued, EventGenerationCompleted, EventGenerationFailed:
		return n.generation
	case EventQueueStarted, EventQueueCompleted:
		return n.queue
	case EventError:
		return n.errors
	default:
		return true
	}
}

func (n *ntfyService) format(event Event, payload Payload) (message, error) {
	switch event {
	case EventGenerationQueued:
		return message{
			title: "EduAssist - Queued",
			body: fmt.Sprintf("Queued %s generation: %s (job #%d)",
				stringValue(payload, "kind"), stringValue(payload, "topic"), intValue(payload, "jobID")),
			tags: []string{"eduassist", "generation", "queued"},
		}, nil

	case EventGenerationCompleted:
		body := fmt.Sprintf("✅ %s ready: %s", stringValue(payload, "kind"), stringValue(payload, "topic"))
		if file := stringValue(payload, "file"); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		return message{
			title:    "EduAssist - Ready",
			body:     body,
			tags:     []string{"eduassist", "generation", "completed"},
			priority: "high",
		}, nil

	case EventGenerationFailed:
		return message{
			title: "EduAssist - Generation Failed",
			body: fmt.Sprintf("❌ %s failed: %s\n%s",
				stringValue(payload, "kind"), stringValue(payload, "topic"), errorText(payload)),
			tags:     []string{"eduassist", "generation", "failed"},
			priority: "high",
		}, nil

	case EventQueueStarted:
		return message{
			title: "EduAssist - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d jobs", intValue(payload, "count")),
			tags:  []string{"eduassist", "queue", "started"},
		}, nil

	case EventQueueCompleted:
		processed := intValue(payload, "processed")
		failed := intValue(payload, "failed")
		durationText := durationText(payload)
		if failed == 0 {
			return message{
				title: "EduAssist - Queue Complete",
				body:  fmt.Sprintf("Queue processing complete: %d jobs processed in %s", processed, durationText),
				tags:  []string{"eduassist", "queue", "completed"},
			}, nil
		}
		return message{
			title: "EduAssist - Queue Complete (with errors)",
			body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText),
			tags:  []string{"eduassist", "queue", "completed"},
		}, nil

	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if contextLabel := stringValue(payload, "context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		builder.WriteString(errorText(payload))
		return message{
			title:    "EduAssist - Error",
			body:     builder.String(),
			tags:     []string{"eduassist", "error", "alert"},
			priority: "high",
		}, nil

	case EventTest:
		return message{
			title:    "EduAssist - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"eduassist", "test"},
			priority: "low",
		}, nil
	}
	return message{}, fmt.Errorf("unknown notification event %q", event)
}

func stringValue(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func intValue(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func errorText(payload Payload) string {
	if payload == nil {
		return "unknown"
	}
	switch value := payload["error"].(type) {
	case error:
		return strings.TrimSpace(value.Error())
	case string:
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return "unknown"
}

func durationText(payload Payload) string {
	duration, _ := payload["duration"].(time.Duration)
	duration = duration.Round(time.Second)
	if duration <= 0 {
		return "0s"
	}
	return duration.String()
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
