package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func newCapturingService(t *testing.T, enableAll bool) (notifications.Service, *[]captured) {
	t.Helper()
	var seen []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = enableAll
	cfg.Notifications.Queue = enableAll
	cfg.Notifications.Errors = enableAll
	return notifications.NewService(&cfg), &seen
}

func TestPublishFormatsEvents(t *testing.T) {
	svc, seen := newCapturingService(t, true)
	ctx := context.Background()

	cases := []struct {
		event       notifications.Event
		payload     notifications.Payload
		wantTitle   string
		wantBody    string
		wantTags    string
		wantPrio    string
	}{
		{
			event: notifications.EventGenerationQueued,
			payload: notifications.Payload{
				"kind": "deck", "topic": "B-trees", "jobID": 7,
			},
			wantTitle: "EduAssist - Queued",
			wantBody:  "Queued deck generation: B-trees (job #7)",
			wantTags:  "eduassist,generation,queued",
		},
		{
			event: notifications.EventGenerationCompleted,
			payload: notifications.Payload{
				"kind": "deck", "topic": "B-trees", "file": "/library/presentations/b-trees.deck.json",
			},
			wantTitle: "EduAssist - Ready",
			wantBody:  "✅ deck ready: B-trees\nFile: /library/presentations/b-trees.deck.json",
			wantTags:  "eduassist,generation,completed",
			wantPrio:  "high",
		},
		{
			event: notifications.EventQueueStarted,
			payload: notifications.Payload{
				"count": 3,
			},
			wantTitle: "EduAssist - Queue Started",
			wantBody:  "Started processing queue with 3 jobs",
			wantTags:  "eduassist,queue,started",
		},
		{
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": 2, "failed": 1, "duration": 90 * time.Second,
			},
			wantTitle: "EduAssist - Queue Complete (with errors)",
			wantBody:  "Queue processing complete: 2 succeeded, 1 failed in 1m30s",
			wantTags:  "eduassist,queue,completed",
		},
		{
			event: notifications.EventError,
			payload: notifications.Payload{
				"error": errors.New("model timed out"), "context": "drafting (job #7)",
			},
			wantTitle: "EduAssist - Error",
			wantBody:  "❌ Error with drafting (job #7): model timed out",
			wantTags:  "eduassist,error,alert",
			wantPrio:  "high",
		},
	}

	for i, tc := range cases {
		if err := svc.Publish(ctx, tc.event, tc.payload); err != nil {
			t.Fatalf("%s: %v", tc.event, err)
		}
		got := (*seen)[i]
		if got.title != tc.wantTitle || got.body != tc.wantBody {
			t.Errorf("%s: got %q / %q", tc.event, got.title, got.body)
		}
		if got.tags != tc.wantTags {
			t.Errorf("%s: tags = %q", tc.event, got.tags)
		}
		if got.priority != tc.wantPrio {
			t.Errorf("%s: priority = %q, want %q", tc.event, got.priority, tc.wantPrio)
		}
	}
}

func TestPublishSkipsDisabledCategories(t *testing.T) {
	svc, seen := newCapturingService(t, false)
	ctx := context.Background()

	for _, event := range []notifications.Event{
		notifications.EventGenerationQueued,
		notifications.EventQueueStarted,
		notifications.EventError,
	} {
		if err := svc.Publish(ctx, event, nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(*seen) != 0 {
		t.Fatalf("disabled categories should not post, got %d messages", len(*seen))
	}

	// The test event ignores the category switches.
	if err := svc.Publish(ctx, notifications.EventTest, nil); err != nil {
		t.Fatal(err)
	}
	if len(*seen) != 1 || (*seen)[0].title != "EduAssist - Test" {
		t.Fatalf("seen = %+v", *seen)
	}
}

func TestPublishRejectsUnknownEvent(t *testing.T) {
	svc, _ := newCapturingService(t, true)
	if err := svc.Publish(context.Background(), notifications.Event("made_up"), nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestPublishReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
