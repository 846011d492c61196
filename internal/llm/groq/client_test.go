package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.Groq{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "llama-3.3-70b-versatile",
	}, WithSleeper(func(time.Duration) {}))
}

func TestCompleteReturnsContent(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	})

	out, err := provider.Complete(context.Background(), llm.Request{Prompt: "ping", JSONOnly: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestCompleteFallsBackToDeltaAndText(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"from delta"}}]}`))
	})
	out, err := provider.Complete(context.Background(), llm.Request{Prompt: "ping"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "from delta" {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestCompleteRetriesOn429(t *testing.T) {
	calls := 0
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	})

	out, err := provider.Complete(context.Background(), llm.Request{Prompt: "ping"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected content %q", out)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestCompleteGivesUpOnClientError(t *testing.T) {
	calls := 0
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
	})

	if _, err := provider.Complete(context.Background(), llm.Request{Prompt: "ping"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retry on 400, got %d calls", calls)
	}
}

func TestCompleteRequiresKey(t *testing.T) {
	provider := New(config.Groq{})
	if provider.Available() {
		t.Fatal("expected unavailable without key")
	}
	if _, err := provider.Complete(context.Background(), llm.Request{Prompt: "ping"}); err == nil {
		t.Fatal("expected error without key")
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	if delay, ok := parseRetryAfter("7"); !ok || delay != 7*time.Second {
		t.Fatalf("unexpected: %v %v", delay, ok)
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected false for empty header")
	}
	if _, ok := parseRetryAfter("-3"); ok {
		t.Fatal("expected false for negative header")
	}
}

func TestBackoffDelayDoubles(t *testing.T) {
	provider := New(config.Groq{APIKey: "k"})
	first := provider.backoffDelay(1)
	second := provider.backoffDelay(2)
	third := provider.backoffDelay(3)
	if second != first*2 || third != second*2 {
		t.Fatalf("expected doubling backoff, got %v %v %v", first, second, third)
	}
	if capped := provider.backoffDelay(30); capped > defaultRetryMaxDelay {
		t.Fatalf("expected cap at %v, got %v", defaultRetryMaxDelay, capped)
	}
}
