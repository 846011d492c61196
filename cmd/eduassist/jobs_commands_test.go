package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduassist/internal/api"
)

func newAPIStub(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true})
	})
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestJobsListRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)
	server := newAPIStub(t, map[string]http.HandlerFunc{
		"/api/jobs": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(api.JobListResponse{Jobs: []api.Job{
				{ID: 7, Kind: "deck", Topic: "Normalization", Status: "pending", CreatedAt: time.Now()},
			}})
		},
	})

	out, _, err := runCLI(t, []string{"jobs", "list"}, server.URL, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Normalization")
	requireContains(t, out, "Pending")
}

func TestJobsListEmptyQueueFallsBackToStore(t *testing.T) {
	env := setupCLITestEnv(t)

	// No API configured; the command reads the queue database directly.
	out, _, err := runCLI(t, []string{"jobs", "list"}, "", env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestGenerateDeckQueuesJob(t *testing.T) {
	env := setupCLITestEnv(t)
	server := newAPIStub(t, map[string]http.HandlerFunc{
		"/api/generate/deck": func(w http.ResponseWriter, r *http.Request) {
			var req api.GenerateDeckRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if req.Topic != "B-trees" || req.Slides != 8 {
				t.Errorf("req = %+v", req)
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(api.EnqueueResponse{JobID: 42, Status: "pending"})
		},
	})

	out, _, err := runCLI(t, []string{"generate", "deck", "B-trees", "--slides", "8"}, server.URL, env.configPath)
	if err != nil {
		t.Fatalf("generate deck: %v", err)
	}
	requireContains(t, out, "Queued deck job 42")
}

func TestJobsHealthOverAPI(t *testing.T) {
	env := setupCLITestEnv(t)
	server := newAPIStub(t, map[string]http.HandlerFunc{
		"/api/health": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(api.HealthResponse{
				Healthy: true,
				Queue:   api.QueueHealth{Total: 3, Pending: 1, Completed: 2},
			})
		},
	})

	out, _, err := runCLI(t, []string{"jobs", "health"}, server.URL, env.configPath)
	if err != nil {
		t.Fatalf("jobs health: %v", err)
	}
	requireContains(t, out, "Total: 3")
	requireContains(t, out, "Completed: 2")
}
