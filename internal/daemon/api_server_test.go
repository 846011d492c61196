package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eduassist/internal/api"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/testsupport"
	"eduassist/internal/workflow"
)

func newTestServer(t *testing.T) (*apiServer, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBind("127.0.0.1:0"))
	store := testsupport.MustOpenStore(t, cfg)
	recs := testsupport.MustOpenRecords(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	d, err := New(cfg, store, recs, logger, mgr, nil, Services{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	if d.api == nil {
		t.Fatal("api server not constructed")
	}
	return d.api, d
}

func TestHandleGenerateDeckEnqueues(t *testing.T) {
	srv, d := newTestServer(t)

	body := strings.NewReader(`{"topic":"B-trees","subject":"DBMS","slides":6}`)
	req := httptest.NewRequest(http.MethodPost, "/api/generate/deck", body)
	w := httptest.NewRecorder()
	srv.handleGenerateDeck(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	var resp api.EnqueueResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == 0 || resp.Status != string(jobs.StatusPending) {
		t.Fatalf("resp = %+v", resp)
	}

	job, err := d.store.GetByID(context.Background(), resp.JobID)
	if err != nil || job == nil {
		t.Fatalf("GetByID = %v, %v", job, err)
	}
	if job.Topic != "B-trees" || job.Params().Slides != 6 {
		t.Fatalf("job = %+v", job)
	}
}

func TestHandleGenerateDeckRequiresTopic(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/deck", strings.NewReader(`{"topic":"  "}`))
	w := httptest.NewRecorder()
	srv.handleGenerateDeck(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestHandleGenerateQuestionsWithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/questions", strings.NewReader(`{"topic":"Normalization"}`))
	w := httptest.NewRecorder()
	srv.handleGenerateQuestions(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestHandleJobsListsQueue(t *testing.T) {
	srv, d := newTestServer(t)
	if _, err := d.store.NewJob(context.Background(), jobs.KindDeck, "Stacks", "DSA", jobs.Params{}); err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].Topic != "Stacks" {
		t.Fatalf("jobs = %+v", resp.Jobs)
	}
}

func TestHandleJobItemNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/99", nil)
	w := httptest.NewRecorder()
	srv.handleJobItem(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestHandleClassesRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/classes", strings.NewReader(`{"name":"CSE-3A","department":"CSE","semester":"5"}`))
	w := httptest.NewRecorder()
	srv.handleClasses(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	var created api.RecordIDResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/classes", nil)
	w = httptest.NewRecorder()
	srv.handleClasses(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var listed api.ClassListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Classes) != 1 || listed.Classes[0].ID != created.ID {
		t.Fatalf("classes = %+v", listed.Classes)
	}
}

func TestHandleLogsWithoutHub(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	w := httptest.NewRecorder()
	srv.handleLogs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var resp api.LogStreamResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("events = %+v", resp.Events)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code without token = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code with token = %d", w.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	handler := corsMiddleware(authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("code = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}
