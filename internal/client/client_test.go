package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"eduassist/internal/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true})
	})

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("running lost in transit")
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestClientGenerateDeck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate/deck" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req api.GenerateDeckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Topic != "B-trees" || req.Slides != 6 {
			t.Errorf("req = %+v", req)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(api.EnqueueResponse{JobID: 42, Status: "pending"})
	})

	resp, err := c.GenerateDeck(context.Background(), api.GenerateDeckRequest{Topic: "B-trees", Slides: 6})
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if resp.JobID != 42 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClientSurfacesErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "topic is required"})
	})

	_, err := c.GenerateDeck(context.Background(), api.GenerateDeckRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "api: topic is required (status 400)" {
		t.Fatalf("err = %q", got)
	}
}

func TestClientUploadSyllabus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "dbms.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		if r.FormValue("subject") != "DBMS" {
			t.Errorf("subject = %q", r.FormValue("subject"))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"doc-1","filename":"dbms.pdf","subject":"DBMS","pages":3}`))
	})

	doc, err := c.UploadSyllabus(context.Background(), "dbms.pdf", "DBMS", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadSyllabus: %v", err)
	}
	if doc.ID != "doc-1" || doc.Pages != 3 {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestIsUnavailable(t *testing.T) {
	c, err := New("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Status(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsUnavailable(err) {
		t.Fatalf("IsUnavailable(%v) = false", err)
	}
}

func TestNewEmptyBind(t *testing.T) {
	c, err := New("  ", "token")
	if err != nil || c != nil {
		t.Fatalf("c = %v, err = %v", c, err)
	}
	if _, err := c.Status(context.Background()); !IsUnavailable(err) {
		t.Fatalf("nil client should report unavailable, got %v", err)
	}
}
