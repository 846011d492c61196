package testsupport

import (
	"context"
	"testing"

	"eduassist/internal/config"
	"eduassist/internal/jobs"
	"eduassist/internal/records"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenRecords opens a records.Store for tests and registers cleanup.
func MustOpenRecords(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	recs, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		recs.Close()
	})
	return recs
}

// NewJob enqueues a job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, kind jobs.Kind, topic, subject string, params jobs.Params) *jobs.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), kind, topic, subject, params)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
