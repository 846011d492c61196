package jobs_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"eduassist/internal/jobs"
)

func openTestStore(t *testing.T) *jobs.Store {
	t.Helper()
	store, err := jobs.OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewJobDefaults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, jobs.KindDeck, "Binary Search Trees", "Data Structures", jobs.Params{Slides: 10})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if got := job.Params().Slides; got != 10 {
		t.Fatalf("expected 10 slides in params, got %d", got)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestNewJobRequiresTopic(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.NewJob(context.Background(), jobs.KindDeck, "   ", "", jobs.Params{}); err == nil {
		t.Fatal("expected error for blank topic")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	job, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, jobs.KindQuestionPaper, "Thermodynamics", "Physics", jobs.Params{Marks: 50, Sets: 2})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	job.Status = jobs.StatusDrafting
	job.SetProgress("Drafting", "calling model", 25)
	now := time.Now().UTC()
	job.LastHeartbeat = &now
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Status != jobs.StatusDrafting {
		t.Fatalf("expected drafting, got %s", loaded.Status)
	}
	if loaded.ProgressPercent != 25 {
		t.Fatalf("expected 25%%, got %f", loaded.ProgressPercent)
	}
	if loaded.LastHeartbeat == nil {
		t.Fatal("expected heartbeat to persist")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _ := store.NewJob(ctx, jobs.KindDeck, "Graphs", "", jobs.Params{})
	second, _ := store.NewJob(ctx, jobs.KindLabManual, "Sorting Lab", "", jobs.Params{})

	second.Status = jobs.StatusCompleted
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("update: %v", err)
	}

	pending, err := store.List(ctx, jobs.StatusPending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("expected only first job pending, got %d rows", len(pending))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _ := store.NewJob(ctx, jobs.KindDeck, "First", "", jobs.Params{})
	if _, err := store.NewJob(ctx, jobs.KindDeck, "Second", "", jobs.Params{}); err != nil {
		t.Fatalf("new job: %v", err)
	}

	next, err := store.NextForStatuses(ctx, jobs.StatusPending)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatal("expected oldest pending job")
	}

	none, err := store.NextForStatuses(ctx, jobs.StatusFailed)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if none != nil {
		t.Fatal("expected no failed jobs")
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, _ := store.NewJob(ctx, jobs.KindDeck, "Stuck", "", jobs.Params{})
	job.Status = jobs.StatusRendering
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reset, got %d", count)
	}

	loaded, _ := store.GetByID(ctx, job.ID)
	if loaded.Status != jobs.StatusPending {
		t.Fatalf("expected pending after reset, got %s", loaded.Status)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stale, _ := store.NewJob(ctx, jobs.KindDeck, "Stale", "", jobs.Params{})
	stale.Status = jobs.StatusDrafting
	old := time.Now().UTC().Add(-10 * time.Minute)
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("update stale: %v", err)
	}

	fresh, _ := store.NewJob(ctx, jobs.KindDeck, "Fresh", "", jobs.Params{})
	fresh.Status = jobs.StatusDrafting
	now := time.Now().UTC()
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("update fresh: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed, got %d", count)
	}

	reloaded, _ := store.GetByID(ctx, stale.ID)
	if reloaded.Status != jobs.StatusPending {
		t.Fatalf("expected stale job back to pending, got %s", reloaded.Status)
	}
	if reloaded.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared on reclaim")
	}

	untouched, _ := store.GetByID(ctx, fresh.ID)
	if untouched.Status != jobs.StatusDrafting {
		t.Fatalf("fresh job should stay drafting, got %s", untouched.Status)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, _ := store.NewJob(ctx, jobs.KindDeck, "Beat", "", jobs.Params{})
	if err := store.UpdateHeartbeat(ctx, job.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	loaded, _ := store.GetByID(ctx, job.ID)
	if loaded.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set")
	}
}

func TestRetryFailed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	failed, _ := store.NewJob(ctx, jobs.KindDeck, "Broken", "", jobs.Params{})
	failed.SetFailed("provider error")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update: %v", err)
	}

	review, _ := store.NewJob(ctx, jobs.KindDeck, "Odd", "", jobs.Params{})
	review.SetReview("unclear topic")
	if err := store.Update(ctx, review); err != nil {
		t.Fatalf("update: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both jobs retried, got %d", count)
	}

	loaded, _ := store.GetByID(ctx, review.ID)
	if loaded.Status != jobs.StatusPending {
		t.Fatalf("expected pending, got %s", loaded.Status)
	}
	if loaded.NeedsReview {
		t.Fatal("expected review flag cleared")
	}
	if loaded.ErrorMessage != "" {
		t.Fatal("expected error message cleared")
	}
}

func TestRetryFailedSelectedIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _ := store.NewJob(ctx, jobs.KindDeck, "A", "", jobs.Params{})
	first.SetFailed("x")
	_ = store.Update(ctx, first)

	second, _ := store.NewJob(ctx, jobs.KindDeck, "B", "", jobs.Params{})
	second.SetFailed("y")
	_ = store.Update(ctx, second)

	count, err := store.RetryFailed(ctx, first.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried, got %d", count)
	}

	untouched, _ := store.GetByID(ctx, second.ID)
	if untouched.Status != jobs.StatusFailed {
		t.Fatalf("expected second still failed, got %s", untouched.Status)
	}
}

func TestRemoveAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, _ := store.NewJob(ctx, jobs.KindDeck, "Gone", "", jobs.Params{})
	removed, err := store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}
	removed, err = store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("remove again: %v", err)
	}
	if removed {
		t.Fatal("expected no-op on second removal")
	}

	done, _ := store.NewJob(ctx, jobs.KindDeck, "Done", "", jobs.Params{})
	done.Status = jobs.StatusCompleted
	_ = store.Update(ctx, done)
	if _, err := store.NewJob(ctx, jobs.KindDeck, "Keep", "", jobs.Params{}); err != nil {
		t.Fatalf("new job: %v", err)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("clear completed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared, got %d", cleared)
	}

	remaining, _ := store.List(ctx)
	if len(remaining) != 1 {
		t.Fatalf("expected 1 job left, got %d", len(remaining))
	}

	all, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if all != 1 {
		t.Fatalf("expected 1 cleared, got %d", all)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _ = store.NewJob(ctx, jobs.KindDeck, "P1", "", jobs.Params{})
	working, _ := store.NewJob(ctx, jobs.KindDeck, "W1", "", jobs.Params{})
	working.Status = jobs.StatusIllustrating
	_ = store.Update(ctx, working)
	done, _ := store.NewJob(ctx, jobs.KindDeck, "D1", "", jobs.Params{})
	done.Status = jobs.StatusCompleted
	_ = store.Update(ctx, done)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[jobs.StatusPending] != 1 || stats[jobs.StatusIllustrating] != 1 || stats[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestCheckHealth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.NewJob(ctx, jobs.KindDeck, "H", "", jobs.Params{}); err != nil {
		t.Fatalf("new job: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("check health: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalJobs != 1 {
		t.Fatalf("expected 1 job counted, got %d", health.TotalJobs)
	}
}

func TestParseStatusAndKind(t *testing.T) {
	if status, ok := jobs.ParseStatus(" Drafting "); !ok || status != jobs.StatusDrafting {
		t.Fatalf("unexpected parse result: %s %v", status, ok)
	}
	if _, ok := jobs.ParseStatus("bogus"); ok {
		t.Fatal("expected parse failure")
	}
	if kind, ok := jobs.ParseKind("Question_Paper"); !ok || kind != jobs.KindQuestionPaper {
		t.Fatalf("unexpected kind: %s %v", kind, ok)
	}
}

func TestLaneForJob(t *testing.T) {
	pending := &jobs.Job{Status: jobs.StatusPending}
	if jobs.LaneForJob(pending) != jobs.LaneForeground {
		t.Fatal("pending belongs to foreground lane")
	}
	rendering := &jobs.Job{Status: jobs.StatusRendering}
	if jobs.LaneForJob(rendering) != jobs.LaneBackground {
		t.Fatal("rendering belongs to background lane")
	}
}
