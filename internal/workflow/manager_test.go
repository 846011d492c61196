package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
	"eduassist/internal/services"
	"eduassist/internal/stage"
	"eduassist/internal/testsupport"
)

type scriptedHandler struct {
	name       string
	prepareErr error
	execErr    error
	executions atomic.Int64
	health     stage.Health
}

func (s *scriptedHandler) Prepare(context.Context, *jobs.Job) error { return s.prepareErr }

func (s *scriptedHandler) Execute(context.Context, *jobs.Job) error {
	s.executions.Add(1)
	return s.execErr
}

func (s *scriptedHandler) HealthCheck(context.Context) stage.Health {
	if s.health.Name != "" {
		return s.health
	}
	return stage.Healthy(s.name)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) seen(event notifications.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestManager(t *testing.T) (*Manager, *jobs.Store, *recordingNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 30
	store := testsupport.MustOpenStore(t, cfg)

	notifier := &recordingNotifier{}
	return NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier), store, notifier
}

func waitForStatus(t *testing.T, store *jobs.Store, id int64, want jobs.Status) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
	job, _ := store.GetByID(context.Background(), id)
	t.Fatalf("job %d never reached %s (now %+v)", id, want, job)
	return nil
}

func TestManagerCompletesJobAcrossLanes(t *testing.T) {
	manager, store, notifier := newTestManager(t)
	drafter := &scriptedHandler{name: "drafter"}
	renderer := &scriptedHandler{name: "renderer"}
	illustrator := &scriptedHandler{name: "illustrator"}
	organizer := &scriptedHandler{name: "organizer"}
	manager.ConfigureStages(StageSet{
		Drafter:     drafter,
		Renderer:    renderer,
		Illustrator: illustrator,
		Organizer:   organizer,
	})

	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "DBMS", jobs.Params{Slides: 8})
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	done := waitForStatus(t, store, job.ID, jobs.StatusCompleted)
	if done.ProgressPercent != 100 {
		t.Fatalf("progress = %v", done.ProgressPercent)
	}
	for _, handler := range []*scriptedHandler{drafter, renderer, illustrator, organizer} {
		if handler.executions.Load() != 1 {
			t.Fatalf("%s executed %d times", handler.name, handler.executions.Load())
		}
	}
	if !notifier.seen(notifications.EventQueueStarted) {
		t.Fatal("expected a queue started notification")
	}
}

func TestValidationFailureLandsInReview(t *testing.T) {
	manager, store, _ := newTestManager(t)
	drafter := &scriptedHandler{
		name:    "drafter",
		execErr: services.Wrap(services.ErrValidation, "drafting", "parse_deck", "model returned no slides", nil),
	}
	manager.ConfigureStages(StageSet{Drafter: drafter})

	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	reviewed := waitForStatus(t, store, job.ID, jobs.StatusReview)
	if !reviewed.NeedsReview || reviewed.ReviewReason == "" {
		t.Fatalf("job = %+v", reviewed)
	}
}

func TestProviderFailureLandsInFailed(t *testing.T) {
	manager, store, notifier := newTestManager(t)
	drafter := &scriptedHandler{
		name:    "drafter",
		execErr: services.Wrap(services.ErrProvider, "drafting", "complete", "gemini unavailable", nil),
	}
	manager.ConfigureStages(StageSet{Drafter: drafter})

	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	failed := waitForStatus(t, store, job.ID, jobs.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatalf("job = %+v", failed)
	}
	if !notifier.seen(notifications.EventGenerationFailed) {
		t.Fatal("expected a generation failed notification")
	}
}

func TestPrepareFailureAlsoClassified(t *testing.T) {
	manager, store, _ := newTestManager(t)
	drafter := &scriptedHandler{
		name:       "drafter",
		prepareErr: services.Wrap(services.ErrConfiguration, "drafting", "prepare", "no provider configured", nil),
	}
	manager.ConfigureStages(StageSet{Drafter: drafter})

	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer manager.Stop()

	waitForStatus(t, store, job.ID, jobs.StatusReview)
	if drafter.executions.Load() != 0 {
		t.Fatal("execute should not run after prepare fails")
	}
}

func TestStartRequiresConfiguredStages(t *testing.T) {
	manager, _, _ := newTestManager(t)
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected error when no stages are configured")
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	manager, _, _ := newTestManager(t)
	manager.ConfigureStages(StageSet{
		Drafter:  &scriptedHandler{name: "drafter"},
		Renderer: &scriptedHandler{name: "renderer", health: stage.Unhealthy("renderer", "staging dir missing")},
	})

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not be running before Start")
	}
	if !summary.StageHealth["drafter"].Ready {
		t.Fatalf("drafter health = %+v", summary.StageHealth["drafter"])
	}
	renderer := summary.StageHealth["renderer"]
	if renderer.Ready || renderer.Detail != "staging dir missing" {
		t.Fatalf("renderer health = %+v", renderer)
	}
}

func TestDeriveStageLabel(t *testing.T) {
	if got := deriveStageLabel(jobs.StatusIllustrating); got != "Illustrating" {
		t.Fatalf("label = %q", got)
	}
	if got := deriveStageLabel(jobs.Status("question_paper_done")); got != "Question Paper Done" {
		t.Fatalf("label = %q", got)
	}
}
