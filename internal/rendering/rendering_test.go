package rendering

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/services"
	"eduassist/internal/testsupport"
)

func newTestRenderer(t *testing.T) (*Renderer, *jobs.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	renderer := NewRenderer(cfg, store, logging.NewNop())
	renderer.now = func() time.Time {
		return time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)
	}
	return renderer, store, cfg.Paths.StagingDir
}

func stagedJob(t *testing.T, store *jobs.Store, kind jobs.Kind, topic string, plan any) *jobs.Job {
	t.Helper()
	job := testsupport.NewJob(t, store, kind, topic, "DBMS", jobs.Params{})
	encoded, err := json.Marshal(plan)
	if err != nil {
		t.Fatal(err)
	}
	job.PlanJSON = string(encoded)
	return job
}

func sampleDeckPlan() content.DeckPlan {
	return content.DeckPlan{
		Title:    "B-trees in Depth",
		Subtitle: "DBMS",
		Slides: []content.Slide{
			{Number: 1, Type: content.SlideTypeTitle, Title: "B-trees in Depth", Bullets: []string{"DBMS"}},
			{Number: 2, Type: content.SlideTypeContent, Title: "Structure", Bullets: []string{"nodes", "keys"}, ImageQuery: "tree diagram"},
			{Number: 3, Type: content.SlideTypeContent, Title: "Operations", Bullets: []string{"insert", "split"}},
		},
	}
}

func TestRenderDeckWritesDocument(t *testing.T) {
	renderer, store, stagingDir := newTestRenderer(t)
	job := stagedJob(t, store, jobs.KindDeck, "B-trees", sampleDeckPlan())

	if err := renderer.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(job.StagedPath) != "b-trees.deck.json" {
		t.Fatalf("staged path = %q", job.StagedPath)
	}
	if !strings.HasPrefix(job.StagedPath, stagingDir) {
		t.Fatalf("staged path %q not under staging dir", job.StagedPath)
	}

	raw, err := os.ReadFile(job.StagedPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Title       string `json:"title"`
		GeneratedAt string `json:"generated_at"`
		GeneratedBy string `json:"generated_by"`
		Slides      []struct {
			Title  string `json:"title"`
			Layout string `json:"layout"`
		} `json:"slides"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Title != "B-trees in Depth" || doc.GeneratedBy != "EduAssist" {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.GeneratedAt != "2025-10-20T09:00:00Z" {
		t.Fatalf("generated_at = %q", doc.GeneratedAt)
	}
	layouts := []string{doc.Slides[0].Layout, doc.Slides[1].Layout, doc.Slides[2].Layout}
	want := []string{LayoutTitle, LayoutBulletsImage, LayoutBullets}
	for i := range want {
		if layouts[i] != want[i] {
			t.Fatalf("slide %d layout = %q, want %q", i+1, layouts[i], want[i])
		}
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("progress = %v", job.ProgressPercent)
	}
}

func TestRenderPaperWritesMarkdownAndSidecar(t *testing.T) {
	renderer, store, _ := newTestRenderer(t)
	plan := map[string]any{
		"title":      "DBMS - Normalization",
		"subject":    "DBMS",
		"topic":      "Normalization",
		"difficulty": "mixed",
		"sets": []content.QuestionSet{{
			SetNumber: 1,
			SetName:   "Set 1",
			MCQQuestions: []content.Question{{
				Question:      "Which normal form removes partial dependencies?",
				Options:       []string{"1NF", "2NF", "3NF", "BCNF"},
				CorrectAnswer: "2NF",
				Marks:         1,
				Difficulty:    "easy",
			}},
			ShortAnswerQuestions: []content.Question{{
				Question:      "Define functional dependency.",
				CorrectAnswer: "A constraint between attribute sets.",
				Marks:         3,
				Difficulty:    "medium",
			}},
			TotalMarks: 4,
		}},
	}
	job := stagedJob(t, store, jobs.KindQuestionPaper, "Normalization", plan)

	if err := renderer.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(job.StagedPath) != "normalization.paper.md" {
		t.Fatalf("staged path = %q", job.StagedPath)
	}

	markdown, err := os.ReadFile(job.StagedPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(markdown)
	for _, fragment := range []string{
		"# DBMS - Normalization",
		"### Section A: Multiple Choice",
		"a) 1NF",
		"### Section B: Short Answer",
		"### Answer Key",
		"- A1: 2NF",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("markdown missing %q:\n%s", fragment, text)
		}
	}

	sidecar := strings.TrimSuffix(job.StagedPath, ".paper.md") + ".paper.json"
	raw, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatal(err)
	}
	var decoded paperPlan
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Sets) != 1 || decoded.Sets[0].TotalMarks != 4 {
		t.Fatalf("sidecar = %+v", decoded)
	}
}

func TestRenderPaperRequiresSets(t *testing.T) {
	renderer, store, _ := newTestRenderer(t)
	job := stagedJob(t, store, jobs.KindQuestionPaper, "Normalization", map[string]any{"title": "x"})

	err := renderer.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v", err)
	}
}

func TestRenderManualWritesMarkdown(t *testing.T) {
	renderer, store, _ := newTestRenderer(t)
	manual := content.LabManual{
		Title:       "Implementing Stack Operations",
		Objective:   "Understand LIFO behavior",
		Apparatus:   []string{"computer", "gcc"},
		Theory:      "A stack is a last-in first-out structure.",
		Procedure:   []string{"Write push", "Write pop"},
		Result:      "Stack behaves as expected",
		Precautions: []string{"Check for underflow"},
	}
	job := stagedJob(t, store, jobs.KindLabManual, "Stack operations", manual)

	if err := renderer.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(job.StagedPath) != "stack-operations.manual.md" {
		t.Fatalf("staged path = %q", job.StagedPath)
	}
	markdown, err := os.ReadFile(job.StagedPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(markdown)
	for _, fragment := range []string{
		"# Implementing Stack Operations",
		"## Objective",
		"1. Write push",
		"2. Write pop",
		"## Precautions",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("markdown missing %q:\n%s", fragment, text)
		}
	}
}

func TestRenderMissingPlanLandsInValidation(t *testing.T) {
	renderer, store, _ := newTestRenderer(t)
	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}

	execErr := renderer.Execute(context.Background(), job)
	if !errors.Is(execErr, services.ErrValidation) {
		t.Fatalf("error = %v", execErr)
	}
	if services.FailureStatus(execErr) != jobs.StatusReview {
		t.Fatalf("failure status = %v", services.FailureStatus(execErr))
	}
}

func TestHealthCheckRequiresStagingDir(t *testing.T) {
	renderer, _, _ := newTestRenderer(t)
	if health := renderer.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}

	renderer.cfg.Paths.StagingDir = filepath.Join(t.TempDir(), "missing")
	if health := renderer.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy for missing staging dir")
	}
}
