package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/services"
	"eduassist/internal/testsupport"
)

type scriptedCompleter struct {
	mu        sync.Mutex
	response  string
	err       error
	available bool
	prompts   []string
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string, req llm.Request) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	return s.response, s.err
}

func (s *scriptedCompleter) Available() bool { return s.available }

type scriptedGrounder struct {
	grounding string
	err       error
}

func (s *scriptedGrounder) Grounding(context.Context, string, string, int) (string, error) {
	return s.grounding, s.err
}

func newTestDrafter(t *testing.T, completer Completer, grounder Grounder) (*Drafter, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Generation.DefaultSlides = 8
	cfg.Generation.MaxSlides = 20
	cfg.Generation.MaxSets = 4
	cfg.Generation.SetConcurrency = 2
	store := testsupport.MustOpenStore(t, cfg)
	return NewDrafter(cfg, store, completer, grounder, logging.NewNop()), store
}

func queueJob(t *testing.T, store *jobs.Store, kind jobs.Kind, topic string, params jobs.Params) *jobs.Job {
	t.Helper()
	return testsupport.NewJob(t, store, kind, topic, "DBMS", params)
}

func deckPayload(slides int) string {
	type rawSlide struct {
		Title      string   `json:"title"`
		Bullets    []string `json:"bullets"`
		Notes      string   `json:"notes"`
		ImageQuery string   `json:"image_query"`
	}
	payload := struct {
		Title  string     `json:"title"`
		Slides []rawSlide `json:"slides"`
	}{Title: "B-trees in Depth"}
	for i := 0; i < slides; i++ {
		payload.Slides = append(payload.Slides, rawSlide{
			Title:      fmt.Sprintf("Topic %d", i+1),
			Bullets:    []string{"first point", "second point", "third point"},
			Notes:      "talk through the diagram",
			ImageQuery: "database index",
		})
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func questionPayload(plan content.SectionPlan) string {
	question := func(marks int, options bool) map[string]any {
		q := map[string]any{
			"question":       "Explain the concept.",
			"correct_answer": "An answer.",
			"marks":          marks,
			"difficulty":     "medium",
		}
		if options {
			q["options"] = []string{"a", "b", "c", "d"}
		}
		return q
	}
	payload := map[string]any{}
	var mcqs, shorts, longs []map[string]any
	for i := 0; i < plan.MCQ; i++ {
		mcqs = append(mcqs, question(plan.MCQMarks, true))
	}
	for i := 0; i < plan.Short; i++ {
		shorts = append(shorts, question(plan.ShortMarks, false))
	}
	for i := 0; i < plan.Long; i++ {
		longs = append(longs, question(plan.LongMarks, false))
	}
	payload["mcq_questions"] = mcqs
	payload["short_answer_questions"] = shorts
	payload["long_answer_questions"] = longs
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestExecuteDraftsDeckPlan(t *testing.T) {
	completer := &scriptedCompleter{response: deckPayload(6), available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindDeck, "B-trees", jobs.Params{Slides: 6})

	if err := drafter.Prepare(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	var plan content.DeckPlan
	if err := json.Unmarshal([]byte(job.PlanJSON), &plan); err != nil {
		t.Fatalf("plan json: %v", err)
	}
	if plan.Title != "B-trees in Depth" {
		t.Fatalf("title = %q", plan.Title)
	}
	if len(plan.Slides) != 7 {
		t.Fatalf("slides = %d, want 7 (title slide + 6)", len(plan.Slides))
	}
	if plan.Slides[0].Type != content.SlideTypeTitle {
		t.Fatalf("first slide type = %q", plan.Slides[0].Type)
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("progress = %v", job.ProgressPercent)
	}
}

func TestExecuteMalformedDeckLandsInValidation(t *testing.T) {
	completer := &scriptedCompleter{response: "I could not produce JSON, sorry.", available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindDeck, "B-trees", jobs.Params{})

	err := drafter.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for malformed deck payload")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error kind = %v", err)
	}
	if services.FailureStatus(err) != jobs.StatusReview {
		t.Fatalf("failure status = %v", services.FailureStatus(err))
	}
}

func TestExecuteWithoutProviderIsConfigurationError(t *testing.T) {
	completer := &scriptedCompleter{available: false}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindDeck, "B-trees", jobs.Params{})

	err := drafter.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v", err)
	}
}

func TestExecuteRequiresTopic(t *testing.T) {
	completer := &scriptedCompleter{available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindDeck, "placeholder", jobs.Params{})
	job.Topic = "   "

	err := drafter.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v", err)
	}
}

func TestExecuteDraftsQuestionPaperSets(t *testing.T) {
	plan := content.SectionPlanFor(10)
	completer := &scriptedCompleter{response: questionPayload(plan), available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindQuestionPaper, "Normalization", jobs.Params{Questions: 10, Sets: 2})

	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Title string                `json:"title"`
		Sets  []content.QuestionSet `json:"sets"`
	}
	if err := json.Unmarshal([]byte(job.PlanJSON), &decoded); err != nil {
		t.Fatalf("plan json: %v", err)
	}
	if len(decoded.Sets) != 2 {
		t.Fatalf("sets = %d", len(decoded.Sets))
	}
	if decoded.Sets[0].SetNumber != 1 || decoded.Sets[1].SetNumber != 2 {
		t.Fatalf("set numbers = %d, %d", decoded.Sets[0].SetNumber, decoded.Sets[1].SetNumber)
	}
	wantMarks := plan.MCQ*plan.MCQMarks + plan.Short*plan.ShortMarks + plan.Long*plan.LongMarks
	if decoded.Sets[0].TotalMarks != wantMarks {
		t.Fatalf("total marks = %d, want %d", decoded.Sets[0].TotalMarks, wantMarks)
	}
	if decoded.Title != "DBMS - Normalization" {
		t.Fatalf("title = %q", decoded.Title)
	}
}

func TestExecuteClampsRequestedSets(t *testing.T) {
	plan := content.DefaultSectionPlan()
	completer := &scriptedCompleter{response: questionPayload(plan), available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindQuestionPaper, "Normalization", jobs.Params{Sets: 99})

	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Sets []content.QuestionSet `json:"sets"`
	}
	if err := json.Unmarshal([]byte(job.PlanJSON), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Sets) != 4 {
		t.Fatalf("sets = %d, want max_sets clamp of 4", len(decoded.Sets))
	}
}

func TestExecuteDraftsLabManual(t *testing.T) {
	manual := content.LabManual{
		Title:     "Implementing Stack Operations",
		Objective: "Understand LIFO behavior",
		Apparatus: []string{"computer", "gcc"},
		Theory:    "A stack is a last-in first-out structure.",
		Procedure: []string{"Write push", "Write pop", "Test both"},
		Result:    "Stack behaves as expected",
	}
	encoded, _ := json.Marshal(manual)
	completer := &scriptedCompleter{response: string(encoded), available: true}
	drafter, store := newTestDrafter(t, completer, nil)
	job := queueJob(t, store, jobs.KindLabManual, "Stack operations", jobs.Params{})

	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	var got content.LabManual
	if err := json.Unmarshal([]byte(job.PlanJSON), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != manual.Title || len(got.Procedure) != 3 {
		t.Fatalf("manual = %+v", got)
	}
}

func TestExecuteGroundsPromptInSyllabus(t *testing.T) {
	completer := &scriptedCompleter{response: deckPayload(3), available: true}
	grounder := &scriptedGrounder{grounding: "[Page 4] B-trees keep keys sorted for range scans."}
	drafter, store := newTestDrafter(t, completer, grounder)
	job := queueJob(t, store, jobs.KindDeck, "B-trees", jobs.Params{Slides: 3, SyllabusID: "doc-1"})

	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("prompts = %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "[Page 4]") {
		t.Fatalf("prompt missing grounding: %q", completer.prompts[0])
	}
}

func TestExecuteToleratesGroundingFailure(t *testing.T) {
	completer := &scriptedCompleter{response: deckPayload(3), available: true}
	grounder := &scriptedGrounder{err: errors.New("doc missing")}
	drafter, store := newTestDrafter(t, completer, grounder)
	job := queueJob(t, store, jobs.KindDeck, "B-trees", jobs.Params{Slides: 3, SyllabusID: "doc-1"})

	if err := drafter.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
}

func TestHealthCheckReflectsProviderAvailability(t *testing.T) {
	completer := &scriptedCompleter{available: false}
	drafter, _ := newTestDrafter(t, completer, nil)
	health := drafter.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("expected unhealthy without a provider")
	}

	completer.available = true
	health = drafter.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("health = %+v", health)
	}
}
