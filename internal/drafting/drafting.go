// Package drafting turns queued generation jobs into validated content plans.
//
// The drafter is the only foreground stage: it builds the prompt for the job
// kind, routes it through the model router, validates the response, and stores
// the resulting plan on the job for the background lanes to render.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"eduassist/internal/config"
	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/services"
	"eduassist/internal/stage"
	"eduassist/internal/syllabus"
)

// Completer is the completion surface the drafter needs; *llm.Router
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, preference string, req llm.Request) (string, error)
	Available() bool
}

// Grounder resolves syllabus excerpts for prompt grounding; *syllabus.Service
// satisfies it.
type Grounder interface {
	Grounding(ctx context.Context, docID, query string, maxChars int) (string, error)
}

// Drafter produces content plans for queued jobs.
type Drafter struct {
	store     *jobs.Store
	cfg       *config.Config
	completer Completer
	grounder  Grounder
	logger    *slog.Logger
}

// NewDrafter constructs the drafting stage handler.
func NewDrafter(cfg *config.Config, store *jobs.Store, completer Completer, grounder Grounder, logger *slog.Logger) *Drafter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "drafter"))
	}
	return &Drafter{store: store, cfg: cfg, completer: completer, grounder: grounder, logger: stageLogger}
}

func (d *Drafter) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, d.logger)
	if job.ProgressStage == "" {
		job.ProgressStage = "Drafting"
	}
	job.ProgressMessage = "Preparing draft"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info(
		"starting draft preparation",
		logging.String("kind", string(job.Kind)),
		logging.String("topic", strings.TrimSpace(job.Topic)),
	)
	return nil
}

func (d *Drafter) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, d.logger)
	if d.completer == nil || !d.completer.Available() {
		return services.Wrap(
			services.ErrConfiguration,
			"drafting",
			"resolve provider",
			"No language model provider configured; set gemini.api_key or groq.api_key in config.toml",
			nil,
		)
	}
	if strings.TrimSpace(job.Topic) == "" {
		return services.Wrap(
			services.ErrValidation,
			"drafting",
			"validate inputs",
			"Job has no topic; edit the job or queue a new one",
			nil,
		)
	}

	params := job.Params()
	grounding := d.resolveGrounding(ctx, params.SyllabusID, job.Topic)

	d.updateProgress(ctx, job, "Requesting plan from model", 25)

	var (
		plan any
		err  error
	)
	switch job.Kind {
	case jobs.KindDeck:
		plan, err = d.draftDeck(ctx, job, params, grounding)
	case jobs.KindQuestionPaper:
		plan, err = d.draftPaper(ctx, job, params, grounding)
	case jobs.KindLabManual:
		plan, err = d.draftManual(ctx, job, params, grounding)
	default:
		return services.Wrap(
			services.ErrValidation,
			"drafting",
			"resolve kind",
			fmt.Sprintf("Unknown job kind %q", job.Kind),
			nil,
		)
	}
	if err != nil {
		return err
	}

	d.updateProgress(ctx, job, "Validating plan", 75)
	encoded, err := json.Marshal(plan)
	if err != nil {
		return services.Wrap(services.ErrTransient, "drafting", "encode plan", "Failed to encode content plan", err)
	}
	job.PlanJSON = string(encoded)
	job.SetProgress("Drafting", "Draft plan ready", 100)

	logger.Info(
		"drafting completed",
		logging.String("kind", string(job.Kind)),
		logging.Int("plan_bytes", len(job.PlanJSON)),
	)
	return nil
}

func (d *Drafter) draftDeck(ctx context.Context, job *jobs.Job, params jobs.Params, grounding string) (*content.DeckPlan, error) {
	req := content.DeckRequest{
		Topic:     job.Topic,
		Subject:   job.Subject,
		Slides:    d.slideCount(params),
		Grounding: grounding,
	}
	payload, err := d.completer.Complete(ctx, params.Provider, llm.Request{
		Prompt:   content.BuildDeckPrompt(req),
		JSONOnly: true,
	})
	if err != nil {
		return nil, err
	}
	return content.ParseDeckPlan(req, payload)
}

func (d *Drafter) draftPaper(ctx context.Context, job *jobs.Job, params jobs.Params, grounding string) (*paperPlan, error) {
	req := content.PaperRequest{
		Topic:      job.Topic,
		Subject:    job.Subject,
		Sections:   d.sectionPlan(params),
		Difficulty: params.Difficulty,
		Sets:       d.setCount(params),
		Grounding:  grounding,
	}
	concurrency := 1
	if d.cfg != nil && d.cfg.Generation.SetConcurrency > 0 {
		concurrency = d.cfg.Generation.SetConcurrency
	}
	sets, err := content.GenerateQuestionSets(ctx, d.completer, params.Provider, req, concurrency)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(job.Topic)
	if job.Subject != "" {
		title = fmt.Sprintf("%s - %s", job.Subject, title)
	}
	return &paperPlan{
		Title:      title,
		Subject:    job.Subject,
		Topic:      job.Topic,
		Difficulty: req.Difficulty,
		Sets:       sets,
	}, nil
}

func (d *Drafter) draftManual(ctx context.Context, job *jobs.Job, params jobs.Params, grounding string) (*content.LabManual, error) {
	req := content.ManualRequest{
		Topic:     job.Topic,
		Subject:   job.Subject,
		Grounding: grounding,
	}
	payload, err := d.completer.Complete(ctx, params.Provider, llm.Request{
		Prompt:   content.BuildLabManualPrompt(req),
		JSONOnly: true,
	})
	if err != nil {
		return nil, err
	}
	return content.ParseLabManual(req, payload)
}

// paperPlan is the plan_json shape stored for question paper jobs.
type paperPlan struct {
	Title      string                `json:"title"`
	Subject    string                `json:"subject,omitempty"`
	Topic      string                `json:"topic"`
	Difficulty string                `json:"difficulty,omitempty"`
	Sets       []content.QuestionSet `json:"sets"`
}

func (d *Drafter) resolveGrounding(ctx context.Context, docID, topic string) string {
	if d.grounder == nil || strings.TrimSpace(docID) == "" {
		return ""
	}
	logger := logging.WithContext(ctx, d.logger)
	grounding, err := d.grounder.Grounding(ctx, docID, topic, syllabus.DefaultGroundingChars)
	if err != nil {
		logger.Warn("syllabus grounding unavailable", logging.Error(err), logging.String("syllabus_id", docID))
		return ""
	}
	if grounding != "" {
		logger.Info("grounding draft in syllabus", logging.String("syllabus_id", docID), logging.Int("chars", len(grounding)))
	}
	return grounding
}

func (d *Drafter) slideCount(params jobs.Params) int {
	count := params.Slides
	if count <= 0 && d.cfg != nil {
		count = d.cfg.Generation.DefaultSlides
	}
	if count <= 0 {
		count = 8
	}
	if d.cfg != nil && d.cfg.Generation.MaxSlides > 0 && count > d.cfg.Generation.MaxSlides {
		count = d.cfg.Generation.MaxSlides
	}
	return count
}

func (d *Drafter) sectionPlan(params jobs.Params) content.SectionPlan {
	if params.Questions > 0 {
		return content.SectionPlanFor(params.Questions)
	}
	return content.DefaultSectionPlan()
}

func (d *Drafter) setCount(params jobs.Params) int {
	sets := params.Sets
	if sets < 1 {
		sets = 1
	}
	if d.cfg != nil && d.cfg.Generation.MaxSets > 0 && sets > d.cfg.Generation.MaxSets {
		sets = d.cfg.Generation.MaxSets
	}
	return sets
}

func (d *Drafter) HealthCheck(ctx context.Context) stage.Health {
	const name = "drafter"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if d.completer == nil || !d.completer.Available() {
		return stage.Unhealthy(name, "no language model provider configured")
	}
	return stage.Healthy(name)
}

func (d *Drafter) updateProgress(ctx context.Context, job *jobs.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, d.logger)
	copy := *job
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := d.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist drafting progress", logging.Error(err))
		return
	}
	job.ProgressMessage = message
	job.ProgressPercent = percent
	job.UpdatedAt = copy.UpdatedAt
}
