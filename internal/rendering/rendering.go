// Package rendering writes drafted content plans out as staged artifact files.
package rendering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"eduassist/internal/config"
	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/services"
	"eduassist/internal/stage"
	"eduassist/internal/textutil"
)

// Slide layouts written into deck documents. Presentation tooling downstream
// picks a template from these.
const (
	LayoutTitle        = "title"
	LayoutBullets      = "bullets"
	LayoutBulletsImage = "bullets-image"
)

const generatorName = "EduAssist"

// Renderer writes the staged artifact for a drafted job.
type Renderer struct {
	store  *jobs.Store
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRenderer constructs the rendering stage handler.
func NewRenderer(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Renderer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "renderer"))
	}
	return &Renderer{store: store, cfg: cfg, logger: stageLogger, now: time.Now}
}

func (r *Renderer) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, r.logger)
	if job.ProgressStage == "" {
		job.ProgressStage = "Rendering"
	}
	job.ProgressMessage = "Preparing render"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info(
		"starting render preparation",
		logging.String("kind", string(job.Kind)),
		logging.String("topic", strings.TrimSpace(job.Topic)),
	)
	return nil
}

func (r *Renderer) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, r.logger)

	jobDir, err := r.ensureJobDir(job)
	if err != nil {
		return err
	}
	r.updateProgress(ctx, job, "Writing artifact", 25)

	var artifact string
	switch job.Kind {
	case jobs.KindDeck:
		artifact, err = r.renderDeck(job, jobDir)
	case jobs.KindQuestionPaper:
		artifact, err = r.renderPaper(job, jobDir)
	case jobs.KindLabManual:
		artifact, err = r.renderManual(job, jobDir)
	default:
		return services.Wrap(services.ErrValidation, "rendering", "resolve kind",
			fmt.Sprintf("Unknown job kind %q", job.Kind), nil)
	}
	if err != nil {
		return err
	}

	job.StagedPath = artifact
	job.SetProgress("Rendering", fmt.Sprintf("Rendered %s", filepath.Base(artifact)), 100)
	logger.Info("rendering completed", logging.String("staged_path", artifact))
	return nil
}

// DeckDocument is the staged deck file format consumed by presentation
// tooling and by the illustrating stage.
type DeckDocument struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Topic       string      `json:"topic"`
	Subject     string      `json:"subject,omitempty"`
	GeneratedAt string      `json:"generated_at"`
	GeneratedBy string      `json:"generated_by"`
	Slides      []DeckSlide `json:"slides"`
}

// DeckSlide pairs a planned slide with its layout hint.
type DeckSlide struct {
	content.Slide
	Layout string `json:"layout"`
}

func (r *Renderer) renderDeck(job *jobs.Job, jobDir string) (string, error) {
	var plan content.DeckPlan
	if err := stage.DecodePlan(job, &plan); err != nil {
		return "", err
	}

	doc := DeckDocument{
		Title:       plan.Title,
		Subtitle:    plan.Subtitle,
		Topic:       job.Topic,
		Subject:     job.Subject,
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
		GeneratedBy: generatorName,
	}
	for _, slide := range plan.Slides {
		doc.Slides = append(doc.Slides, DeckSlide{Slide: slide, Layout: layoutFor(slide)})
	}

	path := filepath.Join(jobDir, r.artifactSlug(job)+".deck.json")
	if err := writeJSON(path, doc); err != nil {
		return "", services.Wrap(services.ErrTransient, "rendering", "write deck",
			"Failed to write staged deck file", err)
	}
	return path, nil
}

func layoutFor(slide content.Slide) string {
	switch {
	case slide.Type == content.SlideTypeTitle:
		return LayoutTitle
	case slide.ImageQuery != "" || slide.ImagePath != "" || slide.PreferredImageURL != "":
		return LayoutBulletsImage
	default:
		return LayoutBullets
	}
}

// paperPlan mirrors the plan_json written by drafting for question papers.
type paperPlan struct {
	Title      string                `json:"title"`
	Subject    string                `json:"subject,omitempty"`
	Topic      string                `json:"topic"`
	Difficulty string                `json:"difficulty,omitempty"`
	Sets       []content.QuestionSet `json:"sets"`
}

func (r *Renderer) renderPaper(job *jobs.Job, jobDir string) (string, error) {
	var plan paperPlan
	if err := stage.DecodePlan(job, &plan); err != nil {
		return "", err
	}
	if len(plan.Sets) == 0 {
		return "", services.Wrap(services.ErrValidation, "rendering", "validate paper",
			"Question paper plan has no sets; rerun drafting", nil)
	}

	slug := r.artifactSlug(job)
	path := filepath.Join(jobDir, slug+".paper.md")
	if err := os.WriteFile(path, []byte(paperMarkdown(job, plan)), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "rendering", "write paper",
			"Failed to write staged question paper", err)
	}
	sidecar := filepath.Join(jobDir, slug+".paper.json")
	if err := writeJSON(sidecar, plan); err != nil {
		return "", services.Wrap(services.ErrTransient, "rendering", "write paper sidecar",
			"Failed to write question paper sidecar", err)
	}
	return path, nil
}

func paperMarkdown(job *jobs.Job, plan paperPlan) string {
	title := strings.TrimSpace(plan.Title)
	if title == "" {
		title = textutil.TitleCase(job.Topic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if plan.Subject != "" {
		fmt.Fprintf(&b, "**Subject:** %s  \n", plan.Subject)
	}
	if plan.Difficulty != "" {
		fmt.Fprintf(&b, "**Difficulty:** %s  \n", plan.Difficulty)
	}
	b.WriteString("\n")

	for _, set := range plan.Sets {
		if len(plan.Sets) > 1 {
			fmt.Fprintf(&b, "## %s\n\n", set.SetName)
		}
		fmt.Fprintf(&b, "**Total marks:** %d\n\n", set.TotalMarks)

		if len(set.MCQQuestions) > 0 {
			b.WriteString("### Section A: Multiple Choice\n\n")
			for i, q := range set.MCQQuestions {
				fmt.Fprintf(&b, "%d. %s *(%d mark%s)*\n", i+1, q.Question, q.Marks, plural(q.Marks))
				for j, option := range q.Options {
					fmt.Fprintf(&b, "   %c) %s\n", 'a'+j, option)
				}
				b.WriteString("\n")
			}
		}
		if len(set.ShortAnswerQuestions) > 0 {
			b.WriteString("### Section B: Short Answer\n\n")
			for i, q := range set.ShortAnswerQuestions {
				fmt.Fprintf(&b, "%d. %s *(%d marks)*\n\n", i+1, q.Question, q.Marks)
			}
		}
		if len(set.LongAnswerQuestions) > 0 {
			b.WriteString("### Section C: Long Answer\n\n")
			for i, q := range set.LongAnswerQuestions {
				fmt.Fprintf(&b, "%d. %s *(%d marks)*\n\n", i+1, q.Question, q.Marks)
			}
		}

		fmt.Fprintf(&b, "### Answer Key%s\n\n", answerKeySuffix(plan.Sets, set))
		writeAnswers(&b, "A", set.MCQQuestions)
		writeAnswers(&b, "B", set.ShortAnswerQuestions)
		writeAnswers(&b, "C", set.LongAnswerQuestions)
		b.WriteString("\n")
	}
	return b.String()
}

func answerKeySuffix(sets []content.QuestionSet, set content.QuestionSet) string {
	if len(sets) > 1 {
		return " - " + set.SetName
	}
	return ""
}

func writeAnswers(b *strings.Builder, section string, questions []Question) {
	for i, q := range questions {
		answer := strings.TrimSpace(q.CorrectAnswer)
		if answer == "" {
			continue
		}
		fmt.Fprintf(b, "- %s%d: %s\n", section, i+1, answer)
	}
}

// Question aliases the content type so helpers stay readable.
type Question = content.Question

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func (r *Renderer) renderManual(job *jobs.Job, jobDir string) (string, error) {
	var manual content.LabManual
	if err := stage.DecodePlan(job, &manual); err != nil {
		return "", err
	}

	path := filepath.Join(jobDir, r.artifactSlug(job)+".manual.md")
	if err := os.WriteFile(path, []byte(manualMarkdown(job, manual)), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "rendering", "write manual",
			"Failed to write staged lab manual", err)
	}
	return path, nil
}

func manualMarkdown(job *jobs.Job, manual content.LabManual) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", manual.Title)
	if job.Subject != "" {
		fmt.Fprintf(&b, "**Subject:** %s\n\n", job.Subject)
	}
	fmt.Fprintf(&b, "## Objective\n\n%s\n\n", manual.Objective)
	if len(manual.Apparatus) > 0 {
		b.WriteString("## Apparatus\n\n")
		for _, item := range manual.Apparatus {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
	if manual.Theory != "" {
		fmt.Fprintf(&b, "## Theory\n\n%s\n\n", manual.Theory)
	}
	b.WriteString("## Procedure\n\n")
	for i, step := range manual.Procedure {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")
	if manual.Observations != "" {
		fmt.Fprintf(&b, "## Observations\n\n%s\n\n", manual.Observations)
	}
	if manual.Result != "" {
		fmt.Fprintf(&b, "## Result\n\n%s\n\n", manual.Result)
	}
	if len(manual.Precautions) > 0 {
		b.WriteString("## Precautions\n\n")
		for _, item := range manual.Precautions {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	return b.String()
}

func (r *Renderer) ensureJobDir(job *jobs.Job) (string, error) {
	if r.cfg == nil || strings.TrimSpace(r.cfg.Paths.StagingDir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "rendering", "resolve staging dir",
			"Staging directory not configured; set paths.staging_dir in config.toml", nil)
	}
	dir := filepath.Join(r.cfg.Paths.StagingDir, fmt.Sprintf("job-%d-%s", job.ID, r.artifactSlug(job)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "rendering", "ensure staging dir",
			"Failed to create job staging directory", err)
	}
	return dir, nil
}

func (r *Renderer) artifactSlug(job *jobs.Job) string {
	slug := textutil.Slug(job.Topic)
	if slug == "" {
		slug = fmt.Sprintf("job-%d", job.ID)
	}
	return slug
}

func writeJSON(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(encoded, '\n'), 0o644)
}

func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	dir := strings.TrimSpace(r.cfg.Paths.StagingDir)
	if dir == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return stage.Unhealthy(name, "staging directory missing")
	}
	return stage.Healthy(name)
}

func (r *Renderer) updateProgress(ctx context.Context, job *jobs.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, r.logger)
	copy := *job
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := r.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist rendering progress", logging.Error(err))
		return
	}
	job.ProgressMessage = message
	job.ProgressPercent = percent
	job.UpdatedAt = copy.UpdatedAt
}
