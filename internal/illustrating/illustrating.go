// Package illustrating resolves stock images for staged slide decks.
//
// Only decks are illustrated; other artifact kinds pass through untouched.
// Image resolution never fails the job: a slide that cannot get an image is
// left text-only.
package illustrating

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"eduassist/internal/config"
	"eduassist/internal/fileutil"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/rendering"
	"eduassist/internal/services"
	"eduassist/internal/stage"
)

const assetsDirName = "assets"

// Illustrator attaches images to staged deck documents.
type Illustrator struct {
	store  *jobs.Store
	cfg    *config.Config
	logger *slog.Logger
	photos PhotoSource
}

// NewIllustrator constructs the illustrating stage handler with the
// configured Unsplash client.
func NewIllustrator(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Illustrator {
	var source PhotoSource
	if cfg != nil {
		source = newUnsplashClient(cfg.Unsplash)
	}
	return NewIllustratorWithDependencies(cfg, store, logger, source)
}

// NewIllustratorWithDependencies allows injecting the photo source (used in
// tests).
func NewIllustratorWithDependencies(cfg *config.Config, store *jobs.Store, logger *slog.Logger, photos PhotoSource) *Illustrator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "illustrator"))
	}
	return &Illustrator{store: store, cfg: cfg, logger: stageLogger, photos: photos}
}

func (il *Illustrator) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, il.logger)
	if job.ProgressStage == "" {
		job.ProgressStage = "Illustrating"
	}
	job.ProgressMessage = "Preparing illustration"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info(
		"starting illustration preparation",
		logging.String("kind", string(job.Kind)),
		logging.String("staged_path", strings.TrimSpace(job.StagedPath)),
	)
	return nil
}

func (il *Illustrator) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, il.logger)

	if job.Kind != jobs.KindDeck {
		job.SetProgress("Illustrating", "No illustration needed", 100)
		logger.Info("skipping illustration for non-deck artifact", logging.String("kind", string(job.Kind)))
		return nil
	}
	if strings.TrimSpace(job.StagedPath) == "" {
		return services.Wrap(services.ErrValidation, "illustrating", "validate inputs",
			"No staged deck present for illustration; rerun rendering", nil)
	}

	doc, err := readDeckDocument(job.StagedPath)
	if err != nil {
		return err
	}

	assetsDir := filepath.Join(filepath.Dir(job.StagedPath), assetsDirName)
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "ensure assets dir",
			"Failed to create staging assets directory", err)
	}

	budget := il.imageBudget()
	attached := 0
	for i := range doc.Slides {
		if doc.Slides[i].Number <= 1 {
			continue
		}
		if attached >= budget {
			break
		}
		slide := &doc.Slides[i]
		il.updateProgress(ctx, job,
			fmt.Sprintf("Illustrating slide %d of %d", slide.Number, len(doc.Slides)),
			progressFor(attached, budget))
		name, resolveErr := il.resolveImage(ctx, slide, assetsDir)
		if resolveErr != nil {
			logger.Warn("image resolution failed, keeping slide text-only",
				logging.Int("slide", slide.Number), logging.Error(resolveErr))
			continue
		}
		if name == "" {
			continue
		}
		slide.ImageFile = filepath.Join(assetsDirName, name)
		attached++
	}

	if err := writeDeckDocument(job.StagedPath, doc); err != nil {
		return err
	}
	job.SetProgress("Illustrating", fmt.Sprintf("Attached %d image%s", attached, plural(attached)), 100)
	logger.Info("illustration completed", logging.Int("images", attached))
	return nil
}

// resolveImage picks the best available image for a slide. An on-disk path
// wins over a preferred URL, which wins over a stock-photo query.
func (il *Illustrator) resolveImage(ctx context.Context, slide *rendering.DeckSlide, assetsDir string) (string, error) {
	name := fmt.Sprintf("slide-%d", slide.Number)

	if path := strings.TrimSpace(slide.ImagePath); path != "" {
		if _, err := os.Stat(path); err == nil {
			target := name + extensionOf(path, ".jpg")
			if err := fileutil.CopyFile(path, filepath.Join(assetsDir, target)); err != nil {
				return "", err
			}
			return target, nil
		}
	}

	if url := strings.TrimSpace(slide.PreferredImageURL); url != "" {
		target := name + extensionOf(url, ".jpg")
		if err := il.download(ctx, url, filepath.Join(assetsDir, target)); err == nil {
			return target, nil
		}
		// Fall through to the stock query when the preferred URL is dead.
	}

	query := strings.TrimSpace(slide.ImageQuery)
	if query == "" {
		return "", nil
	}
	if il.photos == nil || !il.photos.Available() {
		return "", nil
	}
	url, err := il.photos.RandomPhotoURL(ctx, query)
	if err != nil {
		return "", err
	}
	target := name + ".jpg"
	if err := il.download(ctx, url, filepath.Join(assetsDir, target)); err != nil {
		return "", err
	}
	return target, nil
}

func (il *Illustrator) imageBudget() int {
	if il.cfg != nil && il.cfg.Unsplash.MaxImages > 0 {
		return il.cfg.Unsplash.MaxImages
	}
	return 4
}

func progressFor(attached, budget int) float64 {
	if budget <= 0 {
		return 50
	}
	return 10 + 80*float64(attached)/float64(budget)
}

func extensionOf(path, fallback string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return fallback
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func (il *Illustrator) HealthCheck(ctx context.Context) stage.Health {
	const name = "illustrator"
	if il.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if il.photos == nil || !il.photos.Available() {
		return stage.Unhealthy(name, "unsplash access key not configured; decks stay text-only")
	}
	return stage.Healthy(name)
}

func (il *Illustrator) updateProgress(ctx context.Context, job *jobs.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, il.logger)
	copy := *job
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := il.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist illustration progress", logging.Error(err))
		return
	}
	job.ProgressMessage = message
	job.ProgressPercent = percent
	job.UpdatedAt = copy.UpdatedAt
}
