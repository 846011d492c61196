// Package organizing moves staged artifacts into their final library location
// and records them in the artifact catalog.
package organizing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"eduassist/internal/config"
	"eduassist/internal/fileutil"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
	"eduassist/internal/records"
	"eduassist/internal/services"
	"eduassist/internal/stage"
	"eduassist/internal/textutil"
)

// Library subdirectories per artifact kind.
const (
	presentationsDir  = "presentations"
	questionPapersDir = "question-papers"
	labManualsDir     = "lab-manuals"
)

// minLibraryFreeBytes is the free-space floor below which the organizer
// reports itself unhealthy.
const minLibraryFreeBytes = 500 << 20

// Organizer moves rendered files into the library and catalogs them.
type Organizer struct {
	store    *jobs.Store
	recs     *records.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewOrganizer constructs the organizing stage handler using default
// dependencies.
func NewOrganizer(cfg *config.Config, store *jobs.Store, recs *records.Store, logger *slog.Logger) *Organizer {
	return NewOrganizerWithDependencies(cfg, store, recs, logger, notifications.NewService(cfg))
}

// NewOrganizerWithDependencies allows injecting the notifier (used in tests).
func NewOrganizerWithDependencies(cfg *config.Config, store *jobs.Store, recs *records.Store, logger *slog.Logger, notifier notifications.Service) *Organizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "organizer"))
	}
	return &Organizer{store: store, recs: recs, cfg: cfg, logger: stageLogger, notifier: notifier}
}

func (o *Organizer) Prepare(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, o.logger)
	if job.ProgressStage == "" {
		job.ProgressStage = "Organizing"
	}
	job.ProgressMessage = "Preparing library organization"
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	logger.Info(
		"starting organization preparation",
		logging.String("kind", string(job.Kind)),
		logging.String("staged_path", strings.TrimSpace(job.StagedPath)),
	)
	return nil
}

func (o *Organizer) Execute(ctx context.Context, job *jobs.Job) error {
	logger := logging.WithContext(ctx, o.logger)

	staged := strings.TrimSpace(job.StagedPath)
	if staged == "" {
		return services.Wrap(services.ErrValidation, "organizing", "validate inputs",
			"No staged artifact present for organization; rerun rendering", nil)
	}
	if _, err := os.Stat(staged); err != nil {
		return services.Wrap(services.ErrValidation, "organizing", "validate inputs",
			"Staged artifact is missing on disk; rerun rendering", err)
	}

	kindDir, err := o.kindDir(job.Kind)
	if err != nil {
		return err
	}

	o.updateProgress(ctx, job, "Moving artifact into library", 25)
	finalPath, err := o.moveIntoLibrary(job, staged, kindDir)
	if err != nil {
		return err
	}
	job.FinalPath = finalPath
	logger.Info("library move completed", logging.String("final_path", finalPath))

	o.updateProgress(ctx, job, "Recording artifact", 75)
	if err := o.recordArtifact(ctx, job, finalPath); err != nil {
		return err
	}

	job.SetProgress("Organizing", fmt.Sprintf("Available in library: %s", filepath.Base(finalPath)), 100)
	logger.Info("organization completed", logging.String("final_path", finalPath))

	if o.notifier != nil {
		err := o.notifier.Publish(ctx, notifications.EventGenerationCompleted, notifications.Payload{
			"kind":  string(job.Kind),
			"topic": strings.TrimSpace(job.Topic),
			"file":  filepath.Base(finalPath),
		})
		if err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (o *Organizer) kindDir(kind jobs.Kind) (string, error) {
	switch kind {
	case jobs.KindDeck:
		return presentationsDir, nil
	case jobs.KindQuestionPaper:
		return questionPapersDir, nil
	case jobs.KindLabManual:
		return labManualsDir, nil
	default:
		return "", services.Wrap(services.ErrValidation, "organizing", "resolve kind",
			fmt.Sprintf("Unknown job kind %q", kind), nil)
	}
}

// moveIntoLibrary relocates the staged artifact. Decks with downloaded assets
// get their own directory so the relative asset references stay valid; flat
// artifacts land directly in the kind directory with collision-safe names.
func (o *Organizer) moveIntoLibrary(job *jobs.Job, staged, kindDir string) (string, error) {
	libraryDir := strings.TrimSpace(o.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return "", services.Wrap(services.ErrConfiguration, "organizing", "resolve library dir",
			"Library directory not configured; set paths.library_dir in config.toml", nil)
	}
	targetRoot := filepath.Join(libraryDir, kindDir)
	if err := os.MkdirAll(targetRoot, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "organizing", "ensure library dir",
			"Failed to create library directory", err)
	}

	assetsDir := filepath.Join(filepath.Dir(staged), "assets")
	if info, err := os.Stat(assetsDir); err == nil && info.IsDir() {
		return o.moveDeckBundle(staged, assetsDir, targetRoot, job)
	}

	base := textutil.SanitizeFileName(filepath.Base(staged))
	target := fileutil.UniquePath(filepath.Join(targetRoot, base))
	if err := fileutil.MoveFile(staged, target); err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "move artifact",
			"Failed to move artifact into library", err)
	}
	if err := o.moveSidecar(staged, target); err != nil {
		return "", err
	}
	return target, nil
}

// moveDeckBundle moves the deck file plus its assets directory into a
// dedicated library folder named after the deck.
func (o *Organizer) moveDeckBundle(staged, assetsDir, targetRoot string, job *jobs.Job) (string, error) {
	name := textutil.Slug(job.Topic)
	if name == "" {
		name = fmt.Sprintf("job-%d", job.ID)
	}
	bundleDir := fileutil.UniquePath(filepath.Join(targetRoot, name))
	if err := os.MkdirAll(filepath.Join(bundleDir, "assets"), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "ensure deck folder",
			"Failed to create deck library folder", err)
	}

	target := filepath.Join(bundleDir, filepath.Base(staged))
	if err := fileutil.MoveFile(staged, target); err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "move deck",
			"Failed to move deck into library", err)
	}

	entries, err := os.ReadDir(assetsDir)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "read assets",
			"Failed to read staged assets", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(assetsDir, entry.Name())
		dst := filepath.Join(bundleDir, "assets", entry.Name())
		if err := fileutil.MoveFile(src, dst); err != nil {
			return "", services.Wrap(services.ErrTransient, "organizing", "move assets",
				"Failed to move deck assets into library", err)
		}
	}
	os.Remove(assetsDir)
	return target, nil
}

// moveSidecar carries the question paper JSON sidecar along with the
// markdown, keeping the two stems matched even after collision renames.
func (o *Organizer) moveSidecar(staged, target string) error {
	if !strings.HasSuffix(staged, ".paper.md") {
		return nil
	}
	sidecar := strings.TrimSuffix(staged, ".paper.md") + ".paper.json"
	if _, err := os.Stat(sidecar); err != nil {
		return nil
	}
	sidecarTarget := strings.TrimSuffix(target, ".paper.md") + ".paper.json"
	if err := fileutil.MoveFile(sidecar, sidecarTarget); err != nil {
		return services.Wrap(services.ErrTransient, "organizing", "move sidecar",
			"Failed to move question paper sidecar", err)
	}
	return nil
}

func (o *Organizer) recordArtifact(ctx context.Context, job *jobs.Job, finalPath string) error {
	if o.recs == nil {
		return services.Wrap(services.ErrConfiguration, "organizing", "record artifact",
			"Records store unavailable", nil)
	}
	var size int64
	if info, err := os.Stat(finalPath); err == nil {
		size = info.Size()
	}
	title := textutil.TitleCase(job.Topic)
	if title == "" {
		title = filepath.Base(finalPath)
	}
	artifact := records.Artifact{
		ID:        uuid.NewString(),
		Kind:      string(job.Kind),
		Title:     title,
		Subject:   strings.TrimSpace(job.Subject),
		Path:      finalPath,
		SizeBytes: size,
		CreatedAt: time.Now().UTC(),
		JobID:     job.ID,
	}
	if err := o.recs.AddArtifact(ctx, artifact); err != nil {
		return services.Wrap(services.ErrTransient, "organizing", "record artifact",
			"Failed to record artifact in catalog", err)
	}
	return nil
}

func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	libraryDir := strings.TrimSpace(o.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	if o.recs == nil {
		return stage.Unhealthy(name, "records store unavailable")
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(libraryDir, &stat); err != nil {
		if os.IsNotExist(err) {
			return stage.Unhealthy(name, "library directory missing")
		}
		return stage.Unhealthy(name, fmt.Sprintf("cannot stat library filesystem: %v", err))
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minLibraryFreeBytes {
		return stage.Unhealthy(name, fmt.Sprintf("low disk space in library: %d MB free", free>>20))
	}
	return stage.Healthy(name)
}

func (o *Organizer) updateProgress(ctx context.Context, job *jobs.Job, message string, percent float64) {
	logger := logging.WithContext(ctx, o.logger)
	copy := *job
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := o.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist organization progress", logging.Error(err))
		return
	}
	job.ProgressMessage = message
	job.ProgressPercent = percent
	job.UpdatedAt = copy.UpdatedAt
}
