// Package daemonrun boots the EduAssist daemon: it assembles logging, the
// stores, the language model router, the domain services, and the workflow
// stages, then runs until interrupted. Both `eduassist serve` and the
// standalone eduassistd binary call into Run.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"eduassist/internal/assist"
	"eduassist/internal/attendance"
	"eduassist/internal/calendar"
	"eduassist/internal/config"
	"eduassist/internal/daemon"
	"eduassist/internal/drafting"
	"eduassist/internal/illustrating"
	"eduassist/internal/inbox"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/llm/gemini"
	"eduassist/internal/llm/groq"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
	"eduassist/internal/organizing"
	"eduassist/internal/records"
	"eduassist/internal/rendering"
	"eduassist/internal/staging"
	"eduassist/internal/syllabus"
	"eduassist/internal/timetable"
	"eduassist/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the eduassist daemon runtime loop and blocks until the context
// is cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("eduassist-%s.log", runID))
	logHub := logging.NewStreamHub(4096)

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Hub:              logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update eduassist.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "eduassist-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "eduassist.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	recs, err := records.Open(cfg)
	if err != nil {
		logger.Error("open records store", logging.Error(err))
		_ = store.Close()
		return err
	}

	cleanStagingDirs(signalCtx, cfg, store, logger)

	notifier := notifications.NewService(cfg)
	router := llm.NewRouter(gemini.New(cfg.Gemini), groq.New(cfg.Groq), logger)
	logger.Info("provider snapshot",
		logging.Bool("gemini_key_present", cfg.Gemini.APIKey != ""),
		logging.Bool("groq_key_present", cfg.Groq.APIKey != ""),
		logging.Bool("unsplash_key_present", cfg.Unsplash.AccessKey != ""),
	)

	syllabusSvc := syllabus.NewService(recs, filepath.Join(cfg.Paths.LibraryDir, "syllabus"), logger)
	attendanceSvc := attendance.NewService(recs, filepath.Join(cfg.Paths.LibraryDir, "attendance"), logger)
	interpreter := attendance.NewInterpreter(attendanceSvc, router, logger)
	assistant := assist.New(store, interpreter, router, cfg.Generation, logger)
	calendarSvc := calendar.NewService(recs, logger)
	importer := timetable.NewImporter(recs, cfg.Timetable, logger)

	workflowManager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	workflowManager.ConfigureStages(workflow.StageSet{
		Drafter:     drafting.NewDrafter(cfg, store, router, syllabusSvc, logger),
		Renderer:    rendering.NewRenderer(cfg, store, logger),
		Illustrator: illustrating.NewIllustrator(cfg, store, logger),
		Organizer:   organizing.NewOrganizer(cfg, store, recs, logger),
	})

	d, err := daemon.New(cfg, store, recs, logger, workflowManager, logHub, daemon.Services{
		Assistant:   assistant,
		Attendance:  attendanceSvc,
		Interpreter: interpreter,
		Calendar:    calendarSvc,
		Timetable:   importer,
		Syllabus:    syllabusSvc,
		Router:      router,
		Inbox:       inbox.NewWatcher(cfg, importer, syllabusSvc, logger),
		Notifier:    notifier,
	})
	if err != nil {
		_ = store.Close()
		_ = recs.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("eduassist daemon shutting down")
	return nil
}

// staleStagingAge is how long an untouched staging directory may linger
// before boot cleanup reclaims it.
const staleStagingAge = 72 * time.Hour

func cleanStagingDirs(ctx context.Context, cfg *config.Config, store *jobs.Store, logger *slog.Logger) {
	active := map[int64]struct{}{}
	items, err := store.List(ctx)
	if err != nil {
		logger.Warn("list jobs for staging cleanup", logging.Error(err))
		return
	}
	for _, item := range items {
		active[item.ID] = struct{}{}
	}

	result := staging.CleanOrphaned(ctx, cfg.Paths.StagingDir, active, logger)
	stale := staging.CleanStale(ctx, cfg.Paths.StagingDir, staleStagingAge, logger)
	if removed := len(result.Removed) + len(stale.Removed); removed > 0 {
		logger.Info("staging cleanup complete", logging.Int("removed", removed))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "eduassist.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
