// Package inbox watches a drop directory and turns files into work: CSV files
// are imported as timetables, PDFs become syllabus documents. Processed files
// move to done/, failures to failed/.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"eduassist/internal/config"
	"eduassist/internal/fileutil"
	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/textutil"
	"eduassist/internal/timetable"
)

const (
	doneDirName   = "done"
	failedDirName = "failed"
)

// defaultSettleDelay gives writers a moment to finish before a dropped file
// is read.
const defaultSettleDelay = 500 * time.Millisecond

// TimetableImporter imports timetable CSV payloads; *timetable.Importer
// satisfies it.
type TimetableImporter interface {
	Import(ctx context.Context, data []byte, opts timetable.Options) (*timetable.Summary, error)
}

// SyllabusUploader stores syllabus documents; *syllabus.Service satisfies it.
type SyllabusUploader interface {
	Upload(ctx context.Context, filename, subject string, data []byte) (*records.SyllabusDoc, error)
}

// Watcher monitors the inbox directory for dropped files.
type Watcher struct {
	cfg         *config.Config
	importer    TimetableImporter
	uploader    SyllabusUploader
	logger      *slog.Logger
	settleDelay time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher constructs the inbox watcher.
func NewWatcher(cfg *config.Config, importer TimetableImporter, uploader SyllabusUploader, logger *slog.Logger) *Watcher {
	componentLogger := logger
	if componentLogger != nil {
		componentLogger = componentLogger.With(logging.String(logging.FieldComponent, "inbox"))
	}
	return &Watcher{
		cfg:         cfg,
		importer:    importer,
		uploader:    uploader,
		logger:      componentLogger,
		settleDelay: defaultSettleDelay,
	}
}

// Start begins watching the inbox directory. It is a no-op when the inbox is
// disabled in configuration.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cfg == nil || !w.cfg.Inbox.Enabled {
		return nil
	}
	inboxDir := strings.TrimSpace(w.cfg.Paths.InboxDir)
	if inboxDir == "" {
		return fmt.Errorf("inbox enabled but paths.inbox_dir is not configured")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("inbox watcher already running")
	}

	for _, dir := range []string{inboxDir, filepath.Join(inboxDir, doneDirName), filepath.Join(inboxDir, failedDirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create inbox watcher: %w", err)
	}
	if err := watcher.Add(inboxDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch inbox directory: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx, watcher, inboxDir)

	w.logger.Info("inbox watcher started", logging.String("inbox_dir", inboxDir))
	return nil
}

// Stop shuts the watcher down and waits for in-flight processing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher, inboxDir string) {
	defer w.wg.Done()
	defer watcher.Close()

	// Pick up files dropped while the daemon was down.
	w.processExisting(ctx, inboxDir)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.handleDrop(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) processExisting(ctx context.Context, inboxDir string) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		w.logger.Warn("inbox scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.processFile(ctx, filepath.Join(inboxDir, entry.Name()))
	}
}

func (w *Watcher) handleDrop(ctx context.Context, path string) {
	if !supportedExtension(path) {
		return
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(w.settleDelay):
	}
	w.processFile(ctx, path)
}

func (w *Watcher) processFile(ctx context.Context, path string) {
	if !supportedExtension(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	logger := w.logger.With(logging.String("file", filepath.Base(path)))
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("inbox file unreadable", logging.Error(err))
		w.moveTo(path, failedDirName)
		return
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		summary, err := w.importer.Import(ctx, data, timetable.Options{Mode: timetable.ModeMerge})
		if err != nil {
			logger.Warn("inbox timetable import failed", logging.Error(err))
			w.moveTo(path, failedDirName)
			return
		}
		logger.Info("inbox timetable imported",
			logging.Int("added", summary.Added),
			logging.Int("skipped", summary.Skipped),
		)
	case ".pdf":
		filename := filepath.Base(path)
		doc, err := w.uploader.Upload(ctx, filename, subjectFromFilename(filename), data)
		if err != nil {
			logger.Warn("inbox syllabus upload failed", logging.Error(err))
			w.moveTo(path, failedDirName)
			return
		}
		logger.Info("inbox syllabus stored",
			logging.String("syllabus_id", doc.ID),
			logging.Int("pages", doc.Pages),
		)
	}
	w.moveTo(path, doneDirName)
}

func (w *Watcher) moveTo(path, subdir string) {
	target := fileutil.UniquePath(filepath.Join(filepath.Dir(path), subdir, filepath.Base(path)))
	if err := fileutil.MoveFile(path, target); err != nil {
		w.logger.Warn("inbox file move failed",
			logging.String("file", filepath.Base(path)),
			logging.Error(err),
		)
	}
}

func supportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".pdf":
		return true
	default:
		return false
	}
}

// subjectFromFilename derives a subject label from a dropped file name:
// "dbms-syllabus.pdf" becomes "Dbms Syllabus".
func subjectFromFilename(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	for _, sep := range []string{"-", "_", "."} {
		stem = strings.ReplaceAll(stem, sep, " ")
	}
	return textutil.TitleCase(strings.Join(strings.Fields(stem), " "))
}
