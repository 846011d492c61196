package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"eduassist/internal/assist"
	"eduassist/internal/attendance"
	"eduassist/internal/calendar"
	"eduassist/internal/config"
	"eduassist/internal/deps"
	"eduassist/internal/inbox"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
	"eduassist/internal/records"
	"eduassist/internal/syllabus"
	"eduassist/internal/timetable"
	"eduassist/internal/workflow"
)

// Services bundles the domain services the daemon exposes over the API.
// Individual fields may be nil; the matching endpoints then report 503.
type Services struct {
	Assistant   *assist.Assistant
	Attendance  *attendance.Service
	Interpreter *attendance.Interpreter
	Calendar    *calendar.Service
	Timetable   *timetable.Importer
	Syllabus    *syllabus.Service
	Router      *llm.Router
	Inbox       *inbox.Watcher
	Notifier    notifications.Service
}

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	recs     *records.Store
	workflow *workflow.Manager
	hub      *logging.StreamHub
	services Services

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	QueueDBPath   string
	RecordsDBPath string
	LockFilePath  string
	Dependencies  []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, recs *records.Store, logger *slog.Logger, wf *workflow.Manager, hub *logging.StreamHub, services Services) (*Daemon, error) {
	if cfg == nil || store == nil || recs == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, stores, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "eduassistd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recs:     recs,
		workflow: wf,
		hub:      hub,
		services: services,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the workflow manager, the inbox
// watcher, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another eduassist daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.services.Inbox != nil {
		if err := d.services.Inbox.Start(d.ctx); err != nil {
			d.logger.Warn("inbox watcher failed to start", logging.Error(err))
		}
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("eduassist daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if d.services.Inbox != nil {
		d.services.Inbox.Stop()
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("eduassist daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if d.store != nil {
		firstErr = d.store.Close()
	}
	if d.recs != nil {
		if err := d.recs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ListJobs returns queue jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []jobs.Status) ([]*jobs.Job, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// ClearQueue removes all queue jobs.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed jobs.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight jobs back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed jobs (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// RemoveJob deletes a single job from the queue.
func (d *Daemon) RemoveJob(ctx context.Context, id int64) (bool, error) {
	if d.store == nil {
		return false, errors.New("queue store unavailable")
	}
	return d.store.Remove(ctx, id)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (jobs.HealthSummary, error) {
	if d.store == nil {
		return jobs.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed queue database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (jobs.DatabaseHealth, error) {
	if d.store == nil {
		return jobs.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := d.services.Notifier
	if notifier == nil {
		notifier = notifications.NewService(d.cfg)
	}
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogStream returns the in-memory log hub, if one is attached.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.hub
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		LockFilePath: d.lockPath,
		Dependencies: deps.Check(d.cfg),
	}
	if d.store != nil {
		status.QueueDBPath = d.store.Path()
	}
	if d.recs != nil {
		status.RecordsDBPath = d.recs.Path()
	}
	return status
}
