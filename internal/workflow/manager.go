package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/jobs"
	"eduassist/internal/notifications"
)

// Manager coordinates job processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat *HeartbeatMonitor

	lanes     map[laneKind]*laneState
	laneOrder []laneKind

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *jobs.Job

	queueActive bool
	queueStart  time.Time
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *jobs.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		lanes: make(map[laneKind]*laneState),
	}
}
