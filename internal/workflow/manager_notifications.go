package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
)

func (m *Manager) notifyStageFailure(ctx context.Context, stageName string, job *jobs.Job, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	logger := logging.WithContext(ctx, m.logger.With(logging.String(logging.FieldComponent, "workflow-manager")))
	if err := m.notifier.Publish(ctx, notifications.EventGenerationFailed, notifications.Payload{
		"kind":  string(job.Kind),
		"topic": job.Topic,
		"error": stageErr,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send failure notification")
		} else {
			logger.Debug("stage failure notification failed", logging.Error(err))
		}
	}
	contextLabel := fmt.Sprintf("%s (job #%d)", stageName, job.ID)
	if err := m.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"error":   stageErr,
		"context": contextLabel,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send error notification")
		} else {
			logger.Debug("stage error notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) onJobStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not get queue stats for start notification")
		} else {
			m.logger.Warn("queue stats unavailable for start notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "start notification will not be sent"),
			)
		}
		return
	}
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.mu.Unlock()

	count := countWorkJobs(stats)
	if err := m.notifier.Publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": count}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send queue start notification")
		} else {
			m.logger.Debug("queue start notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not check queue completion")
		} else {
			m.logger.Warn("queue stats unavailable for completion notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "completion notification will not be sent"),
			)
		}
		return
	}
	if active := countActiveJobs(stats); active > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	processed := stats[jobs.StatusCompleted]
	failed := stats[jobs.StatusFailed]
	if err := m.notifier.Publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
		"duration":  duration,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send queue completion notification")
		} else {
			m.logger.Debug("queue completion notification failed", logging.Error(err))
		}
	}
}

func countWorkJobs(stats map[jobs.Status]int) int {
	total := 0
	for status, count := range stats {
		if status == jobs.StatusCompleted || status == jobs.StatusFailed || status == jobs.StatusReview {
			continue
		}
		total += count
	}
	return total
}

func countActiveJobs(stats map[jobs.Status]int) int {
	activeStatuses := []jobs.Status{
		jobs.StatusPending,
		jobs.StatusDrafting,
		jobs.StatusDrafted,
		jobs.StatusRendering,
		jobs.StatusRendered,
		jobs.StatusIllustrating,
		jobs.StatusIllustrated,
		jobs.StatusOrganizing,
	}
	total := 0
	for _, status := range activeStatuses {
		total += stats[status]
	}
	return total
}
