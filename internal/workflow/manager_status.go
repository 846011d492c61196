package workflow

import (
	"context"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastJob     *jobs.Job
	QueueStats  map[jobs.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	stageSet := make([]pipelineStage, 0)
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil {
			continue
		}
		stageSet = append(stageSet, lane.stages...)
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stageSet))
	for _, stg := range stageSet {
		handler := stg.handler
		if handler == nil {
			continue
		}
		health[stg.name] = handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		copied := *lastJob
		summary.LastJob = &copied
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *jobs.Job) {
	m.mu.Lock()
	if job != nil {
		copied := *job
		m.lastJob = &copied
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
