package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, lane *laneState, laneLogger *slog.Logger, job *jobs.Job) error {
	stg, ok := lane.stageForStatus(job.Status)
	if !ok {
		if laneLogger == nil {
			laneLogger = m.logger
		}
		if laneLogger == nil {
			laneLogger = logging.NewNop()
		}
		laneLogger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, lane, stg.name, job, requestID)
	stageLogger := m.stageLoggerForLane(stageCtx, lane, laneLogger, job)
	if aware, ok := stg.handler.(loggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if err := m.transitionToProcessing(stageCtx, lane, stg.processingStatus, job); err != nil {
		stageLogger.Error("failed to transition job to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, lane, stageLogger, stg, job)
}

func (m *Manager) executeStage(ctx context.Context, lane *laneState, stageLogger *slog.Logger, stg pipelineStage, job *jobs.Job) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("topic", strings.TrimSpace(job.Topic)),
		logging.String("kind", string(job.Kind)),
	)

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String(logging.FieldStage, stg.name))
		job.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
		if err := m.store.Update(ctx, job); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		m.setLastError(errors.New("stage handler unavailable"))
		return errors.New("stage handler unavailable")
	}

	if err := handler.Prepare(ctx, job); err != nil {
		m.handleStageFailure(ctx, stg.name, job, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, handler, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, job, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	if job.Status == jobs.StatusCompleted {
		currentLabel := strings.TrimSpace(job.ProgressStage)
		if !job.NeedsReview && !strings.Contains(strings.ToLower(currentLabel), "review") {
			job.ProgressStage = deriveStageLabel(jobs.StatusCompleted)
		}
		if job.ProgressPercent < 100 {
			job.ProgressPercent = 100
		}
		if strings.TrimSpace(job.ProgressMessage) == "" {
			job.ProgressMessage = deriveStageLabel(jobs.StatusCompleted)
		}
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.String("progress_stage", strings.TrimSpace(job.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(job.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)
	m.checkQueueCompletion(ctx)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *jobs.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, lane *laneState, processing jobs.Status, job *jobs.Job) error {
	if processing == "" {
		return errors.New("processing status must not be empty")
	}

	m.setJobProcessingState(job, processing)
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	if lane == nil || lane.notificationsEnabled {
		m.onJobStarted(ctx)
	}
	return nil
}

func (m *Manager) setJobProcessingState(job *jobs.Job, processing jobs.Status) {
	now := time.Now().UTC()
	job.Status = processing
	if job.ProgressStage == "" {
		job.ProgressStage = deriveStageLabel(processing)
	}
	if job.ProgressMessage == "" {
		job.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(processing))
	}
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
}
