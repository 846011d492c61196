package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *jobs.Job, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := m.stageLoggerForLane(ctx, nil, base, job).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	if resolved == jobs.StatusReview {
		job.SetReview(message)
	} else {
		job.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.String("error_kind", services.Kind(stageErr)),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastJob(job)
	m.notifyStageFailure(ctx, stageName, job, stageErr)
	m.checkQueueCompletion(ctx)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return m.getStageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = m.getStageFailureMessage(stageName, "failed")
	}
	return message
}

func (m *Manager) getStageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}
