package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/services"
)

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	name := lane.name
	if name == "" {
		name = string(lane.kind)
	}
	return m.logger.With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-%s-runner", name)),
		logging.String(logging.FieldLane, name),
	)
}

func (m *Manager) stageLoggerForLane(ctx context.Context, lane *laneState, laneLogger *slog.Logger, job *jobs.Job) *slog.Logger {
	base := laneLogger
	if base == nil {
		base = m.logger
	}
	if base == nil {
		base = logging.NewNop()
	}
	if job != nil {
		base = base.With(logging.Int64(logging.FieldJobID, job.ID))
	}
	return logging.WithContext(ctx, base)
}

func withStageContext(ctx context.Context, lane *laneState, stageName string, job *jobs.Job, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if job != nil {
		ctx = services.WithJobID(ctx, job.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if lane != nil {
		laneLabel := strings.TrimSpace(lane.name)
		if laneLabel == "" {
			laneLabel = string(lane.kind)
		}
		ctx = services.WithLane(ctx, laneLabel)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

func deriveStageLabel(status jobs.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
