package api

import (
	"sort"

	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/workflow"
)

// FromJob converts a queue job into its transport form.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:              job.ID,
		Kind:            string(job.Kind),
		Topic:           job.Topic,
		Subject:         job.Subject,
		Status:          string(job.Status),
		ProgressStage:   job.ProgressStage,
		ProgressPercent: job.ProgressPercent,
		ProgressMessage: job.ProgressMessage,
		ErrorMessage:    job.ErrorMessage,
		NeedsReview:     job.NeedsReview,
		ReviewReason:    job.ReviewReason,
		StagedPath:      job.StagedPath,
		FinalPath:       job.FinalPath,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
		LastHeartbeat:   job.LastHeartbeat,
	}
}

// FromJobs converts a job slice, preserving order.
func FromJobs(items []*jobs.Job) []Job {
	if len(items) == 0 {
		return nil
	}
	out := make([]Job, 0, len(items))
	for _, item := range items {
		out = append(out, FromJob(item))
	}
	return out
}

// FromStatusSummary converts a workflow summary into its transport form.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:   summary.Running,
		LastError: summary.LastError,
	}
	if len(summary.QueueStats) > 0 {
		status.QueueStats = make(map[string]int, len(summary.QueueStats))
		for key, value := range summary.QueueStats {
			status.QueueStats[string(key)] = value
		}
	}
	if len(summary.StageHealth) > 0 {
		status.StageHealth = make([]StageHealth, 0, len(summary.StageHealth))
		for _, health := range summary.StageHealth {
			status.StageHealth = append(status.StageHealth, StageHealth{
				Name:   health.Name,
				Ready:  health.Ready,
				Detail: health.Detail,
			})
		}
		sort.Slice(status.StageHealth, func(i, j int) bool {
			return status.StageHealth[i].Name < status.StageHealth[j].Name
		})
	}
	if summary.LastJob != nil {
		converted := FromJob(summary.LastJob)
		status.LastJob = &converted
	}
	return status
}

// FromQueueHealth converts a queue health summary into its transport form.
func FromQueueHealth(summary jobs.HealthSummary) QueueHealth {
	return QueueHealth{
		Total:      summary.Total,
		Pending:    summary.Pending,
		Processing: summary.Processing,
		Failed:     summary.Failed,
		Review:     summary.Review,
		Completed:  summary.Completed,
	}
}

// FromDatabaseHealth converts database diagnostics into their transport form.
func FromDatabaseHealth(health jobs.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		DBPath:           health.DBPath,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		SchemaVersion:    health.SchemaVersion,
		TableExists:      health.TableExists,
		MissingColumns:   health.MissingColumns,
		IntegrityCheck:   health.IntegrityCheck,
		TotalJobs:        health.TotalJobs,
		Error:            health.Error,
	}
}

// FromLogEvents converts hub events into their transport form.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     evt.Timestamp,
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			Stage:         evt.Stage,
			JobID:         evt.JobID,
			Lane:          evt.Lane,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}
