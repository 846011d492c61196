package workflow

import (
	"log/slog"

	"eduassist/internal/jobs"
	"eduassist/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Drafter     stage.Handler
	Renderer    stage.Handler
	Illustrator stage.Handler
	Organizer   stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      jobs.Status
	processingStatus jobs.Status
	doneStatus       jobs.Status
}

type laneKind string

const (
	laneForeground laneKind = "foreground"
	laneBackground laneKind = "background"
)

type laneState struct {
	kind                 laneKind
	name                 string
	stages               []pipelineStage
	statusOrder          []jobs.Status
	stageByStart         map[jobs.Status]pipelineStage
	processingStatuses   []jobs.Status
	logger               *slog.Logger
	notificationsEnabled bool
	runReclaimer         bool
}

// loggerAware lets stage handlers receive the per-job logger before Execute.
type loggerAware interface {
	SetLogger(*slog.Logger)
}

func (l *laneState) finalize() {
	if l == nil {
		return
	}
	l.stageByStart = make(map[jobs.Status]pipelineStage, len(l.stages))
	l.statusOrder = make([]jobs.Status, 0, len(l.stages))
	seenProcessing := make(map[jobs.Status]struct{})
	for _, stg := range l.stages {
		l.stageByStart[stg.startStatus] = stg
		l.statusOrder = append(l.statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			if _, ok := seenProcessing[stg.processingStatus]; !ok {
				l.processingStatuses = append(l.processingStatuses, stg.processingStatus)
				seenProcessing[stg.processingStatus] = struct{}{}
			}
		}
	}
}

func (l *laneState) stageForStatus(status jobs.Status) (pipelineStage, bool) {
	if l == nil {
		return pipelineStage{}, false
	}
	stg, ok := l.stageByStart[status]
	return stg, ok
}
