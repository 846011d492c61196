package workflow

import "eduassist/internal/jobs"

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background", notificationsEnabled: false}

	if set.Drafter != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "drafter",
			handler:          set.Drafter,
			startStatus:      jobs.StatusPending,
			processingStatus: jobs.StatusDrafting,
			doneStatus:       jobs.StatusDrafted,
		})
	}
	illustratorStart := jobs.StatusDrafted
	if set.Renderer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "renderer",
			handler:          set.Renderer,
			startStatus:      jobs.StatusDrafted,
			processingStatus: jobs.StatusRendering,
			doneStatus:       jobs.StatusRendered,
		})
		illustratorStart = jobs.StatusRendered
	}
	organizerStart := illustratorStart
	if set.Illustrator != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "illustrator",
			handler:          set.Illustrator,
			startStatus:      illustratorStart,
			processingStatus: jobs.StatusIllustrating,
			doneStatus:       jobs.StatusIllustrated,
		})
		organizerStart = jobs.StatusIllustrated
	}
	if set.Organizer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "organizer",
			handler:          set.Organizer,
			startStatus:      organizerStart,
			processingStatus: jobs.StatusOrganizing,
			doneStatus:       jobs.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
