// Package calendar exposes event and task operations over the records store
// and builds the teacher's today-overview.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/services"
)

// Service wraps the records store with calendar-level validation.
type Service struct {
	store  *records.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a calendar service.
func NewService(store *records.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "calendar"),
		now:    time.Now,
	}
}

// ListEvents returns events overlapping the [from, to) window.
func (s *Service) ListEvents(ctx context.Context, from, to time.Time) ([]records.Event, error) {
	if !to.After(from) {
		return nil, services.Wrap(services.ErrValidation, "calendar", "list_events", "to must be after from", nil)
	}
	events, err := s.store.ListEventsOverlapping(ctx, from, to)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "calendar", "list_events", "cannot list events", err)
	}
	return events, nil
}

// CreateEvent stores one event. A missing id is generated, a missing end
// defaults to one hour after the start, and the source defaults to manual.
func (s *Service) CreateEvent(ctx context.Context, event records.Event) (*records.Event, error) {
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "calendar", "create_event", "event title is required", nil)
	}
	if event.Start.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "calendar", "create_event", "event start is required", nil)
	}
	if event.End.IsZero() {
		event.End = event.Start.Add(time.Hour)
	}
	if !event.End.After(event.Start) {
		return nil, services.Wrap(services.ErrValidation, "calendar", "create_event", "event end must be after its start", nil)
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if strings.TrimSpace(event.Source) == "" {
		event.Source = records.EventSourceManual
	}
	if err := s.store.UpsertEvent(ctx, event); err != nil {
		return nil, services.Wrap(services.ErrTransient, "calendar", "create_event", "cannot store event", err)
	}
	s.logger.Info("event created",
		logging.String("event_id", event.ID),
		logging.String("title", event.Title),
	)
	return &event, nil
}

// CreateTask stores one task. A missing id is generated; duplicate ids are
// rejected by the store.
func (s *Service) CreateTask(ctx context.Context, task records.Task) (*records.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "calendar", "create_task", "task title is required", nil)
	}
	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}
	task.Due = strings.TrimSpace(task.Due)
	if err := s.store.AddTask(ctx, task); err != nil {
		return nil, services.Wrap(services.ErrValidation, "calendar", "create_task", "cannot store task", err)
	}
	return &task, nil
}

// Tasks lists tasks, optionally only the undone ones.
func (s *Service) Tasks(ctx context.Context, undoneOnly bool) ([]records.Task, error) {
	tasks, err := s.store.ListTasks(ctx, undoneOnly)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "calendar", "list_tasks", "cannot list tasks", err)
	}
	return tasks, nil
}

// CompleteTask marks a task done.
func (s *Service) CompleteTask(ctx context.Context, id string) error {
	done, err := s.store.MarkTaskDone(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrTransient, "calendar", "complete_task", "cannot update task", err)
	}
	if !done {
		return services.Wrap(services.ErrNotFound, "calendar", "complete_task",
			fmt.Sprintf("task %q not found", id), nil)
	}
	return nil
}

// Overview is the teacher's day at a glance.
type Overview struct {
	Date   string          `json:"date"`
	Events []records.Event `json:"events"`
	Tasks  []records.Task  `json:"tasks"`
}

// TodayOverview returns events overlapping today plus undone tasks due today.
func (s *Service) TodayOverview(ctx context.Context) (*Overview, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := s.store.ListEventsOverlapping(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "calendar", "today_overview", "cannot list events", err)
	}
	tasks, err := s.store.ListTasks(ctx, true)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "calendar", "today_overview", "cannot list tasks", err)
	}

	today := dayStart.Format("2006-01-02")
	var due []records.Task
	for _, task := range tasks {
		if strings.HasPrefix(task.Due, today) {
			due = append(due, task)
		}
	}
	return &Overview{Date: today, Events: events, Tasks: due}, nil
}
