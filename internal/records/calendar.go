package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertEvent inserts or replaces a calendar event keyed by id.
func (s *Store) UpsertEvent(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.ID) == "" {
		return errors.New("event id is required")
	}
	if strings.TrimSpace(event.Title) == "" {
		return errors.New("event title is required")
	}
	if event.Source == "" {
		event.Source = EventSourceManual
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, start, end, location, description, all_day, source)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
             title = excluded.title, start = excluded.start, end = excluded.end,
             location = excluded.location, description = excluded.description,
             all_day = excluded.all_day, source = excluded.source`,
		strings.TrimSpace(event.ID),
		strings.TrimSpace(event.Title),
		formatTime(event.Start),
		formatTime(event.End),
		strings.TrimSpace(event.Location),
		strings.TrimSpace(event.Description),
		boolToInt(event.AllDay),
		event.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// ListEventsOverlapping returns events whose interval intersects [from, to),
// ordered by start time.
func (s *Store) ListEventsOverlapping(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start, end, location, description, all_day, source
         FROM events WHERE start < ? AND end > ? ORDER BY start`,
		formatTime(to), formatTime(from))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// DeleteEventsOverlapping removes events intersecting [from, to), optionally
// restricted to the given sources. Used by replace-mode timetable imports.
func (s *Store) DeleteEventsOverlapping(ctx context.Context, from, to time.Time, sources ...string) (int64, error) {
	query := `DELETE FROM events WHERE start < ? AND end > ?`
	args := []any{formatTime(to), formatTime(from)}
	if len(sources) > 0 {
		placeholders := make([]string, len(sources))
		for i, source := range sources {
			placeholders[i] = "?"
			args = append(args, source)
		}
		query += ` AND source IN (` + strings.Join(placeholders, ",") + `)`
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return res.RowsAffected()
}

// AddTask inserts a task, rejecting duplicate ids.
func (s *Store) AddTask(ctx context.Context, task Task) error {
	if strings.TrimSpace(task.ID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(task.Title) == "" {
		return errors.New("task title is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, due, done) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(task.ID),
		strings.TrimSpace(task.Title),
		strings.TrimSpace(task.Due),
		boolToInt(task.Done),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return fmt.Errorf("task %q already exists", task.ID)
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListTasks returns tasks ordered by due date; undoneOnly filters out
// completed tasks.
func (s *Store) ListTasks(ctx context.Context, undoneOnly bool) ([]Task, error) {
	query := `SELECT id, title, due, done FROM tasks`
	if undoneOnly {
		query += ` WHERE done = 0`
	}
	query += ` ORDER BY due, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var task Task
		var done int
		if err := rows.Scan(&task.ID, &task.Title, &task.Due, &done); err != nil {
			return nil, err
		}
		task.Done = done != 0
		out = append(out, task)
	}
	return out, rows.Err()
}

// MarkTaskDone flags a task as completed. Returns false when the id is unknown.
func (s *Store) MarkTaskDone(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET done = 1 WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("mark task done: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func scanEvents(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var event Event
		var startRaw, endRaw string
		var allDay int
		if err := rows.Scan(&event.ID, &event.Title, &startRaw, &endRaw,
			&event.Location, &event.Description, &allDay, &event.Source); err != nil {
			return nil, err
		}
		event.Start = parseTime(startRaw)
		event.End = parseTime(endRaw)
		event.AllDay = allDay != 0
		out = append(out, event)
	}
	return out, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
