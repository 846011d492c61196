package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EnsureSession returns the session for (class, subject, date), creating it
// when absent.
func (s *Store) EnsureSession(ctx context.Context, classID int64, subject, date string) (*AttendanceSession, error) {
	subject = strings.TrimSpace(subject)
	date = strings.TrimSpace(date)
	if subject == "" || date == "" {
		return nil, errors.New("session subject and date are required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO attendance_sessions (class_id, subject, date) VALUES (?, ?, ?)`,
		classID, subject, date)
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, class_id, subject, date FROM attendance_sessions
         WHERE class_id = ? AND subject = ? AND date = ?`,
		classID, subject, date)
	var session AttendanceSession
	if err := row.Scan(&session.ID, &session.ClassID, &session.Subject, &session.Date); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// ReplaceSessionRecords replaces a session's attendance with the given rows.
// Re-marking a session discards the earlier marking entirely.
func (s *Store) ReplaceSessionRecords(ctx context.Context, sessionID int64, attendance []AttendanceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session records: %w", err)
	}
	for _, record := range attendance {
		if record.Status != AttendancePresent && record.Status != AttendanceAbsent {
			return fmt.Errorf("invalid attendance status %q", record.Status)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attendance_records (session_id, roll, status) VALUES (?, ?, ?)`,
			sessionID, record.Roll, record.Status); err != nil {
			return fmt.Errorf("insert attendance record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", err)
	}
	return nil
}

// ListSessionRecords returns a session's attendance ordered by roll.
func (s *Store) ListSessionRecords(ctx context.Context, sessionID int64) ([]AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, roll, status FROM attendance_records WHERE session_id = ? ORDER BY roll`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	defer rows.Close()

	var out []AttendanceRecord
	for rows.Next() {
		var record AttendanceRecord
		if err := rows.Scan(&record.SessionID, &record.Roll, &record.Status); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// AttendanceTotals aggregates present/total counts per roll across all
// sessions for (class, subject). An empty subject covers every subject.
func (s *Store) AttendanceTotals(ctx context.Context, classID int64, subject string) ([]AttendanceTotal, error) {
	query := `SELECT r.roll,
            SUM(CASE WHEN r.status = ? THEN 1 ELSE 0 END),
            COUNT(1)
        FROM attendance_records r
        JOIN attendance_sessions s ON s.id = r.session_id
        WHERE s.class_id = ?`
	args := []any{AttendancePresent, classID}
	if subject = strings.TrimSpace(subject); subject != "" {
		query += ` AND s.subject = ?`
		args = append(args, subject)
	}
	query += ` GROUP BY r.roll ORDER BY r.roll`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("attendance totals: %w", err)
	}
	defer rows.Close()

	var out []AttendanceTotal
	for rows.Next() {
		var total AttendanceTotal
		if err := rows.Scan(&total.Roll, &total.Present, &total.Total); err != nil {
			return nil, err
		}
		out = append(out, total)
	}
	return out, rows.Err()
}

// GetSession fetches a session by id. Returns nil when no row exists.
func (s *Store) GetSession(ctx context.Context, id int64) (*AttendanceSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, class_id, subject, date FROM attendance_sessions WHERE id = ?`, id)
	var session AttendanceSession
	err := row.Scan(&session.ID, &session.ClassID, &session.Subject, &session.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}
