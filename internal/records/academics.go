package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AddAcademicRecord inserts a teaching engagement and returns its id.
func (s *Store) AddAcademicRecord(ctx context.Context, record AcademicRecord) (int64, error) {
	if strings.TrimSpace(record.Course) == "" {
		return 0, errors.New("academic record course is required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO academic_records (year, term, course, role, notes) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(record.Year),
		strings.TrimSpace(record.Term),
		strings.TrimSpace(record.Course),
		strings.TrimSpace(record.Role),
		strings.TrimSpace(record.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("insert academic record: %w", err)
	}
	return res.LastInsertId()
}

// ListAcademicRecords returns all academic records, newest year first.
func (s *Store) ListAcademicRecords(ctx context.Context) ([]AcademicRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, year, term, course, role, notes FROM academic_records ORDER BY year DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list academic records: %w", err)
	}
	defer rows.Close()

	var out []AcademicRecord
	for rows.Next() {
		var record AcademicRecord
		if err := rows.Scan(&record.ID, &record.Year, &record.Term, &record.Course, &record.Role, &record.Notes); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// DeleteAcademicRecord removes an academic record by id.
func (s *Store) DeleteAcademicRecord(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM academic_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete academic record: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// AddResearchRecord inserts a research record and returns its id.
func (s *Store) AddResearchRecord(ctx context.Context, record ResearchRecord) (int64, error) {
	if strings.TrimSpace(record.Title) == "" {
		return 0, errors.New("research record title is required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO research_records (title, venue, year, status, notes) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(record.Title),
		strings.TrimSpace(record.Venue),
		record.Year,
		strings.TrimSpace(record.Status),
		strings.TrimSpace(record.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("insert research record: %w", err)
	}
	return res.LastInsertId()
}

// ListResearchRecords returns all research records, newest year first.
func (s *Store) ListResearchRecords(ctx context.Context) ([]ResearchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, venue, year, status, notes FROM research_records ORDER BY year DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list research records: %w", err)
	}
	defer rows.Close()

	var out []ResearchRecord
	for rows.Next() {
		var record ResearchRecord
		if err := rows.Scan(&record.ID, &record.Title, &record.Venue, &record.Year, &record.Status, &record.Notes); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// DeleteResearchRecord removes a research record by id.
func (s *Store) DeleteResearchRecord(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM research_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete research record: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
