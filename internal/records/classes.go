package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddClass inserts a class and returns its id.
func (s *Store) AddClass(ctx context.Context, class Class) (int64, error) {
	if strings.TrimSpace(class.Name) == "" {
		return 0, errors.New("class name is required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO classes (name, department, semester) VALUES (?, ?, ?)`,
		strings.TrimSpace(class.Name),
		strings.TrimSpace(class.Department),
		strings.TrimSpace(class.Semester),
	)
	if err != nil {
		return 0, fmt.Errorf("insert class: %w", err)
	}
	return res.LastInsertId()
}

// GetClass fetches a class by id. Returns nil when no row exists.
func (s *Store) GetClass(ctx context.Context, id int64) (*Class, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, department, semester FROM classes WHERE id = ?`, id)
	var class Class
	err := row.Scan(&class.ID, &class.Name, &class.Department, &class.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &class, nil
}

// FindClassByName fetches a class by exact name (case-insensitive).
// Returns nil when no row exists.
func (s *Store) FindClassByName(ctx context.Context, name string) (*Class, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, department, semester FROM classes WHERE name = ? COLLATE NOCASE LIMIT 1`,
		strings.TrimSpace(name))
	var class Class
	err := row.Scan(&class.ID, &class.Name, &class.Department, &class.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// ListClasses returns all classes ordered by name.
func (s *Store) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department, semester FROM classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var out []Class
	for rows.Next() {
		var class Class
		if err := rows.Scan(&class.ID, &class.Name, &class.Department, &class.Semester); err != nil {
			return nil, err
		}
		out = append(out, class)
	}
	return out, rows.Err()
}

// AddStudents bulk-inserts roster entries, skipping rolls already enrolled.
// Returns the number of students actually added.
func (s *Store) AddStudents(ctx context.Context, classID int64, students []Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin roster tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, student := range students {
		if student.Roll <= 0 {
			return 0, fmt.Errorf("invalid roll number %d", student.Roll)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO students (class_id, roll, name) VALUES (?, ?, ?)`,
			classID, student.Roll, strings.TrimSpace(student.Name))
		if err != nil {
			return 0, fmt.Errorf("insert student: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit roster tx: %w", err)
	}
	return added, nil
}

// AddStudentRange enrolls every roll in [from, to] with empty names.
func (s *Store) AddStudentRange(ctx context.Context, classID int64, from, to int) (int, error) {
	if from <= 0 || to < from {
		return 0, fmt.Errorf("invalid roll range %d-%d", from, to)
	}
	students := make([]Student, 0, to-from+1)
	for roll := from; roll <= to; roll++ {
		students = append(students, Student{Roll: roll})
	}
	return s.AddStudents(ctx, classID, students)
}

// ListStudents returns the roster ordered by roll.
func (s *Store) ListStudents(ctx context.Context, classID int64) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_id, roll, name FROM students WHERE class_id = ? ORDER BY roll`, classID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var student Student
		if err := rows.Scan(&student.ID, &student.ClassID, &student.Roll, &student.Name); err != nil {
			return nil, err
		}
		out = append(out, student)
	}
	return out, rows.Err()
}
