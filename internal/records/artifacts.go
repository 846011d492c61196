package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddArtifact records a generated file placed in the library.
func (s *Store) AddArtifact(ctx context.Context, artifact Artifact) error {
	if strings.TrimSpace(artifact.ID) == "" {
		return errors.New("artifact id is required")
	}
	if strings.TrimSpace(artifact.Path) == "" {
		return errors.New("artifact path is required")
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, kind, title, subject, path, size_bytes, created_at, job_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID,
		artifact.Kind,
		strings.TrimSpace(artifact.Title),
		strings.TrimSpace(artifact.Subject),
		artifact.Path,
		artifact.SizeBytes,
		formatTime(artifact.CreatedAt),
		artifact.JobID,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetArtifact fetches an artifact by id. Returns nil when absent.
func (s *Store) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, title, subject, path, size_bytes, created_at, job_id
         FROM artifacts WHERE id = ?`, strings.TrimSpace(id))
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return artifact, nil
}

// ListArtifacts returns artifacts newest-first, optionally filtered by kind.
func (s *Store) ListArtifacts(ctx context.Context, kind string) ([]Artifact, error) {
	query := `SELECT id, kind, title, subject, path, size_bytes, created_at, job_id FROM artifacts`
	var args []any
	if kind = strings.TrimSpace(kind); kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *artifact)
	}
	return out, rows.Err()
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var artifact Artifact
	var createdRaw string
	if err := scanner.Scan(
		&artifact.ID,
		&artifact.Kind,
		&artifact.Title,
		&artifact.Subject,
		&artifact.Path,
		&artifact.SizeBytes,
		&createdRaw,
		&artifact.JobID,
	); err != nil {
		return nil, err
	}
	artifact.CreatedAt = parseTime(createdRaw)
	return &artifact, nil
}
