package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetProfile returns the stored teacher profile, or a zero profile when unset.
func (s *Store) GetProfile(ctx context.Context) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, email, department, title, bio, updated_at FROM profile WHERE id = 1`)

	var profile Profile
	var updatedRaw string
	err := row.Scan(&profile.Name, &profile.Email, &profile.Department, &profile.Title, &profile.Bio, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	profile.UpdatedAt = parseTime(updatedRaw)
	return profile, nil
}

// SaveProfile upserts the single teacher profile row.
func (s *Store) SaveProfile(ctx context.Context, profile Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (id, name, email, department, title, bio, updated_at)
         VALUES (1, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
             name = excluded.name, email = excluded.email,
             department = excluded.department, title = excluded.title,
             bio = excluded.bio, updated_at = excluded.updated_at`,
		strings.TrimSpace(profile.Name),
		strings.TrimSpace(profile.Email),
		strings.TrimSpace(profile.Department),
		strings.TrimSpace(profile.Title),
		strings.TrimSpace(profile.Bio),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
