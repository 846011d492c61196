package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/services"
	"eduassist/internal/textutil"
)

// Service runs attendance operations over the records store.
type Service struct {
	store     *records.Store
	exportDir string
	logger    *slog.Logger
}

// NewService builds an attendance service writing CSV exports under exportDir.
func NewService(store *records.Store, exportDir string, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		exportDir: exportDir,
		logger:    logging.NewComponentLogger(logger, "attendance"),
	}
}

// ResolveClass finds a class by name, case-insensitively.
func (s *Service) ResolveClass(ctx context.Context, name string) (*records.Class, error) {
	class, err := s.store.FindClassByName(ctx, name)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "attendance", "resolve_class", "cannot look up class", err)
	}
	if class == nil {
		return nil, services.Wrap(services.ErrNotFound, "attendance", "resolve_class",
			fmt.Sprintf("class %q not found", name), nil)
	}
	return class, nil
}

// EnsureSession returns the session for (class, subject, date), creating it
// when absent. The date accepts "today", DD-MM-YYYY, or ISO form.
func (s *Service) EnsureSession(ctx context.Context, classID int64, subject, date string) (*records.AttendanceSession, error) {
	isoDate, err := NormalizeDate(date)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "attendance", "ensure_session", err.Error(), nil)
	}
	session, err := s.store.EnsureSession(ctx, classID, subject, isoDate)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "attendance", "ensure_session", "cannot create session", err)
	}
	return session, nil
}

// MarkResult reports the outcome of marking a session.
type MarkResult struct {
	SessionID int64  `json:"session_id"`
	Date      string `json:"date"`
	Present   int    `json:"present"`
	Total     int    `json:"total"`
}

// Mark records attendance for (class, subject, date) from a present-roll
// pattern. Every enrolled student gets a row; re-marking replaces the
// earlier marking.
func (s *Service) Mark(ctx context.Context, classID int64, subject, date, presentSpec string) (*MarkResult, error) {
	session, err := s.EnsureSession(ctx, classID, subject, date)
	if err != nil {
		return nil, err
	}

	rolls, err := ExpandRollSpec(presentSpec)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "attendance", "mark", err.Error(), nil)
	}
	present := make(map[int]struct{}, len(rolls))
	for _, roll := range rolls {
		present[roll] = struct{}{}
	}

	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "attendance", "mark", "cannot list students", err)
	}
	if len(students) == 0 {
		return nil, services.Wrap(services.ErrValidation, "attendance", "mark",
			"class has no enrolled students; add a roster first", nil)
	}

	attendance := make([]records.AttendanceRecord, 0, len(students))
	presentCount := 0
	for _, student := range students {
		status := records.AttendanceAbsent
		if _, ok := present[student.Roll]; ok {
			status = records.AttendancePresent
			presentCount++
		}
		attendance = append(attendance, records.AttendanceRecord{
			SessionID: session.ID,
			Roll:      student.Roll,
			Status:    status,
		})
	}
	if err := s.store.ReplaceSessionRecords(ctx, session.ID, attendance); err != nil {
		return nil, services.Wrap(services.ErrTransient, "attendance", "mark", "cannot store attendance", err)
	}

	s.logger.Info("attendance marked",
		logging.Int64("session_id", session.ID),
		logging.String("date", session.Date),
		logging.Int("present", presentCount),
		logging.Int("total", len(students)),
	)
	return &MarkResult{
		SessionID: session.ID,
		Date:      session.Date,
		Present:   presentCount,
		Total:     len(students),
	}, nil
}

// SummaryRow is one student's aggregate attendance.
type SummaryRow struct {
	Roll    int     `json:"roll"`
	Name    string  `json:"name"`
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Summary aggregates per-student attendance for (class, subject), ordered by
// roll. An empty subject covers every subject. Percentages are rounded to
// two decimals.
func (s *Service) Summary(ctx context.Context, classID int64, subject string) ([]SummaryRow, error) {
	totals, err := s.store.AttendanceTotals(ctx, classID, subject)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "attendance", "summary", "cannot aggregate attendance", err)
	}
	students, err := s.store.ListStudents(ctx, classID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "attendance", "summary", "cannot list students", err)
	}
	names := make(map[int]string, len(students))
	for _, student := range students {
		names[student.Roll] = student.Name
	}

	rows := make([]SummaryRow, 0, len(totals))
	for _, total := range totals {
		percent := 0.0
		if total.Total > 0 {
			percent = math.Round(float64(total.Present)/float64(total.Total)*100*100) / 100
		}
		rows = append(rows, SummaryRow{
			Roll:    total.Roll,
			Name:    names[total.Roll],
			Present: total.Present,
			Total:   total.Total,
			Percent: percent,
		})
	}
	return rows, nil
}

// ExportCSV writes the summary for (class, subject) to a CSV file under the
// export directory and returns its path.
func (s *Service) ExportCSV(ctx context.Context, classID int64, subject string) (string, error) {
	rows, err := s.Summary(ctx, classID, subject)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", services.Wrap(services.ErrNotFound, "attendance", "export",
			"no attendance records to export", nil)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "attendance", "export", "cannot create export directory", err)
	}
	name := fmt.Sprintf("attendance_class%d", classID)
	if subject != "" {
		name += "_" + textutil.Slug(subject)
	}
	path := filepath.Join(s.exportDir, name+".csv")

	file, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "attendance", "export", "cannot create export file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"roll", "name", "present", "total", "percent"}); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Roll),
			row.Name,
			strconv.Itoa(row.Present),
			strconv.Itoa(row.Total),
			strconv.FormatFloat(row.Percent, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}
