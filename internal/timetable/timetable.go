// Package timetable imports CSV timetables into calendar events. Two layouts
// are auto-detected: row-based (title,start,end,...) and grid-based (weekday
// columns against time-range rows).
package timetable

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"eduassist/internal/config"
	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/services"
	"eduassist/internal/textutil"
)

// Import modes.
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// Default teaching-day window for grid imports.
const (
	defaultDayStart = "08:30"
	defaultDayEnd   = "15:30"
)

// timeRangePattern matches the first-column time ranges of grid timetables.
var timeRangePattern = regexp.MustCompile(`^\s*(\d{1,2}:\d{2})\s*[-–]\s*(\d{1,2}:\d{2})\s*`)

var weekdayIndex = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// skippedCells are grid cells that never become events.
var skippedCells = map[string]struct{}{
	"break":  {},
	"lunch":  {},
	"recess": {},
}

// Options controls one import.
type Options struct {
	// Scope "today" keeps only today's weekday column of a grid.
	Scope string
	// Day targets a single weekday column by name; the next occurrence of
	// that weekday is used (today counts when it matches).
	Day string
	// Mode is merge (upsert by id) or replace (clear imported events on the
	// target dates first).
	Mode string
}

// Summary reports what an import did.
type Summary struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Importer parses timetable CSVs and syncs them into the records store.
type Importer struct {
	store    *records.Store
	dayStart int
	dayEnd   int
	logger   *slog.Logger
	now      func() time.Time
}

// NewImporter builds an importer with the configured teaching-day window.
func NewImporter(store *records.Store, cfg config.Timetable, logger *slog.Logger) *Importer {
	start, err := parseClock(cfg.DayStart)
	if err != nil {
		start, _ = parseClock(defaultDayStart)
	}
	end, err := parseClock(cfg.DayEnd)
	if err != nil {
		end, _ = parseClock(defaultDayEnd)
	}
	return &Importer{
		store:    store,
		dayStart: start,
		dayEnd:   end,
		logger:   logging.NewComponentLogger(logger, "timetable"),
		now:      time.Now,
	}
}

// Import parses the CSV payload, auto-detects its layout, and syncs events.
func (i *Importer) Import(ctx context.Context, data []byte, opts Options) (*Summary, error) {
	rows, err := readCSV(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "timetable", "parse", "cannot parse CSV", err)
	}
	if len(rows) == 0 {
		return nil, services.Wrap(services.ErrValidation, "timetable", "parse", "CSV is empty", nil)
	}

	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" {
		mode = ModeMerge
	}
	if mode != ModeMerge && mode != ModeReplace {
		return nil, services.Wrap(services.ErrValidation, "timetable", "parse",
			fmt.Sprintf("unknown mode %q; use merge or replace", opts.Mode), nil)
	}

	var events []records.Event
	summary := &Summary{}
	if isRowLayout(rows[0]) {
		events, err = i.parseRows(rows, summary)
	} else {
		events, err = i.parseGrid(rows, opts, summary)
	}
	if err != nil {
		return nil, err
	}

	if mode == ModeReplace {
		replaced, err := i.clearTargetDates(ctx, events)
		if err != nil {
			return nil, err
		}
		summary.Replaced = int(replaced)
	}

	for _, event := range events {
		if err := i.store.UpsertEvent(ctx, event); err != nil {
			return nil, services.Wrap(services.ErrTransient, "timetable", "sync", "cannot store event", err)
		}
	}
	summary.Added = len(events)

	i.logger.Info("timetable imported",
		logging.Int("added", summary.Added),
		logging.Int("replaced", summary.Replaced),
		logging.Int("skipped", summary.Skipped),
		logging.String("mode", mode),
	)
	return summary, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// isRowLayout reports whether the header carries the row-based columns.
func isRowLayout(header []string) bool {
	seen := map[string]bool{}
	for _, cell := range header {
		seen[strings.ToLower(strings.TrimSpace(cell))] = true
	}
	return seen["title"] && seen["start"] && seen["end"]
}

// parseRows handles the title,start,end[,location,description,allDay,id]
// layout.
func (i *Importer) parseRows(rows [][]string, summary *Summary) ([]records.Event, error) {
	columns := map[string]int{}
	for idx, cell := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(cell))] = idx
	}
	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var events []records.Event
	for n, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			summary.Skipped++
			continue
		}
		start, err := parseDateTime(cell(row, "start"))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "timetable", "parse",
				fmt.Sprintf("row %d: bad start: %v", n+2, err), nil)
		}
		end, err := parseDateTime(cell(row, "end"))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "timetable", "parse",
				fmt.Sprintf("row %d: bad end: %v", n+2, err), nil)
		}
		title := cell(row, "title")
		if title == "" {
			summary.Skipped++
			continue
		}
		id := cell(row, "id")
		if id == "" {
			id = uuid.NewString()
		}
		events = append(events, records.Event{
			ID:          id,
			Title:       title,
			Start:       start,
			End:         end,
			Location:    cell(row, "location"),
			Description: cell(row, "description"),
			AllDay:      parseLooseBool(cell(row, "allday")),
			Source:      records.EventSourceRowImport,
		})
	}
	return events, nil
}

// parseGrid handles weekday columns against time-range rows.
func (i *Importer) parseGrid(rows [][]string, opts Options, summary *Summary) ([]records.Event, error) {
	type dayColumn struct {
		index   int
		weekday time.Weekday
	}
	var dayColumns []dayColumn
	for idx, cell := range rows[0] {
		if weekday, ok := weekdayIndex[strings.ToLower(strings.TrimSpace(cell))]; ok {
			dayColumns = append(dayColumns, dayColumn{index: idx, weekday: weekday})
		}
	}
	if len(dayColumns) == 0 || len(rows) < 2 {
		return nil, services.Wrap(services.ErrValidation, "timetable", "parse",
			"grid CSV needs weekday columns (Monday..Sunday) and time ranges in the first column", nil)
	}

	today := i.now()
	if day := strings.ToLower(strings.TrimSpace(opts.Day)); day != "" {
		weekday, ok := weekdayIndex[day]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "timetable", "parse",
				fmt.Sprintf("invalid day %q; use Monday..Sunday", opts.Day), nil)
		}
		filtered := dayColumns[:0]
		for _, column := range dayColumns {
			if column.weekday == weekday {
				filtered = append(filtered, column)
			}
		}
		dayColumns = filtered
	} else if strings.EqualFold(strings.TrimSpace(opts.Scope), "today") {
		filtered := dayColumns[:0]
		for _, column := range dayColumns {
			if column.weekday == today.Weekday() {
				filtered = append(filtered, column)
			}
		}
		dayColumns = filtered
	}

	var events []records.Event
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		match := timeRangePattern.FindStringSubmatch(strings.ReplaceAll(strings.TrimSpace(row[0]), "—", "-"))
		if match == nil {
			// Non-time rows (titles, legends) are expected in real sheets.
			summary.Skipped++
			continue
		}
		startMinutes, err := parseClock(match[1])
		if err != nil {
			summary.Skipped++
			continue
		}
		endMinutes, err := parseClock(match[2])
		if err != nil {
			summary.Skipped++
			continue
		}
		// Afternoon slots are usually written 12-hour style (1:30 for 13:30).
		if startMinutes < 4*60 {
			startMinutes += 12 * 60
		}
		if endMinutes < 4*60 {
			endMinutes += 12 * 60
		}
		if endMinutes <= i.dayStart || startMinutes >= i.dayEnd {
			summary.Skipped++
			continue
		}

		for _, column := range dayColumns {
			if column.index >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[column.index])
			if cell == "" {
				continue
			}
			if _, skip := skippedCells[strings.ToLower(cell)]; skip {
				summary.Skipped++
				continue
			}

			subject, location := splitSubjectLocation(cell)
			targetDate := nextOccurrence(today, column.weekday)
			title := subject
			if location != "" {
				title = fmt.Sprintf("%s (%s)", subject, location)
			}
			events = append(events, records.Event{
				ID: fmt.Sprintf("grid_%s_%02d%02d_%s",
					targetDate.Format("2006-01-02"),
					startMinutes/60, startMinutes%60,
					textutil.Slug(subject)),
				Title:    title,
				Start:    atMinutes(targetDate, startMinutes),
				End:      atMinutes(targetDate, endMinutes),
				Location: location,
				AllDay:   false,
				Source:   records.EventSourceGridImport,
			})
		}
	}
	return events, nil
}

// clearTargetDates removes previously imported events on the dates the new
// events land on.
func (i *Importer) clearTargetDates(ctx context.Context, events []records.Event) (int64, error) {
	dates := map[string]time.Time{}
	for _, event := range events {
		day := time.Date(event.Start.Year(), event.Start.Month(), event.Start.Day(), 0, 0, 0, 0, event.Start.Location())
		dates[day.Format("2006-01-02")] = day
	}
	var removed int64
	for _, day := range dates {
		count, err := i.store.DeleteEventsOverlapping(ctx, day, day.AddDate(0, 0, 1),
			records.EventSourceGridImport, records.EventSourceRowImport)
		if err != nil {
			return removed, services.Wrap(services.ErrTransient, "timetable", "sync", "cannot clear target dates", err)
		}
		removed += count
	}
	return removed, nil
}

// nextOccurrence returns the next date falling on weekday; today qualifies
// when it already matches.
func nextOccurrence(base time.Time, weekday time.Weekday) time.Time {
	daysAhead := (int(weekday) - int(base.Weekday()) + 7) % 7
	day := base.AddDate(0, 0, daysAhead)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// splitSubjectLocation parses "DL(D16ADB)" style cells.
func splitSubjectLocation(cell string) (string, string) {
	open := strings.Index(cell, "(")
	closing := strings.Index(cell, ")")
	if open < 0 || closing < open {
		return strings.TrimSpace(cell), ""
	}
	subject := strings.TrimSpace(strings.Trim(cell[:open], "/ "))
	location := strings.TrimSpace(cell[open+1 : closing])
	if subject == "" {
		return strings.TrimSpace(cell), ""
	}
	return subject, location
}

// parseClock converts "8:30" or "08:30" to minutes since midnight.
func parseClock(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("bad time %q", value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("bad hour in %q", value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("bad minute in %q", value)
	}
	return hours*60 + minutes, nil
}

func atMinutes(day time.Time, minutes int) time.Time {
	return day.Add(time.Duration(minutes) * time.Minute)
}

// parseDateTime accepts RFC3339, "YYYY-MM-DD HH:MM[:SS]", and bare dates.
func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime %q", value)
}

func parseLooseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
