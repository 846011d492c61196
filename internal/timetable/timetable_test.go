package timetable

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/logging"
	"eduassist/internal/records"
)

// Monday 2025-10-20.
var testMonday = time.Date(2025, 10, 20, 7, 15, 0, 0, time.Local)

func newTestImporter(t *testing.T) (*Importer, *records.Store) {
	t.Helper()
	store, err := records.OpenPath(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	importer := NewImporter(store, config.Timetable{DayStart: "08:30", DayEnd: "15:30"}, logging.NewNop())
	importer.now = func() time.Time { return testMonday }
	return importer, store
}

func eventsBetween(t *testing.T, store *records.Store, from, to time.Time) []records.Event {
	t.Helper()
	events, err := store.ListEventsOverlapping(context.Background(), from, to)
	if err != nil {
		t.Fatal(err)
	}
	return events
}

func TestImportRowLayout(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte(`Title,Start,End,Location,Description,AllDay,ID
Faculty Meeting,2025-10-21 10:00,2025-10-21 11:00,Conference Hall,Monthly sync,no,mtg-1
Sports Day,2025-10-24,2025-10-24,,College ground,yes,
`)

	summary, err := importer.Import(context.Background(), csvData, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Added != 2 || summary.Replaced != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	events := eventsBetween(t, store,
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 22, 0, 0, 0, 0, time.Local))
	if len(events) != 1 {
		t.Fatalf("expected one event on the 21st, got %d", len(events))
	}
	meeting := events[0]
	if meeting.ID != "mtg-1" || meeting.Title != "Faculty Meeting" || meeting.Location != "Conference Hall" {
		t.Fatalf("event = %+v", meeting)
	}
	if meeting.Source != records.EventSourceRowImport {
		t.Fatalf("source = %q", meeting.Source)
	}
	if meeting.Start.Hour() != 10 || meeting.End.Hour() != 11 {
		t.Fatalf("times = %v..%v", meeting.Start, meeting.End)
	}
}

func TestImportRowLayoutGeneratesIDs(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte("title,start,end\nQuiz,2025-10-22 09:00,2025-10-22 09:30\n")

	if _, err := importer.Import(context.Background(), csvData, Options{}); err != nil {
		t.Fatal(err)
	}
	events := eventsBetween(t, store,
		time.Date(2025, 10, 22, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 23, 0, 0, 0, 0, time.Local))
	if len(events) != 1 || events[0].ID == "" {
		t.Fatalf("events = %+v", events)
	}
}

func TestImportRowLayoutBadDatetime(t *testing.T) {
	importer, _ := newTestImporter(t)
	csvData := []byte("title,start,end\nQuiz,whenever,2025-10-22 09:30\n")
	if _, err := importer.Import(context.Background(), csvData, Options{}); err == nil {
		t.Fatal("expected error for unparseable start")
	}
}

func TestImportGridLayout(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte(`Time,Monday,Tuesday
09:00-10:00,DBMS(D16),OS
10:00 – 11:00,Break,ML
1:30-2:30,DL Lab(LAB2),
`)

	summary, err := importer.Import(context.Background(), csvData, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Added != 4 {
		t.Fatalf("added = %d, want 4", summary.Added)
	}
	// Break cell counts as skipped.
	if summary.Skipped == 0 {
		t.Fatalf("summary = %+v", summary)
	}

	monday := eventsBetween(t, store,
		time.Date(2025, 10, 20, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local))
	if len(monday) != 2 {
		t.Fatalf("monday events = %+v", monday)
	}
	byID := map[string]records.Event{}
	for _, event := range monday {
		byID[event.ID] = event
	}
	dbms, ok := byID["grid_2025-10-20_0900_dbms"]
	if !ok {
		t.Fatalf("missing DBMS event, ids = %v", keysOf(byID))
	}
	if dbms.Title != "DBMS (D16)" || dbms.Location != "D16" {
		t.Fatalf("dbms = %+v", dbms)
	}
	if dbms.Source != records.EventSourceGridImport {
		t.Fatalf("source = %q", dbms.Source)
	}
	// 1:30 is an afternoon slot.
	lab, ok := byID["grid_2025-10-20_1330_dl-lab"]
	if !ok {
		t.Fatalf("missing lab event, ids = %v", keysOf(byID))
	}
	if lab.Start.Hour() != 13 || lab.Start.Minute() != 30 {
		t.Fatalf("lab start = %v", lab.Start)
	}

	tuesday := eventsBetween(t, store,
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 22, 0, 0, 0, 0, time.Local))
	if len(tuesday) != 2 {
		t.Fatalf("tuesday events = %+v", tuesday)
	}
}

func TestImportGridClipsToTeachingDay(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte(`Time,Monday
07:00-08:00,Yoga
16:00-17:00,Club
09:00-10:00,DBMS
`)

	summary, err := importer.Import(context.Background(), csvData, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Added != 1 {
		t.Fatalf("added = %d, want only the in-window slot", summary.Added)
	}
	events := eventsBetween(t, store,
		time.Date(2025, 10, 20, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local))
	if len(events) != 1 || events[0].Start.Hour() != 9 {
		t.Fatalf("events = %+v", events)
	}
}

func TestImportGridScopeToday(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte("Time,Monday,Tuesday\n09:00-10:00,DBMS,OS\n")

	summary, err := importer.Import(context.Background(), csvData, Options{Scope: "today"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Added != 1 {
		t.Fatalf("added = %d", summary.Added)
	}
	events := eventsBetween(t, store,
		time.Date(2025, 10, 20, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 27, 0, 0, 0, 0, time.Local))
	if len(events) != 1 || events[0].Title != "DBMS" {
		t.Fatalf("events = %+v", events)
	}
}

func TestImportGridDayTargetsNextOccurrence(t *testing.T) {
	importer, store := newTestImporter(t)
	csvData := []byte("Time,Monday,Tuesday\n09:00-10:00,DBMS,OS\n")

	// Base date is a Monday, so Monday resolves to the base date itself.
	if _, err := importer.Import(context.Background(), csvData, Options{Day: "monday"}); err != nil {
		t.Fatal(err)
	}
	events := eventsBetween(t, store,
		time.Date(2025, 10, 20, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local))
	if len(events) != 1 || events[0].Title != "DBMS" {
		t.Fatalf("events = %+v", events)
	}
}

func TestImportGridRejectsUnknownDay(t *testing.T) {
	importer, _ := newTestImporter(t)
	csvData := []byte("Time,Monday\n09:00-10:00,DBMS\n")
	if _, err := importer.Import(context.Background(), csvData, Options{Day: "someday"}); err == nil {
		t.Fatal("expected error for unknown day")
	}
}

func TestImportReplaceClearsImportedEventsOnly(t *testing.T) {
	importer, store := newTestImporter(t)
	ctx := context.Background()

	manual := records.Event{
		ID:     "manual-1",
		Title:  "Office hours",
		Start:  time.Date(2025, 10, 20, 14, 0, 0, 0, time.Local),
		End:    time.Date(2025, 10, 20, 15, 0, 0, 0, time.Local),
		Source: records.EventSourceManual,
	}
	if err := store.UpsertEvent(ctx, manual); err != nil {
		t.Fatal(err)
	}

	csvData := []byte("Time,Monday\n09:00-10:00,DBMS\n")
	if _, err := importer.Import(ctx, csvData, Options{}); err != nil {
		t.Fatal(err)
	}

	updated := []byte("Time,Monday\n09:00-10:00,ML\n")
	summary, err := importer.Import(ctx, updated, Options{Mode: ModeReplace})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Replaced != 1 || summary.Added != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	events := eventsBetween(t, store,
		time.Date(2025, 10, 20, 0, 0, 0, 0, time.Local),
		time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local))
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	titles := map[string]bool{}
	for _, event := range events {
		titles[event.Title] = true
	}
	if !titles["Office hours"] || !titles["ML"] || titles["DBMS"] {
		t.Fatalf("titles = %v", titles)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	importer, _ := newTestImporter(t)
	ctx := context.Background()

	if _, err := importer.Import(ctx, nil, Options{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := importer.Import(ctx, []byte("title,start,end\n"), Options{Mode: "append"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := importer.Import(ctx, []byte("one,two\nthree,four\n"), Options{}); err == nil {
		t.Fatal("expected error for unrecognized layout")
	}
}

func TestSplitSubjectLocation(t *testing.T) {
	cases := []struct {
		cell     string
		subject  string
		location string
	}{
		{"DBMS(D16)", "DBMS", "D16"},
		{"DL Lab (LAB2)", "DL Lab", "LAB2"},
		{"OS", "OS", ""},
		{"(D16)", "(D16)", ""},
	}
	for _, tc := range cases {
		subject, location := splitSubjectLocation(tc.cell)
		if subject != tc.subject || location != tc.location {
			t.Errorf("splitSubjectLocation(%q) = %q, %q; want %q, %q",
				tc.cell, subject, location, tc.subject, tc.location)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	monday := time.Date(2025, 10, 20, 9, 0, 0, 0, time.Local)
	if got := nextOccurrence(monday, time.Monday); got.Day() != 20 {
		t.Fatalf("same weekday should resolve to the same date, got %v", got)
	}
	if got := nextOccurrence(monday, time.Wednesday); got.Day() != 22 {
		t.Fatalf("wednesday = %v", got)
	}
	if got := nextOccurrence(monday, time.Sunday); got.Day() != 26 {
		t.Fatalf("sunday = %v", got)
	}
}

func TestParseDateTimeFormats(t *testing.T) {
	for _, value := range []string{
		"2025-10-20T10:00:00",
		"2025-10-20 10:00",
		"2025-10-20",
	} {
		if _, err := parseDateTime(value); err != nil {
			t.Errorf("parseDateTime(%q): %v", value, err)
		}
	}
	if _, err := parseDateTime("sometime soon"); err != nil {
		return
	}
	t.Fatal("expected error for free text")
}

func keysOf(m map[string]records.Event) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
