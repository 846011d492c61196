package records_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"eduassist/internal/records"
)

func openTestStore(t *testing.T) *records.Store {
	t.Helper()
	store, err := records.OpenPath(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProfileUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("get empty profile: %v", err)
	}
	if empty.Name != "" {
		t.Fatalf("expected zero profile, got %+v", empty)
	}

	if err := store.SaveProfile(ctx, records.Profile{Name: "Dr. Rao", Department: "CSE"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveProfile(ctx, records.Profile{Name: "Dr. Rao", Department: "ECE", Title: "Professor"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	profile, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile.Department != "ECE" || profile.Title != "Professor" {
		t.Fatalf("upsert did not replace fields: %+v", profile)
	}
	if profile.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at set")
	}
}

func TestAcademicRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AddAcademicRecord(ctx, records.AcademicRecord{Year: "2024"}); err == nil {
		t.Fatal("expected error for missing course")
	}

	id, err := store.AddAcademicRecord(ctx, records.AcademicRecord{Year: "2024", Term: "Fall", Course: "Algorithms", Role: "Instructor"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.AddAcademicRecord(ctx, records.AcademicRecord{Year: "2025", Course: "Compilers"}); err != nil {
		t.Fatalf("add second: %v", err)
	}

	list, err := store.ListAcademicRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Year != "2025" {
		t.Fatalf("expected newest year first, got %+v", list)
	}

	removed, err := store.DeleteAcademicRecord(ctx, id)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
}

func TestResearchRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AddResearchRecord(ctx, records.ResearchRecord{Venue: "ICML"}); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := store.AddResearchRecord(ctx, records.ResearchRecord{Title: "Paper A", Year: 2023, Status: "published"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := store.ListResearchRecords(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if list[0].Status != "published" {
		t.Fatalf("unexpected record: %+v", list[0])
	}
}

func TestRosterUniquePerRoll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	classID, err := store.AddClass(ctx, records.Class{Name: "CSE-A", Semester: "5"})
	if err != nil {
		t.Fatalf("add class: %v", err)
	}

	added, err := store.AddStudentRange(ctx, classID, 1, 5)
	if err != nil {
		t.Fatalf("add range: %v", err)
	}
	if added != 5 {
		t.Fatalf("expected 5 added, got %d", added)
	}

	// Re-adding overlapping rolls only inserts the new ones.
	added, err = store.AddStudents(ctx, classID, []records.Student{{Roll: 5}, {Roll: 6, Name: "Asha"}})
	if err != nil {
		t.Fatalf("add students: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 added, got %d", added)
	}

	roster, err := store.ListStudents(ctx, classID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(roster) != 6 || roster[5].Roll != 6 || roster[5].Name != "Asha" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestFindClassByName(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AddClass(ctx, records.Class{Name: "CSE-B"}); err != nil {
		t.Fatalf("add class: %v", err)
	}
	class, err := store.FindClassByName(ctx, "cse-b")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if class == nil || class.Name != "CSE-B" {
		t.Fatalf("expected case-insensitive match, got %+v", class)
	}
	missing, err := store.FindClassByName(ctx, "none")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing class, got %+v err=%v", missing, err)
	}
}

func TestAttendanceSessionAndReplace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	classID, _ := store.AddClass(ctx, records.Class{Name: "CSE-A"})

	session, err := store.EnsureSession(ctx, classID, "DBMS", "2026-08-24")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	again, err := store.EnsureSession(ctx, classID, "DBMS", "2026-08-24")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if session.ID != again.ID {
		t.Fatal("expected get-or-create to reuse the session")
	}

	first := []records.AttendanceRecord{
		{Roll: 1, Status: records.AttendancePresent},
		{Roll: 2, Status: records.AttendanceAbsent},
	}
	if err := store.ReplaceSessionRecords(ctx, session.ID, first); err != nil {
		t.Fatalf("mark: %v", err)
	}

	second := []records.AttendanceRecord{
		{Roll: 1, Status: records.AttendanceAbsent},
		{Roll: 2, Status: records.AttendancePresent},
		{Roll: 3, Status: records.AttendancePresent},
	}
	if err := store.ReplaceSessionRecords(ctx, session.ID, second); err != nil {
		t.Fatalf("re-mark: %v", err)
	}

	rows, err := store.ListSessionRecords(ctx, session.ID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected replacement to hold 3 rows, got %d", len(rows))
	}
	if rows[0].Status != records.AttendanceAbsent {
		t.Fatalf("expected roll 1 absent after re-mark, got %s", rows[0].Status)
	}
}

func TestAttendanceTotals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	classID, _ := store.AddClass(ctx, records.Class{Name: "CSE-A"})

	dayOne, _ := store.EnsureSession(ctx, classID, "DBMS", "2026-08-23")
	_ = store.ReplaceSessionRecords(ctx, dayOne.ID, []records.AttendanceRecord{
		{Roll: 1, Status: records.AttendancePresent},
		{Roll: 2, Status: records.AttendanceAbsent},
	})
	dayTwo, _ := store.EnsureSession(ctx, classID, "DBMS", "2026-08-24")
	_ = store.ReplaceSessionRecords(ctx, dayTwo.ID, []records.AttendanceRecord{
		{Roll: 1, Status: records.AttendancePresent},
		{Roll: 2, Status: records.AttendancePresent},
	})

	totals, err := store.AttendanceTotals(ctx, classID, "DBMS")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(totals))
	}
	if totals[0].Roll != 1 || totals[0].Present != 2 || totals[0].Total != 2 {
		t.Fatalf("unexpected totals for roll 1: %+v", totals[0])
	}
	if totals[1].Present != 1 || totals[1].Total != 2 {
		t.Fatalf("unexpected totals for roll 2: %+v", totals[1])
	}
}

func TestEventUpsertAndOverlap(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	event := records.Event{
		ID:    "evt-1",
		Title: "DBMS Lecture",
		Start: start,
		End:   start.Add(time.Hour),
	}
	if err := store.UpsertEvent(ctx, event); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	event.Title = "DBMS Lecture (moved)"
	if err := store.UpsertEvent(ctx, event); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	dayStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	events, err := store.ListEventsOverlapping(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Title != "DBMS Lecture (moved)" {
		t.Fatalf("expected upsert by id, got %+v", events)
	}

	// Non-overlapping window excludes the event.
	events, err = store.ListEventsOverlapping(ctx, dayStart.Add(24*time.Hour), dayStart.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("list next day: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events next day, got %d", len(events))
	}
}

func TestDeleteEventsOverlappingBySource(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	_ = store.UpsertEvent(ctx, records.Event{ID: "manual-1", Title: "Office Hours", Start: start, End: start.Add(time.Hour)})
	_ = store.UpsertEvent(ctx, records.Event{ID: "grid-1", Title: "DBMS", Start: start, End: start.Add(time.Hour), Source: records.EventSourceGridImport})

	dayStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	deleted, err := store.DeleteEventsOverlapping(ctx, dayStart, dayStart.Add(24*time.Hour),
		records.EventSourceGridImport, records.EventSourceRowImport)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected only imported event deleted, got %d", deleted)
	}

	events, _ := store.ListEventsOverlapping(ctx, dayStart, dayStart.Add(24*time.Hour))
	if len(events) != 1 || events[0].ID != "manual-1" {
		t.Fatalf("manual event should survive, got %+v", events)
	}
}

func TestTasks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	task := records.Task{ID: "t1", Title: "Grade quizzes", Due: "2026-08-25"}
	if err := store.AddTask(ctx, task); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddTask(ctx, task); err == nil {
		t.Fatal("expected duplicate id rejection")
	}

	done, err := store.MarkTaskDone(ctx, "t1")
	if err != nil || !done {
		t.Fatalf("mark done: done=%v err=%v", done, err)
	}
	if done, _ := store.MarkTaskDone(ctx, "missing"); done {
		t.Fatal("expected false for unknown task")
	}

	undone, err := store.ListTasks(ctx, true)
	if err != nil {
		t.Fatalf("list undone: %v", err)
	}
	if len(undone) != 0 {
		t.Fatalf("expected no undone tasks, got %d", len(undone))
	}
	all, _ := store.ListTasks(ctx, false)
	if len(all) != 1 || !all[0].Done {
		t.Fatalf("unexpected tasks: %+v", all)
	}
}

func TestSyllabusDocRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	doc := records.SyllabusDoc{ID: "doc-1", Subject: "DBMS", Filename: "dbms.pdf", Path: "/tmp/dbms.pdf"}
	pages := []string{"normalization and functional dependencies", "transactions and concurrency"}
	if err := store.AddSyllabusDoc(ctx, doc, pages); err != nil {
		t.Fatalf("add: %v", err)
	}

	loaded, err := store.GetSyllabusDoc(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil || loaded.Pages != 2 {
		t.Fatalf("unexpected doc: %+v", loaded)
	}

	stored, err := store.ListSyllabusPages(ctx, "doc-1")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(stored) != 2 || stored[0].PageNo != 1 || stored[1].Text != pages[1] {
		t.Fatalf("unexpected pages: %+v", stored)
	}

	docs, err := store.ListSyllabusDocs(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("list docs: %v len=%d", err, len(docs))
	}
}

func TestArtifacts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := records.Artifact{ID: "a1", Kind: "deck", Title: "Graphs", Path: "/lib/presentations/graphs.deck.json", SizeBytes: 2048, JobID: 3}
	if err := store.AddArtifact(ctx, first); err != nil {
		t.Fatalf("add: %v", err)
	}
	second := records.Artifact{ID: "a2", Kind: "question_paper", Title: "DBMS Paper", Path: "/lib/question-papers/dbms.paper.md", CreatedAt: time.Now().Add(time.Minute)}
	if err := store.AddArtifact(ctx, second); err != nil {
		t.Fatalf("add second: %v", err)
	}

	all, err := store.ListArtifacts(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a2" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	decks, err := store.ListArtifacts(ctx, "deck")
	if err != nil || len(decks) != 1 || decks[0].ID != "a1" {
		t.Fatalf("kind filter failed: %+v err=%v", decks, err)
	}

	loaded, err := store.GetArtifact(ctx, "a1")
	if err != nil || loaded == nil || loaded.JobID != 3 {
		t.Fatalf("get: %+v err=%v", loaded, err)
	}
	missing, err := store.GetArtifact(ctx, "zzz")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing artifact, got %+v", missing)
	}
}
