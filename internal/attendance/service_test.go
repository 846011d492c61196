package attendance

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"eduassist/internal/logging"
	"eduassist/internal/records"
)

func newTestService(t *testing.T) (*Service, *records.Store, int64) {
	t.Helper()
	dir := t.TempDir()
	store, err := records.OpenPath(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	classID, err := store.AddClass(context.Background(), records.Class{Name: "CSE-A"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddStudentRange(context.Background(), classID, 1, 10); err != nil {
		t.Fatal(err)
	}
	return NewService(store, filepath.Join(dir, "exports"), logging.NewNop()), store, classID
}

func TestMarkCoversEveryStudent(t *testing.T) {
	svc, store, classID := newTestService(t)
	ctx := context.Background()

	result, err := svc.Mark(ctx, classID, "DBMS", "today", "1-10 except 7")
	if err != nil {
		t.Fatal(err)
	}
	if result.Present != 9 || result.Total != 10 {
		t.Fatalf("mark result = %+v", result)
	}

	recs, err := store.ListSessionRecords(ctx, result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 10 {
		t.Fatalf("expected a record per enrolled student, got %d", len(recs))
	}
	for _, rec := range recs {
		want := records.AttendancePresent
		if rec.Roll == 7 {
			want = records.AttendanceAbsent
		}
		if rec.Status != want {
			t.Fatalf("roll %d status = %q, want %q", rec.Roll, rec.Status, want)
		}
	}
}

func TestMarkReplacesEarlierMarking(t *testing.T) {
	svc, _, classID := newTestService(t)
	ctx := context.Background()

	first, err := svc.Mark(ctx, classID, "DBMS", "2025-10-20", "1-5")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Mark(ctx, classID, "DBMS", "2025-10-20", "1-10")
	if err != nil {
		t.Fatal(err)
	}
	if first.SessionID != second.SessionID {
		t.Fatal("re-marking should reuse the session")
	}
	if second.Present != 10 {
		t.Fatalf("present = %d after re-mark", second.Present)
	}

	rows, err := svc.Summary(ctx, classID, "DBMS")
	if err != nil {
		t.Fatal(err)
	}
	// One session only: everyone 1/1.
	for _, row := range rows {
		if row.Present != 1 || row.Total != 1 {
			t.Fatalf("row %+v after replace", row)
		}
	}
}

func TestSummaryPercentRounding(t *testing.T) {
	svc, _, classID := newTestService(t)
	ctx := context.Background()

	dates := []string{"2025-10-20", "2025-10-21", "2025-10-22"}
	specs := []string{"1-10", "1-10 except 3", "1-10 except 3"}
	for i, date := range dates {
		if _, err := svc.Mark(ctx, classID, "OS", date, specs[i]); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := svc.Summary(ctx, classID, "OS")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	var roll3 SummaryRow
	for _, row := range rows {
		if row.Roll == 3 {
			roll3 = row
		}
	}
	if roll3.Present != 1 || roll3.Total != 3 {
		t.Fatalf("roll 3 = %+v", roll3)
	}
	if roll3.Percent != 33.33 {
		t.Fatalf("percent = %v, want 33.33", roll3.Percent)
	}
}

func TestMarkRequiresRoster(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	emptyClass, err := store.AddClass(ctx, records.Class{Name: "Empty"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Mark(ctx, emptyClass, "DBMS", "today", "1-5"); err == nil {
		t.Fatal("expected error for class without students")
	}
}

func TestExportCSV(t *testing.T) {
	svc, _, classID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, classID, "DBMS", "today", "1-10"); err != nil {
		t.Fatal(err)
	}
	path, err := svc.ExportCSV(ctx, classID, "DBMS")
	if err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 11 {
		t.Fatalf("expected header + 10 rows, got %d", len(rows))
	}
	wantHeader := []string{"roll", "name", "present", "total", "percent"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header = %v", rows[0])
		}
	}
	if rows[1][4] != "100.00" {
		t.Fatalf("percent cell = %q", rows[1][4])
	}
}

func TestExportCSVNoData(t *testing.T) {
	svc, _, classID := newTestService(t)
	if _, err := svc.ExportCSV(context.Background(), classID, "DBMS"); err == nil {
		t.Fatal("expected error when nothing is recorded")
	}
}
