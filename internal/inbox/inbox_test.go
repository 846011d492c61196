package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/testsupport"
	"eduassist/internal/timetable"
)

type fakeImporter struct {
	mu      sync.Mutex
	calls   int
	lastOpt timetable.Options
	err     error
}

func (f *fakeImporter) Import(_ context.Context, _ []byte, opts timetable.Options) (*timetable.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastOpt = opts
	if f.err != nil {
		return nil, f.err
	}
	return &timetable.Summary{Added: 2}, nil
}

type fakeUploader struct {
	mu          sync.Mutex
	calls       int
	lastSubject string
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, filename, subject string, _ []byte) (*records.SyllabusDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSubject = subject
	if f.err != nil {
		return nil, f.err
	}
	return &records.SyllabusDoc{ID: "doc-1", Filename: filename, Subject: subject, Pages: 3}, nil
}

func newTestWatcher(t *testing.T) (*Watcher, *fakeImporter, *fakeUploader, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Inbox.Enabled = true

	importer := &fakeImporter{}
	uploader := &fakeUploader{}
	watcher := NewWatcher(cfg, importer, uploader, logging.NewNop())
	watcher.settleDelay = 10 * time.Millisecond
	return watcher, importer, uploader, cfg.Paths.InboxDir
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestWatcherImportsDroppedCSV(t *testing.T) {
	watcher, importer, _, inboxDir := newTestWatcher(t)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	csv := "title,start,end\nStaff meeting,2025-10-20 10:00,2025-10-20 11:00\n"
	if err := os.WriteFile(filepath.Join(inboxDir, "schedule.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForFile(t, filepath.Join(inboxDir, "done", "schedule.csv"))
	importer.mu.Lock()
	defer importer.mu.Unlock()
	if importer.calls != 1 {
		t.Fatalf("imports = %d", importer.calls)
	}
	if importer.lastOpt.Mode != timetable.ModeMerge {
		t.Fatalf("mode = %q", importer.lastOpt.Mode)
	}
}

func TestWatcherUploadsDroppedPDF(t *testing.T) {
	watcher, _, uploader, inboxDir := newTestWatcher(t)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(inboxDir, "dbms-syllabus.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForFile(t, filepath.Join(inboxDir, "done", "dbms-syllabus.pdf"))
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	if uploader.calls != 1 {
		t.Fatalf("uploads = %d", uploader.calls)
	}
	if uploader.lastSubject != "Dbms Syllabus" {
		t.Fatalf("subject = %q", uploader.lastSubject)
	}
}

func TestWatcherMovesFailuresToFailedDir(t *testing.T) {
	watcher, importer, _, inboxDir := newTestWatcher(t)
	importer.err = errors.New("bad layout")
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(inboxDir, "broken.csv"), []byte("nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForFile(t, filepath.Join(inboxDir, "failed", "broken.csv"))
}

func TestWatcherProcessesPreexistingFiles(t *testing.T) {
	watcher, importer, _, inboxDir := newTestWatcher(t)

	if err := os.MkdirAll(inboxDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inboxDir, "early.csv"), []byte("title,start,end\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	waitForFile(t, filepath.Join(inboxDir, "done", "early.csv"))
	importer.mu.Lock()
	defer importer.mu.Unlock()
	if importer.calls != 1 {
		t.Fatalf("imports = %d", importer.calls)
	}
}

func TestWatcherIgnoresUnsupportedExtensions(t *testing.T) {
	watcher, importer, uploader, inboxDir := newTestWatcher(t)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(inboxDir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if _, err := os.Stat(filepath.Join(inboxDir, "notes.txt")); err != nil {
		t.Fatalf("unsupported file should stay put: %v", err)
	}
	importer.mu.Lock()
	imports := importer.calls
	importer.mu.Unlock()
	uploader.mu.Lock()
	uploads := uploader.calls
	uploader.mu.Unlock()
	if imports != 0 || uploads != 0 {
		t.Fatalf("imports = %d, uploads = %d", imports, uploads)
	}
}

func TestStartIsNoopWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Inbox.Enabled = false
	watcher := NewWatcher(&cfg, &fakeImporter{}, &fakeUploader{}, logging.NewNop())
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	watcher.Stop()
}

func TestSubjectFromFilename(t *testing.T) {
	cases := map[string]string{
		"dbms-syllabus.pdf":    "Dbms Syllabus",
		"machine_learning.pdf": "Machine Learning",
		"OS.notes.pdf":         "Os Notes",
	}
	for input, want := range cases {
		if got := subjectFromFilename(input); got != want {
			t.Errorf("subjectFromFilename(%q) = %q, want %q", input, got, want)
		}
	}
}
