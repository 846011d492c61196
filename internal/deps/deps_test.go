package deps

import (
	"testing"

	"eduassist/internal/config"
	"eduassist/internal/testsupport"
)

func statusByName(t *testing.T, statuses []Status, name string) Status {
	t.Helper()
	for _, status := range statuses {
		if status.Name == name {
			return status
		}
	}
	t.Fatalf("dependency %q not reported", name)
	return Status{}
}

func TestCheckReportsMissingKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGroqKey("gsk-test"))
	cfg.Paths.LibraryDir = t.TempDir()

	statuses := Check(cfg)

	gemini := statusByName(t, statuses, "gemini")
	if gemini.Available {
		t.Fatal("gemini should be unavailable without a key")
	}
	if gemini.Detail == "" {
		t.Fatal("missing key should carry a detail")
	}
	groq := statusByName(t, statuses, "groq")
	if !groq.Available {
		t.Fatal("groq should be available with a key")
	}
	library := statusByName(t, statuses, "library")
	if !library.Available {
		t.Fatalf("library = %+v", library)
	}
}

func TestCheckToleratesMissingLibraryDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = t.TempDir() + "/not-yet"

	library := statusByName(t, Check(&cfg), "library")
	if !library.Available {
		t.Fatalf("library = %+v", library)
	}
	if library.Detail == "" {
		t.Fatal("expected a detail about deferred creation")
	}
}

func TestCheckNilConfig(t *testing.T) {
	if got := Check(nil); got != nil {
		t.Fatalf("got = %+v", got)
	}
}
