package illustrating

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eduassist/internal/config"
	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/logging"
	"eduassist/internal/rendering"
	"eduassist/internal/services"
	"eduassist/internal/testsupport"
)

type fakePhotos struct {
	url       string
	err       error
	available bool
	calls     int
}

func (f *fakePhotos) Available() bool { return f.available }

func (f *fakePhotos) RandomPhotoURL(context.Context, string) (string, error) {
	f.calls++
	return f.url, f.err
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestIllustrator(t *testing.T, photos PhotoSource, maxImages int) (*Illustrator, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Unsplash.MaxImages = maxImages
	store := testsupport.MustOpenStore(t, cfg)
	return NewIllustratorWithDependencies(cfg, store, logging.NewNop(), photos), store
}

func stageDeck(t *testing.T, store *jobs.Store, slides []rendering.DeckSlide) *jobs.Job {
	t.Helper()
	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "DBMS", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	doc := rendering.DeckDocument{
		Title:       "B-trees in Depth",
		Topic:       "B-trees",
		GeneratedAt: "2025-10-20T09:00:00Z",
		GeneratedBy: "EduAssist",
		Slides:      slides,
	}
	dir := filepath.Join(t.TempDir(), "job")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "b-trees.deck.json")
	encoded, _ := json.MarshalIndent(doc, "", "  ")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatal(err)
	}
	job.StagedPath = path
	return job
}

func titleSlide() rendering.DeckSlide {
	return rendering.DeckSlide{
		Slide:  content.Slide{Number: 1, Type: content.SlideTypeTitle, Title: "B-trees in Depth", Bullets: []string{"DBMS"}},
		Layout: rendering.LayoutTitle,
	}
}

func querySlide(number int) rendering.DeckSlide {
	return rendering.DeckSlide{
		Slide: content.Slide{
			Number:     number,
			Type:       content.SlideTypeContent,
			Title:      "Structure",
			Bullets:    []string{"nodes"},
			ImageQuery: "tree diagram",
		},
		Layout: rendering.LayoutBulletsImage,
	}
}

func readDoc(t *testing.T, path string) rendering.DeckDocument {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc rendering.DeckDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExecuteAttachesStockImages(t *testing.T) {
	server := newImageServer(t)
	photos := &fakePhotos{url: server.URL + "/photo.jpg", available: true}
	illustrator, store := newTestIllustrator(t, photos, 4)
	job := stageDeck(t, store, []rendering.DeckSlide{titleSlide(), querySlide(2), querySlide(3)})

	if err := illustrator.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	doc := readDoc(t, job.StagedPath)
	if doc.Slides[0].ImageFile != "" {
		t.Fatalf("title slide got image %q", doc.Slides[0].ImageFile)
	}
	if doc.Slides[1].ImageFile != filepath.Join("assets", "slide-2.jpg") {
		t.Fatalf("slide 2 image = %q", doc.Slides[1].ImageFile)
	}
	if doc.Slides[2].ImageFile != filepath.Join("assets", "slide-3.jpg") {
		t.Fatalf("slide 3 image = %q", doc.Slides[2].ImageFile)
	}
	asset := filepath.Join(filepath.Dir(job.StagedPath), "assets", "slide-2.jpg")
	data, err := os.ReadFile(asset)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("asset bytes = %q", data)
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("progress = %v", job.ProgressPercent)
	}
}

func TestExecuteHonorsImageBudget(t *testing.T) {
	server := newImageServer(t)
	photos := &fakePhotos{url: server.URL + "/photo.jpg", available: true}
	illustrator, store := newTestIllustrator(t, photos, 1)
	job := stageDeck(t, store, []rendering.DeckSlide{titleSlide(), querySlide(2), querySlide(3)})

	if err := illustrator.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	doc := readDoc(t, job.StagedPath)
	if doc.Slides[1].ImageFile == "" || doc.Slides[2].ImageFile != "" {
		t.Fatalf("images = %q, %q", doc.Slides[1].ImageFile, doc.Slides[2].ImageFile)
	}
	if photos.calls != 1 {
		t.Fatalf("photo lookups = %d", photos.calls)
	}
}

func TestExecutePrefersOnDiskImagePath(t *testing.T) {
	photos := &fakePhotos{available: true}
	illustrator, store := newTestIllustrator(t, photos, 4)

	local := filepath.Join(t.TempDir(), "diagram.png")
	if err := os.WriteFile(local, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	slide := querySlide(2)
	slide.ImagePath = local
	job := stageDeck(t, store, []rendering.DeckSlide{titleSlide(), slide})

	if err := illustrator.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	doc := readDoc(t, job.StagedPath)
	if doc.Slides[1].ImageFile != filepath.Join("assets", "slide-2.png") {
		t.Fatalf("image file = %q", doc.Slides[1].ImageFile)
	}
	if photos.calls != 0 {
		t.Fatalf("photo lookups = %d, want 0", photos.calls)
	}
}

func TestExecuteDegradesToTextOnLookupFailure(t *testing.T) {
	photos := &fakePhotos{err: errors.New("rate limited"), available: true}
	illustrator, store := newTestIllustrator(t, photos, 4)
	job := stageDeck(t, store, []rendering.DeckSlide{titleSlide(), querySlide(2)})

	if err := illustrator.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	doc := readDoc(t, job.StagedPath)
	if doc.Slides[1].ImageFile != "" {
		t.Fatalf("image file = %q, want text-only slide", doc.Slides[1].ImageFile)
	}
}

func TestExecutePassesThroughNonDeckKinds(t *testing.T) {
	illustrator, store := newTestIllustrator(t, nil, 4)
	job, err := store.NewJob(context.Background(), jobs.KindQuestionPaper, "Normalization", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if err := illustrator.Execute(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("progress = %v", job.ProgressPercent)
	}
}

func TestExecuteRequiresStagedDeck(t *testing.T) {
	illustrator, store := newTestIllustrator(t, nil, 4)
	job, err := store.NewJob(context.Background(), jobs.KindDeck, "B-trees", "", jobs.Params{})
	if err != nil {
		t.Fatal(err)
	}
	execErr := illustrator.Execute(context.Background(), job)
	if !errors.Is(execErr, services.ErrValidation) {
		t.Fatalf("error = %v", execErr)
	}
}

func TestUnsplashClientRandomPhotoURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos/random" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.URL.Query().Get("orientation"); got != "landscape" {
			t.Errorf("orientation = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "tree diagram" {
			t.Errorf("query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"urls":{"regular":"https://images.example/photo.jpg"}}`))
	}))
	defer server.Close()

	client := newUnsplashClient(config.Unsplash{AccessKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	url, err := client.RandomPhotoURL(context.Background(), "tree diagram")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://images.example/photo.jpg" {
		t.Fatalf("url = %q", url)
	}
}

func TestUnsplashClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := newUnsplashClient(config.Unsplash{AccessKey: "test-key", BaseURL: server.URL, TimeoutSeconds: 5})
	_, err := client.RandomPhotoURL(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnsplashClientAvailability(t *testing.T) {
	if newUnsplashClient(config.Unsplash{}).Available() {
		t.Fatal("client without key should be unavailable")
	}
	if !newUnsplashClient(config.Unsplash{AccessKey: "k"}).Available() {
		t.Fatal("client with key should be available")
	}
}

func TestHealthCheckReportsMissingKey(t *testing.T) {
	illustrator, _ := newTestIllustrator(t, &fakePhotos{available: false}, 4)
	if health := illustrator.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without access key")
	}
	illustrator, _ = newTestIllustrator(t, &fakePhotos{available: true}, 4)
	if health := illustrator.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}
}
