package content

import (
	"strings"
	"testing"
)

func TestBuildDeckPromptMentionsCountAndTopic(t *testing.T) {
	prompt := BuildDeckPrompt(DeckRequest{Topic: "B-Trees", Subject: "DBMS", Slides: 6})
	if !strings.Contains(prompt, "6-slide") {
		t.Fatalf("prompt missing slide count: %s", prompt)
	}
	if !strings.Contains(prompt, `"B-Trees"`) || !strings.Contains(prompt, `"DBMS"`) {
		t.Fatal("prompt missing topic or subject")
	}
	if !strings.Contains(prompt, "image_query") {
		t.Fatal("prompt missing schema")
	}
}

func TestBuildDeckPromptIncludesGrounding(t *testing.T) {
	prompt := BuildDeckPrompt(DeckRequest{Topic: "Paging", Slides: 4, Grounding: "[Page 3] Demand paging basics"})
	if !strings.Contains(prompt, "[Page 3] Demand paging basics") {
		t.Fatal("grounding snippet not inlined")
	}
}

func TestParseDeckPlanPrependsTitleSlide(t *testing.T) {
	payload := `{
		"title": "Binary Search Trees",
		"slides": [
			{"title": "Definition", "bullets": ["- A BST keeps keys ordered", "Left subtree holds smaller keys"], "notes": "Define the invariant.", "image_query": "tree diagram"},
			{"title": "Operations", "bullets": ["Search walks one root-to-leaf path"], "notes": "", "image_query": ""}
		]
	}`
	plan, err := ParseDeckPlan(DeckRequest{Topic: "BST", Subject: "Data Structures", Slides: 2}, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Slides) != 3 {
		t.Fatalf("expected 3 slides (title + 2), got %d", len(plan.Slides))
	}
	first := plan.Slides[0]
	if first.Type != SlideTypeTitle || first.Number != 1 || first.Title != "Binary Search Trees" {
		t.Fatalf("unexpected title slide: %+v", first)
	}
	if first.Bullets[0] != "Data Structures" {
		t.Fatalf("title slide subtitle = %q", first.Bullets[0])
	}
	second := plan.Slides[1]
	if second.Number != 2 || second.Type != SlideTypeContent {
		t.Fatalf("unexpected numbering: %+v", second)
	}
	if second.Bullets[0] != "A BST keeps keys ordered" {
		t.Fatalf("bullet marker not stripped: %q", second.Bullets[0])
	}
}

func TestParseDeckPlanFallsBackToTopicTitle(t *testing.T) {
	payload := `{"slides": [{"title": "Only", "bullets": ["one point"]}]}`
	plan, err := ParseDeckPlan(DeckRequest{Topic: "Sorting", Slides: 1}, payload)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Title != "Sorting" {
		t.Fatalf("title = %q, want topic fallback", plan.Title)
	}
}

func TestParseDeckPlanRejectsEmptySlides(t *testing.T) {
	if _, err := ParseDeckPlan(DeckRequest{Topic: "X", Slides: 3}, `{"title": "X", "slides": []}`); err == nil {
		t.Fatal("expected error for empty slides")
	}
	if _, err := ParseDeckPlan(DeckRequest{Topic: "X", Slides: 1}, `{"title": "X", "slides": [{"title": "A", "bullets": ["  ", ""]}]}`); err == nil {
		t.Fatal("expected error for slide without bullets")
	}
}

func TestParseDeckPlanToleratesFencedJSON(t *testing.T) {
	payload := "```json\n{\"title\": \"T\", \"slides\": [{\"title\": \"A\", \"bullets\": [\"b\"]}]}\n```"
	plan, err := ParseDeckPlan(DeckRequest{Topic: "T", Slides: 1}, payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(plan.Slides))
	}
}

func TestNormalizeBullets(t *testing.T) {
	got := normalizeBullets([]string{" - first  point ", "• second", "", "   "})
	if len(got) != 2 || got[0] != "first point" || got[1] != "second" {
		t.Fatalf("normalizeBullets = %v", got)
	}
}
