package content

import (
	"fmt"
	"strings"

	"eduassist/internal/llm"
	"eduassist/internal/services"
)

// Slide types used in deck plans.
const (
	SlideTypeTitle   = "title"
	SlideTypeContent = "content"
)

// Slide is a single slide in a deck plan. The image fields are resolved in
// priority order during illustration: an on-disk path wins over a preferred
// URL, which wins over a stock-photo query.
type Slide struct {
	Number            int      `json:"slide_number"`
	Type              string   `json:"slide_type"`
	Title             string   `json:"title"`
	Bullets           []string `json:"bullets"`
	Notes             string   `json:"notes,omitempty"`
	ImageQuery        string   `json:"image_query,omitempty"`
	ImagePath         string   `json:"image_path,omitempty"`
	PreferredImageURL string   `json:"preferred_image_url,omitempty"`
	ImageFile         string   `json:"image_file,omitempty"`
}

// DeckPlan is the validated slide deck produced by drafting. Slide 1 is
// always the title slide; a request for n slides yields n+1 total.
type DeckPlan struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Slides   []Slide `json:"slides"`
}

// DeckRequest describes a deck to draft.
type DeckRequest struct {
	Topic     string
	Subject   string
	Slides    int
	Grounding string
}

// modelDeck is the shape the model is asked to return: content slides only,
// no numbering. The title slide is prepended locally.
type modelDeck struct {
	Title  string `json:"title"`
	Slides []struct {
		Title      string   `json:"title"`
		Bullets    []string `json:"bullets"`
		Notes      string   `json:"notes"`
		ImageQuery string   `json:"image_query"`
	} `json:"slides"`
}

// BuildDeckPrompt renders the drafting prompt for a deck request.
func BuildDeckPrompt(req DeckRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-slide lecture presentation on %q", req.Slides, req.Topic)
	if req.Subject != "" {
		fmt.Fprintf(&b, " for the subject %q", req.Subject)
	}
	b.WriteString(".\n\n")
	b.WriteString("For each slide provide a concise title, 3-5 educational bullet points (14-22 words each), short speaker notes, and a stock-photo search query that illustrates the slide.\n")
	b.WriteString("Do not include a title slide; it is added separately.\n")
	appendGrounding(&b, req.Grounding)
	b.WriteString("\nReturn ONLY valid JSON in this exact structure:\n")
	b.WriteString(`{
  "title": "presentation title",
  "slides": [
    {
      "title": "slide title",
      "bullets": ["point 1", "point 2", "point 3"],
      "notes": "speaker notes",
      "image_query": "search query"
    }
  ]
}`)
	fmt.Fprintf(&b, "\n\nGenerate exactly %d slides.", req.Slides)
	return b.String()
}

// ParseDeckPlan decodes and validates a model response, then prepends the
// title slide and numbers the result 1..n+1.
func ParseDeckPlan(req DeckRequest, payload string) (*DeckPlan, error) {
	var decoded modelDeck
	if err := llm.DecodeModelJSON(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_deck",
			"model returned malformed deck JSON", err)
	}

	title := strings.TrimSpace(decoded.Title)
	if title == "" {
		title = strings.TrimSpace(req.Topic)
	}
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_deck",
			"deck plan has no title", nil)
	}
	if len(decoded.Slides) == 0 {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_deck",
			"deck plan has no slides", nil)
	}

	subtitle := strings.TrimSpace(req.Subject)
	if subtitle == "" {
		subtitle = "Educational Presentation"
	}

	plan := &DeckPlan{
		Title:    title,
		Subtitle: subtitle,
		Slides: []Slide{{
			Number:  1,
			Type:    SlideTypeTitle,
			Title:   title,
			Bullets: []string{subtitle},
			Notes:   fmt.Sprintf("Introduction to the presentation on %s.", title),
		}},
	}

	for i, raw := range decoded.Slides {
		slideTitle := strings.TrimSpace(raw.Title)
		if slideTitle == "" {
			return nil, services.Wrap(services.ErrValidation, "drafting", "parse_deck",
				fmt.Sprintf("slide %d has no title", i+1), nil)
		}
		bullets := normalizeBullets(raw.Bullets)
		if len(bullets) == 0 {
			return nil, services.Wrap(services.ErrValidation, "drafting", "parse_deck",
				fmt.Sprintf("slide %d (%s) has no bullet points", i+1, slideTitle), nil)
		}
		plan.Slides = append(plan.Slides, Slide{
			Number:     i + 2,
			Type:       SlideTypeContent,
			Title:      slideTitle,
			Bullets:    bullets,
			Notes:      strings.TrimSpace(raw.Notes),
			ImageQuery: strings.TrimSpace(raw.ImageQuery),
		})
	}
	return plan, nil
}

// normalizeBullets trims whitespace, strips leading bullet markers, and drops
// empty entries.
func normalizeBullets(bullets []string) []string {
	cleaned := make([]string, 0, len(bullets))
	for _, bullet := range bullets {
		text := strings.TrimSpace(bullet)
		text = strings.TrimLeft(text, "-•*")
		text = strings.TrimSpace(text)
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		cleaned = append(cleaned, text)
	}
	return cleaned
}

func appendGrounding(b *strings.Builder, grounding string) {
	grounding = strings.TrimSpace(grounding)
	if grounding == "" {
		return
	}
	b.WriteString("\nGround the content in this reference material from the course syllabus:\n")
	b.WriteString(grounding)
	b.WriteString("\n")
}
