package content

import (
	"fmt"
	"strings"

	"eduassist/internal/llm"
	"eduassist/internal/services"
)

// analyzeContentLimit caps how much pasted content goes into the prompt.
const analyzeContentLimit = 3000

// minRecommendedSlides is the floor for recommended slide counts.
const minRecommendedSlides = 3

// Analysis is the structured result of analyzing pasted teaching content.
type Analysis struct {
	Title             string   `json:"title"`
	RecommendedSlides int      `json:"recommended_slides"`
	KeyTopics         []string `json:"key_topics"`
	Difficulty        string   `json:"difficulty_level"`
}

// BuildAnalyzePrompt renders the prompt for content analysis.
func BuildAnalyzePrompt(text string) string {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > analyzeContentLimit {
		text = string(runes[:analyzeContentLimit])
	}
	var b strings.Builder
	b.WriteString("Analyze the following teaching content and provide a structured analysis.\n\nContent:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY valid JSON in this exact structure:\n")
	b.WriteString(`{
  "title": "a working presentation title",
  "recommended_slides": 8,
  "key_topics": ["topic 1", "topic 2"],
  "difficulty_level": "easy/medium/hard"
}`)
	return b.String()
}

// ParseAnalysis decodes a model response, clamping the recommended slide
// count to [3, maxSlides].
func ParseAnalysis(payload string, maxSlides int) (*Analysis, error) {
	var analysis Analysis
	if err := llm.DecodeModelJSON(payload, &analysis); err != nil {
		return nil, services.Wrap(services.ErrValidation, "analyze", "parse_analysis",
			"model returned malformed analysis JSON", err)
	}

	analysis.Title = strings.TrimSpace(analysis.Title)
	if analysis.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "analyze", "parse_analysis",
			"analysis has no title", nil)
	}
	if maxSlides < minRecommendedSlides {
		maxSlides = minRecommendedSlides
	}
	if analysis.RecommendedSlides < minRecommendedSlides {
		analysis.RecommendedSlides = minRecommendedSlides
	}
	if analysis.RecommendedSlides > maxSlides {
		analysis.RecommendedSlides = maxSlides
	}
	if analysis.Difficulty == "" {
		analysis.Difficulty = DifficultyMedium
	}
	topics := make([]string, 0, len(analysis.KeyTopics))
	for _, topic := range analysis.KeyTopics {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}
	analysis.KeyTopics = topics
	return &analysis, nil
}

// AnalysisSummary renders a short human-readable line for logs and CLI output.
func AnalysisSummary(a *Analysis) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s (%d slides, %s)", a.Title, a.RecommendedSlides, a.Difficulty)
}
