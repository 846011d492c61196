package content

import (
	"fmt"
	"strings"

	"eduassist/internal/llm"
	"eduassist/internal/services"
)

// LabManual is the structured write-up for one experiment, in the standard
// record-book format.
type LabManual struct {
	Title        string   `json:"title"`
	Objective    string   `json:"objective"`
	Apparatus    []string `json:"apparatus"`
	Theory       string   `json:"theory"`
	Procedure    []string `json:"procedure"`
	Observations string   `json:"observations"`
	Result       string   `json:"result"`
	Precautions  []string `json:"precautions"`
}

// ManualRequest describes a lab manual to draft.
type ManualRequest struct {
	Topic     string
	Subject   string
	Grounding string
}

// BuildLabManualPrompt renders the drafting prompt for an experiment manual.
func BuildLabManualPrompt(req ManualRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert lab manual creator for college-level courses. Write a complete lab manual for the experiment %q", req.Topic)
	if req.Subject != "" {
		fmt.Fprintf(&b, " in the subject %q", req.Subject)
	}
	b.WriteString(".\n\n")
	b.WriteString("Make the manual PRACTICAL and DETAILED: a clear learning objective, the apparatus or software required, theory covering the underlying concepts, numbered step-by-step procedure students can follow, an observations section describing what to record, the expected result, and safety or correctness precautions.\n")
	appendGrounding(&b, req.Grounding)
	b.WriteString("\nReturn ONLY valid JSON in this exact structure:\n")
	b.WriteString(`{
  "title": "experiment title",
  "objective": "what students will learn or achieve",
  "apparatus": ["item 1", "item 2"],
  "theory": "background theory",
  "procedure": ["step 1", "step 2"],
  "observations": "what to record during the experiment",
  "result": "expected outcome",
  "precautions": ["precaution 1", "precaution 2"]
}`)
	return b.String()
}

// ParseLabManual decodes and validates a model response for a manual request.
func ParseLabManual(req ManualRequest, payload string) (*LabManual, error) {
	var manual LabManual
	if err := llm.DecodeModelJSON(payload, &manual); err != nil {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_manual",
			"model returned malformed lab manual JSON", err)
	}

	manual.Title = strings.TrimSpace(manual.Title)
	if manual.Title == "" {
		manual.Title = strings.TrimSpace(req.Topic)
	}
	if manual.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_manual",
			"lab manual has no title", nil)
	}
	if strings.TrimSpace(manual.Objective) == "" {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_manual",
			"lab manual has no objective", nil)
	}
	manual.Procedure = normalizeBullets(manual.Procedure)
	if len(manual.Procedure) == 0 {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_manual",
			"lab manual has no procedure steps", nil)
	}
	manual.Apparatus = normalizeBullets(manual.Apparatus)
	manual.Precautions = normalizeBullets(manual.Precautions)
	return &manual, nil
}
