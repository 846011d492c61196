package content

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"eduassist/internal/llm"
	"eduassist/internal/services"
)

// Difficulty levels accepted for question papers.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyMixed  = "mixed"
)

// Default per-question marks by section.
const (
	DefaultMCQMarks   = 1
	DefaultShortMarks = 3
	DefaultLongMarks  = 5
)

// DifficultyCounts holds how many questions of each level a section gets.
type DifficultyCounts struct {
	Easy   int
	Medium int
	Hard   int
}

// DistributeDifficulty splits total questions across levels. "mixed" yields
// even thirds with the remainder going to easy then medium; a single level
// takes everything; unknown values default to medium.
func DistributeDifficulty(total int, difficulty string) DifficultyCounts {
	if total <= 0 {
		return DifficultyCounts{}
	}
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case DifficultyMixed:
		perLevel := total / 3
		remainder := total % 3
		counts := DifficultyCounts{Easy: perLevel, Medium: perLevel, Hard: perLevel}
		if remainder > 0 {
			counts.Easy++
		}
		if remainder > 1 {
			counts.Medium++
		}
		return counts
	case DifficultyEasy:
		return DifficultyCounts{Easy: total}
	case DifficultyHard:
		return DifficultyCounts{Hard: total}
	default:
		return DifficultyCounts{Medium: total}
	}
}

// SectionPlan fixes how many questions each section gets and the per-question
// marks used for totals.
type SectionPlan struct {
	MCQ        int
	Short      int
	Long       int
	MCQMarks   int
	ShortMarks int
	LongMarks  int
}

// DefaultSectionPlan mirrors the standard internal-exam pattern: 5 MCQs at 1
// mark, 3 short answers at 3 marks, 2 long answers at 5 marks.
func DefaultSectionPlan() SectionPlan {
	return SectionPlan{
		MCQ: 5, Short: 3, Long: 2,
		MCQMarks: DefaultMCQMarks, ShortMarks: DefaultShortMarks, LongMarks: DefaultLongMarks,
	}
}

// SectionPlanFor scales the default 5:3:2 pattern to a requested total
// question count, keeping at least one long answer question.
func SectionPlanFor(totalQuestions int) SectionPlan {
	plan := DefaultSectionPlan()
	if totalQuestions <= 0 {
		return plan
	}
	plan.MCQ = totalQuestions / 2
	plan.Long = totalQuestions / 5
	if plan.Long == 0 {
		plan.Long = 1
	}
	plan.Short = totalQuestions - plan.MCQ - plan.Long
	if plan.Short < 0 {
		plan.Short = 0
		plan.MCQ = totalQuestions - plan.Long
	}
	return plan
}

// TotalQuestions returns the question count across all sections.
func (p SectionPlan) TotalQuestions() int {
	return p.MCQ + p.Short + p.Long
}

// Question is one question in a generated set. Options is populated for MCQs
// only, where it must hold exactly four choices.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Marks         int      `json:"marks"`
	Difficulty    string   `json:"difficulty"`
}

// QuestionSet is one generated paper variant.
type QuestionSet struct {
	SetNumber            int        `json:"set_number"`
	SetName              string     `json:"set_name"`
	MCQQuestions         []Question `json:"mcq_questions"`
	ShortAnswerQuestions []Question `json:"short_answer_questions"`
	LongAnswerQuestions  []Question `json:"long_answer_questions"`
	TotalMarks           int        `json:"total_marks"`
}

// PaperRequest describes a question paper to draft.
type PaperRequest struct {
	Topic      string
	Subject    string
	Sections   SectionPlan
	Difficulty string
	Sets       int
	Grounding  string
}

// BuildQuestionPrompt renders the drafting prompt for one set of a paper.
func BuildQuestionPrompt(req PaperRequest, setNumber int) string {
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if difficulty == "" {
		difficulty = DifficultyMixed
	}
	mcqDist := DistributeDifficulty(req.Sections.MCQ, difficulty)
	shortDist := DistributeDifficulty(req.Sections.Short, difficulty)
	longDist := DistributeDifficulty(req.Sections.Long, difficulty)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate an examination question paper on %q", req.Topic)
	if req.Subject != "" {
		fmt.Fprintf(&b, " for the subject %q", req.Subject)
	}
	b.WriteString(".\n\nRequirements:\n")
	fmt.Fprintf(&b, "- Number of MCQs: %d (Easy: %d, Medium: %d, Hard: %d), %d mark each\n",
		req.Sections.MCQ, mcqDist.Easy, mcqDist.Medium, mcqDist.Hard, req.Sections.MCQMarks)
	fmt.Fprintf(&b, "- Number of Short Answer Questions: %d (Easy: %d, Medium: %d, Hard: %d), %d marks each\n",
		req.Sections.Short, shortDist.Easy, shortDist.Medium, shortDist.Hard, req.Sections.ShortMarks)
	fmt.Fprintf(&b, "- Number of Long Answer Questions: %d (Easy: %d, Medium: %d, Hard: %d), %d marks each\n",
		req.Sections.Long, longDist.Easy, longDist.Medium, longDist.Hard, req.Sections.LongMarks)
	fmt.Fprintf(&b, "- Overall Difficulty: %s\n", difficulty)
	if req.Sets > 1 {
		fmt.Fprintf(&b, "\nIMPORTANT FOR SET VARIATION:\nThis is Set %d of %d question papers. Ensure ALL questions in this set are completely different from the other sets. Use different wording, different concepts, and different approaches.\n", setNumber, req.Sets)
	}
	appendGrounding(&b, req.Grounding)
	b.WriteString("\nEasy questions should be straightforward, medium questions should require moderate understanding, hard questions should require deep analysis.\n")
	b.WriteString("\nReturn ONLY valid JSON in this exact structure:\n")
	b.WriteString(`{
  "mcq_questions": [
    {"question": "...", "options": ["a", "b", "c", "d"], "correct_answer": "...", "marks": 1, "difficulty": "easy"}
  ],
  "short_answer_questions": [
    {"question": "...", "correct_answer": "brief answer", "marks": 3, "difficulty": "medium"}
  ],
  "long_answer_questions": [
    {"question": "...", "correct_answer": "detailed answer", "marks": 5, "difficulty": "hard"}
  ]
}`)
	return b.String()
}

// ParseQuestionSet decodes one set from a model response and validates it
// against the section plan.
func ParseQuestionSet(req PaperRequest, setNumber int, payload string) (*QuestionSet, error) {
	var decoded struct {
		MCQQuestions         []Question `json:"mcq_questions"`
		ShortAnswerQuestions []Question `json:"short_answer_questions"`
		LongAnswerQuestions  []Question `json:"long_answer_questions"`
	}
	if err := llm.DecodeModelJSON(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrValidation, "drafting", "parse_questions",
			fmt.Sprintf("set %d: model returned malformed question JSON", setNumber), err)
	}

	set := &QuestionSet{
		SetNumber:            setNumber,
		SetName:              fmt.Sprintf("Set %d", setNumber),
		MCQQuestions:         decoded.MCQQuestions,
		ShortAnswerQuestions: decoded.ShortAnswerQuestions,
		LongAnswerQuestions:  decoded.LongAnswerQuestions,
	}

	if err := validateSection(set.MCQQuestions, req.Sections.MCQ, req.Sections.MCQMarks, "mcq", true); err != nil {
		return nil, wrapSetErr(setNumber, err)
	}
	if err := validateSection(set.ShortAnswerQuestions, req.Sections.Short, req.Sections.ShortMarks, "short answer", false); err != nil {
		return nil, wrapSetErr(setNumber, err)
	}
	if err := validateSection(set.LongAnswerQuestions, req.Sections.Long, req.Sections.LongMarks, "long answer", false); err != nil {
		return nil, wrapSetErr(setNumber, err)
	}

	set.TotalMarks = sumMarks(set.MCQQuestions) + sumMarks(set.ShortAnswerQuestions) + sumMarks(set.LongAnswerQuestions)
	return set, nil
}

func wrapSetErr(setNumber int, err error) error {
	return services.Wrap(services.ErrValidation, "drafting", "parse_questions",
		fmt.Sprintf("set %d: %v", setNumber, err), nil)
}

func validateSection(questions []Question, want, defaultMarks int, section string, mcq bool) error {
	if len(questions) != want {
		return fmt.Errorf("%s section has %d questions, expected %d", section, len(questions), want)
	}
	for i := range questions {
		q := &questions[i]
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			return fmt.Errorf("%s question %d is empty", section, i+1)
		}
		if mcq && len(q.Options) != 4 {
			return fmt.Errorf("%s question %d has %d options, expected 4", section, i+1, len(q.Options))
		}
		if q.Marks <= 0 {
			q.Marks = defaultMarks
		}
		if q.Difficulty == "" {
			q.Difficulty = DifficultyMedium
		}
	}
	return nil
}

func sumMarks(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}

// Completer is the completion surface the generators need; *llm.Router
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, preference string, req llm.Request) (string, error)
}

// GenerateQuestionSets produces all requested paper variants concurrently,
// bounded by concurrency workers.
func GenerateQuestionSets(ctx context.Context, completer Completer, preference string, req PaperRequest, concurrency int) ([]QuestionSet, error) {
	sets := req.Sets
	if sets < 1 {
		sets = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	req.Sets = sets

	results := make([]QuestionSet, sets)
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for setNumber := 1; setNumber <= sets; setNumber++ {
		group.Go(func() error {
			payload, err := completer.Complete(groupCtx, preference, llm.Request{
				Prompt:   BuildQuestionPrompt(req, setNumber),
				JSONOnly: true,
			})
			if err != nil {
				return fmt.Errorf("set %d: %w", setNumber, err)
			}
			set, err := ParseQuestionSet(req, setNumber, payload)
			if err != nil {
				return err
			}
			mu.Lock()
			results[setNumber-1] = *set
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
