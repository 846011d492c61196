// Package assist is the conversational front door: one free-text message is
// classified into an intent, then dispatched to the job queue, the attendance
// interpreter, or a direct chat reply.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"eduassist/internal/attendance"
	"eduassist/internal/config"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/services"
)

// Intents the classifier can produce.
const (
	IntentDeck          = "deck"
	IntentQuestionPaper = "question_paper"
	IntentLabManual     = "lab_manual"
	IntentAttendance    = "attendance"
	IntentGeneral       = "general"
)

// Completer is the completion surface the assistant needs; *llm.Router
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, preference string, req llm.Request) (string, error)
	Available() bool
}

// Assistant routes teacher messages to the right subsystem.
type Assistant struct {
	store       *jobs.Store
	interpreter *attendance.Interpreter
	completer   Completer
	defaults    config.Generation
	logger      *slog.Logger
}

// New builds an assistant. completer may be nil; classification then falls
// back to keyword rules and general chat degrades to a help message.
func New(store *jobs.Store, interpreter *attendance.Interpreter, completer Completer, defaults config.Generation, logger *slog.Logger) *Assistant {
	return &Assistant{
		store:       store,
		interpreter: interpreter,
		completer:   completer,
		defaults:    defaults,
		logger:      logging.NewComponentLogger(logger, "assist"),
	}
}

// Response is the assistant's answer to one message.
type Response struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
	JobID   int64  `json:"job_id,omitempty"`
}

// classification is the strict JSON object the classifier prompt requests.
type classification struct {
	Intent       string `json:"intent"`
	Topic        string `json:"topic"`
	Subject      string `json:"subject"`
	NumSlides    int    `json:"num_slides"`
	NumQuestions int    `json:"num_questions"`
	Marks        int    `json:"marks"`
	Reply        string `json:"reply"`
}

const classifyPrompt = `Classify the teacher's message and extract parameters.

Respond with ONLY a JSON object:
{
  "intent": "deck|question_paper|lab_manual|attendance|general",
  "topic": "the topic to generate content about, if any",
  "subject": "the course or subject name, if mentioned",
  "num_slides": 0,
  "num_questions": 0,
  "marks": 0,
  "reply": "for general intent only: a short helpful answer to the message"
}

Intents:
- deck: the teacher wants a slide presentation
- question_paper: the teacher wants a question paper, quiz, or exam
- lab_manual: the teacher wants a lab manual or practical write-up
- attendance: the message is about attendance, sessions, or roll numbers
- general: anything else

Message: %s`

// Handle classifies one message and executes the resulting intent.
func (a *Assistant) Handle(ctx context.Context, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, services.Wrap(services.ErrValidation, "assist", "handle", "message is empty", nil)
	}

	preference := llm.PreferredProvider(message)
	result := a.classify(ctx, preference, message)
	a.logger.Debug("message classified",
		logging.String("intent", result.Intent),
		logging.String(logging.FieldEventType, "assist_classified"),
	)

	switch result.Intent {
	case IntentDeck, IntentQuestionPaper, IntentLabManual:
		return a.enqueue(ctx, result, preference)
	case IntentAttendance:
		reply, err := a.interpreter.Interpret(ctx, preference, message)
		if err != nil {
			return nil, err
		}
		return &Response{Intent: IntentAttendance, Message: reply.Message}, nil
	default:
		return a.chat(ctx, preference, message, result.Reply)
	}
}

// classify asks the model for the strict JSON decision, falling back to
// keyword rules when no provider is available or the payload cannot be
// decoded.
func (a *Assistant) classify(ctx context.Context, preference, message string) classification {
	if a.completer == nil || !a.completer.Available() {
		return heuristicClassify(message)
	}
	payload, err := a.completer.Complete(ctx, preference, llm.Request{
		Prompt:      fmt.Sprintf(classifyPrompt, message),
		Temperature: 0.2,
		JSONOnly:    true,
	})
	if err != nil {
		a.logger.Warn("classification failed, using keyword fallback",
			logging.Error(err),
			logging.String(logging.FieldEventType, "assist_classify_fallback"),
		)
		return heuristicClassify(message)
	}
	var result classification
	if err := llm.DecodeModelJSON(payload, &result); err != nil {
		a.logger.Warn("unparseable classification, using keyword fallback",
			logging.Error(err),
			logging.String(logging.FieldEventType, "assist_classify_fallback"),
		)
		return heuristicClassify(message)
	}
	result.Intent = strings.ToLower(strings.TrimSpace(result.Intent))
	switch result.Intent {
	case IntentDeck, IntentQuestionPaper, IntentLabManual, IntentAttendance, IntentGeneral:
	default:
		return heuristicClassify(message)
	}
	return result
}

var (
	slidesPattern    = regexp.MustCompile(`(?i)(\d+)\s*slides?`)
	questionsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:questions?|mcqs?)`)
	marksPattern     = regexp.MustCompile(`(?i)(\d+)\s*marks?`)
	topicPattern     = regexp.MustCompile(`(?i)\b(?:on|about)\s+(.+?)(?:\s+(?:for|with|in)\b|[,.?]|$)`)
)

// heuristicClassify applies keyword rules when no model can decide.
func heuristicClassify(message string) classification {
	lowered := strings.ToLower(message)
	result := classification{
		Intent:       IntentGeneral,
		Topic:        matchGroup(topicPattern, message),
		NumSlides:    matchInt(slidesPattern, lowered),
		NumQuestions: matchInt(questionsPattern, lowered),
		Marks:        matchInt(marksPattern, lowered),
	}
	switch {
	case strings.Contains(lowered, "attendance") ||
		strings.Contains(lowered, "absent") ||
		strings.Contains(lowered, "roll") ||
		(strings.Contains(lowered, "mark") && strings.Contains(lowered, "present")):
		result.Intent = IntentAttendance
	case strings.Contains(lowered, "lab manual") ||
		strings.Contains(lowered, "practical") ||
		strings.Contains(lowered, "experiment"):
		result.Intent = IntentLabManual
	case strings.Contains(lowered, "question paper") ||
		strings.Contains(lowered, "quiz") ||
		strings.Contains(lowered, "exam") ||
		strings.Contains(lowered, "question"):
		result.Intent = IntentQuestionPaper
	case strings.Contains(lowered, "slide") ||
		strings.Contains(lowered, "ppt") ||
		strings.Contains(lowered, "presentation") ||
		strings.Contains(lowered, "deck"):
		result.Intent = IntentDeck
	}
	return result
}

func matchGroup(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func matchInt(pattern *regexp.Regexp, text string) int {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return value
}

// enqueue creates a generation job for the classified intent.
func (a *Assistant) enqueue(ctx context.Context, result classification, preference string) (*Response, error) {
	topic := strings.TrimSpace(result.Topic)
	if topic == "" {
		return &Response{
			Intent:  result.Intent,
			Message: "What topic should I generate that for?",
		}, nil
	}

	var kind jobs.Kind
	params := jobs.Params{Provider: preference}
	switch result.Intent {
	case IntentDeck:
		kind = jobs.KindDeck
		params.Slides = result.NumSlides
		if params.Slides <= 0 {
			params.Slides = a.defaults.DefaultSlides
		}
		if a.defaults.MaxSlides > 0 && params.Slides > a.defaults.MaxSlides {
			params.Slides = a.defaults.MaxSlides
		}
	case IntentQuestionPaper:
		kind = jobs.KindQuestionPaper
		params.Questions = result.NumQuestions
		params.Marks = result.Marks
		if params.Marks <= 0 {
			params.Marks = a.defaults.DefaultMarks
		}
	case IntentLabManual:
		kind = jobs.KindLabManual
	}

	job, err := a.store.NewJob(ctx, kind, topic, result.Subject, params)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "assist", "enqueue", "cannot queue generation job", err)
	}
	a.logger.Info("generation job queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("kind", string(kind)),
		logging.String("topic", topic),
	)
	return &Response{
		Intent:  result.Intent,
		JobID:   job.ID,
		Message: fmt.Sprintf("Queued %s generation for %q as job %d. Check its progress with the jobs list.", kindLabel(kind), topic, job.ID),
	}, nil
}

func kindLabel(kind jobs.Kind) string {
	switch kind {
	case jobs.KindDeck:
		return "slide deck"
	case jobs.KindQuestionPaper:
		return "question paper"
	case jobs.KindLabManual:
		return "lab manual"
	default:
		return string(kind)
	}
}

// chat answers a general message directly.
func (a *Assistant) chat(ctx context.Context, preference, message, reply string) (*Response, error) {
	if strings.TrimSpace(reply) != "" {
		return &Response{Intent: IntentGeneral, Message: strings.TrimSpace(reply)}, nil
	}
	if a.completer == nil || !a.completer.Available() {
		return &Response{
			Intent: IntentGeneral,
			Message: "I can generate slide decks, question papers, and lab manuals, and manage attendance. " +
				"Try \"create a 10 slide deck on B-trees for DBMS\".",
		}, nil
	}
	content, err := a.completer.Complete(ctx, preference, llm.Request{
		Prompt:      message,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return &Response{Intent: IntentGeneral, Message: strings.TrimSpace(content)}, nil
}
