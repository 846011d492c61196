package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/services"
)

// Tools the interpreter can dispatch to. ASK is the escape hatch for
// commands missing required fields.
const (
	ToolCreateSession  = "create_session"
	ToolMarkAttendance = "mark_attendance"
	ToolSummary        = "summary"
	ToolExportCSV      = "export_csv"
	ToolAsk            = "ASK"
)

// Completer is the completion surface the interpreter needs; *llm.Router
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, preference string, req llm.Request) (string, error)
	Available() bool
}

// Interpreter turns natural-language attendance commands into service calls.
type Interpreter struct {
	service   *Service
	completer Completer
	logger    *slog.Logger
}

// NewInterpreter builds an interpreter. completer may be nil; the keyword
// fallback then handles every command.
func NewInterpreter(service *Service, completer Completer, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		service:   service,
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "attendance"),
	}
}

// toolArgs is the JSON argument object the router protocol carries on its
// second line.
type toolArgs struct {
	Class        string `json:"class"`
	Subject      string `json:"subject"`
	Date         string `json:"date"`
	PresentRolls string `json:"present_rolls"`
	Question     string `json:"question"`
}

const routerPrompt = `Decide which tool to use for the teacher's attendance command and build JSON for it.

TOOLS:
- create_session: {"class": "class name", "subject": "subject name", "date": "YYYY-MM-DD|today|DD-MM-YYYY"}
- mark_attendance: {"class": "class name", "subject": "subject name", "date": "YYYY-MM-DD|today|DD-MM-YYYY", "present_rolls": "1,2,5-10 except 7"}
- summary: {"class": "class name", "subject": "subject name"}
- export_csv: {"class": "class name", "subject": "subject name"}

If required fields are missing, use ASK with {"question": "one short clarifying question"}.

Output strictly two lines:
TOOL=<create_session|mark_attendance|summary|export_csv|ASK>
<JSON>

Command: %s`

// Reply is the interpreter's answer to one command.
type Reply struct {
	Tool      string `json:"tool"`
	Message   string `json:"message"`
	SessionID int64  `json:"session_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

// Interpret routes one command through the model (or the keyword fallback)
// and executes the chosen tool.
func (i *Interpreter) Interpret(ctx context.Context, preference, command string) (*Reply, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, services.Wrap(services.ErrValidation, "attendance", "interpret", "command is empty", nil)
	}

	tool, args := i.route(ctx, preference, command)
	i.logger.Debug("attendance command routed",
		logging.String("tool", tool),
		logging.String(logging.FieldEventType, "attendance_routed"),
	)
	return i.dispatch(ctx, tool, args)
}

// route asks the model for a TOOL= decision, falling back to keywords when no
// provider is available or the response cannot be parsed.
func (i *Interpreter) route(ctx context.Context, preference, command string) (string, toolArgs) {
	if i.completer == nil || !i.completer.Available() {
		return heuristicRoute(command)
	}
	payload, err := i.completer.Complete(ctx, preference, llm.Request{
		Prompt:      fmt.Sprintf(routerPrompt, command),
		Temperature: 0.2,
	})
	if err != nil {
		i.logger.Warn("attendance routing failed, using keyword fallback",
			logging.Error(err),
			logging.String(logging.FieldEventType, "attendance_route_fallback"),
		)
		return heuristicRoute(command)
	}
	tool, args, err := parseToolResponse(payload)
	if err != nil {
		i.logger.Warn("unparseable routing response, using keyword fallback",
			logging.Error(err),
			logging.String(logging.FieldEventType, "attendance_route_fallback"),
		)
		return heuristicRoute(command)
	}
	return tool, args
}

// parseToolResponse splits the strict two-line protocol: "TOOL=<name>" then a
// JSON argument object.
func parseToolResponse(payload string) (string, toolArgs, error) {
	var args toolArgs
	trimmed := strings.TrimSpace(payload)
	idx := strings.Index(trimmed, "TOOL=")
	if idx < 0 {
		return "", args, fmt.Errorf("no TOOL= line in response: %s", llm.PayloadSnippet(payload))
	}
	rest := trimmed[idx+len("TOOL="):]
	line, body, _ := strings.Cut(rest, "\n")
	tool := strings.TrimSpace(line)
	switch tool {
	case ToolCreateSession, ToolMarkAttendance, ToolSummary, ToolExportCSV, ToolAsk:
	default:
		return "", args, fmt.Errorf("unknown tool %q", tool)
	}
	if strings.TrimSpace(body) != "" {
		if err := llm.DecodeModelJSON(body, &args); err != nil {
			return "", args, fmt.Errorf("bad tool arguments: %w", err)
		}
	}
	return tool, args, nil
}

var (
	rollSpecPattern = regexp.MustCompile(`\d[\d\s,\-]*(?:except[\d\s,\-]+)?`)
	classPattern    = regexp.MustCompile(`(?i)\bclass\s+([a-z0-9][a-z0-9\- ]*?)(?:\s+(?:for|in|on|today)\b|[,.]|$)`)
	subjectPattern  = regexp.MustCompile(`(?i)\b(?:for|in|subject)\s+([a-z][a-z0-9\- ]*?)(?:\s+(?:class|today|on|for|in)\b|[,.]|$)`)
	datePattern     = regexp.MustCompile(`\b(\d{2,4}-\d{2}-\d{2,4}|today)\b`)
)

// heuristicRoute classifies a command by keywords when no model can.
func heuristicRoute(command string) (string, toolArgs) {
	lowered := strings.ToLower(command)
	args := toolArgs{
		Class:   matchGroup(classPattern, command),
		Subject: matchGroup(subjectPattern, command),
		Date:    matchGroup(datePattern, lowered),
	}
	switch {
	case strings.Contains(lowered, "export") || strings.Contains(lowered, "csv"):
		return ToolExportCSV, args
	case strings.Contains(lowered, "summary") || strings.Contains(lowered, "percentage"):
		return ToolSummary, args
	case strings.Contains(lowered, "mark") || strings.Contains(lowered, "absent") || strings.Contains(lowered, "present"):
		args.PresentRolls = strings.TrimSpace(rollSpecPattern.FindString(lowered))
		return ToolMarkAttendance, args
	case strings.Contains(lowered, "session") || strings.Contains(lowered, "start"):
		return ToolCreateSession, args
	default:
		args.Question = "Should I create a session, mark attendance, or show a summary? Please name the class and subject."
		return ToolAsk, args
	}
}

func matchGroup(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// dispatch executes the routed tool against the service.
func (i *Interpreter) dispatch(ctx context.Context, tool string, args toolArgs) (*Reply, error) {
	if tool == ToolAsk {
		question := strings.TrimSpace(args.Question)
		if question == "" {
			question = "Please name the class and subject for that attendance command."
		}
		return &Reply{Tool: ToolAsk, Message: question}, nil
	}

	if strings.TrimSpace(args.Class) == "" {
		return &Reply{Tool: ToolAsk, Message: "Which class is this for?"}, nil
	}
	class, err := i.service.ResolveClass(ctx, args.Class)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return &Reply{Tool: ToolAsk, Message: fmt.Sprintf("I don't know a class called %q. Which class did you mean?", args.Class)}, nil
		}
		return nil, err
	}

	switch tool {
	case ToolCreateSession:
		if args.Subject == "" {
			return &Reply{Tool: ToolAsk, Message: "Which subject is the session for?"}, nil
		}
		session, err := i.service.EnsureSession(ctx, class.ID, args.Subject, args.Date)
		if err != nil {
			return nil, err
		}
		return &Reply{
			Tool:      ToolCreateSession,
			SessionID: session.ID,
			Message:   fmt.Sprintf("Session %d ready for %s %s on %s.", session.ID, class.Name, session.Subject, session.Date),
		}, nil

	case ToolMarkAttendance:
		if args.Subject == "" {
			return &Reply{Tool: ToolAsk, Message: "Which subject should I mark attendance for?"}, nil
		}
		if strings.TrimSpace(args.PresentRolls) == "" {
			return &Reply{Tool: ToolAsk, Message: "Which roll numbers are present? You can use patterns like 1-10 except 7."}, nil
		}
		result, err := i.service.Mark(ctx, class.ID, args.Subject, args.Date, args.PresentRolls)
		if err != nil {
			return nil, err
		}
		return &Reply{
			Tool:      ToolMarkAttendance,
			SessionID: result.SessionID,
			Message:   fmt.Sprintf("Marked session %d on %s: %d present of %d.", result.SessionID, result.Date, result.Present, result.Total),
		}, nil

	case ToolSummary:
		rows, err := i.service.Summary(ctx, class.ID, args.Subject)
		if err != nil {
			return nil, err
		}
		return &Reply{Tool: ToolSummary, Message: formatSummary(class.Name, args.Subject, rows)}, nil

	case ToolExportCSV:
		path, err := i.service.ExportCSV(ctx, class.ID, args.Subject)
		if err != nil {
			return nil, err
		}
		return &Reply{
			Tool:     ToolExportCSV,
			FilePath: path,
			Message:  fmt.Sprintf("Attendance summary exported to %s.", path),
		}, nil
	}
	return nil, services.Wrap(services.ErrValidation, "attendance", "dispatch",
		fmt.Sprintf("unknown tool %q", tool), nil)
}

// formatSummary renders summary rows as a short text block for chat replies.
func formatSummary(className, subject string, rows []SummaryRow) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No attendance recorded yet for %s.", className)
	}
	var b strings.Builder
	if subject != "" {
		fmt.Fprintf(&b, "Attendance for %s (%s):\n", className, subject)
	} else {
		fmt.Fprintf(&b, "Attendance for %s:\n", className)
	}
	for _, row := range rows {
		name := row.Name
		if name == "" {
			name = fmt.Sprintf("Roll %d", row.Roll)
		}
		fmt.Fprintf(&b, "%d. %s: %d/%d (%.2f%%)\n", row.Roll, name, row.Present, row.Total, row.Percent)
	}
	return strings.TrimSpace(b.String())
}
