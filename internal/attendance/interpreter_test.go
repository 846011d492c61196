package attendance

import (
	"context"
	"strings"
	"testing"

	"eduassist/internal/llm"
	"eduassist/internal/logging"
)

type scriptedCompleter struct {
	response  string
	err       error
	available bool
}

func (s scriptedCompleter) Complete(context.Context, string, llm.Request) (string, error) {
	return s.response, s.err
}

func (s scriptedCompleter) Available() bool { return s.available }

func TestParseToolResponse(t *testing.T) {
	tool, args, err := parseToolResponse("TOOL=mark_attendance\n{\"class\": \"CSE-A\", \"subject\": \"DBMS\", \"present_rolls\": \"1-10 except 7\"}")
	if err != nil {
		t.Fatal(err)
	}
	if tool != ToolMarkAttendance {
		t.Fatalf("tool = %q", tool)
	}
	if args.Class != "CSE-A" || args.PresentRolls != "1-10 except 7" {
		t.Fatalf("args = %+v", args)
	}
}

func TestParseToolResponseToleratesPreamble(t *testing.T) {
	payload := "Sure, here is the routing:\nTOOL=summary\n{\"class\": \"CSE-A\"}"
	tool, args, err := parseToolResponse(payload)
	if err != nil {
		t.Fatal(err)
	}
	if tool != ToolSummary || args.Class != "CSE-A" {
		t.Fatalf("tool=%q args=%+v", tool, args)
	}
}

func TestParseToolResponseRejectsUnknownTool(t *testing.T) {
	if _, _, err := parseToolResponse("TOOL=delete_everything\n{}"); err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if _, _, err := parseToolResponse("no protocol here"); err == nil {
		t.Fatal("expected error for missing TOOL line")
	}
}

func TestHeuristicRoute(t *testing.T) {
	cases := []struct {
		command string
		tool    string
	}{
		{"mark rolls 1-10 except 7 present for DBMS class CSE-A", ToolMarkAttendance},
		{"roll 4 was absent today in OS class CSE-A", ToolMarkAttendance},
		{"show the attendance summary for DBMS class CSE-A", ToolSummary},
		{"export the DBMS attendance as csv", ToolExportCSV},
		{"start a session for OS class CSE-A today", ToolCreateSession},
		{"what can you do", ToolAsk},
	}
	for _, tc := range cases {
		tool, _ := heuristicRoute(tc.command)
		if tool != tc.tool {
			t.Errorf("heuristicRoute(%q) = %q, want %q", tc.command, tool, tc.tool)
		}
	}
}

func TestHeuristicRouteExtractsRolls(t *testing.T) {
	_, args := heuristicRoute("mark 1,2,5-10 except 7 present in DBMS for class CSE-A")
	if !strings.Contains(args.PresentRolls, "5-10 except 7") {
		t.Fatalf("present rolls = %q", args.PresentRolls)
	}
}

func TestInterpretMarksViaModelProtocol(t *testing.T) {
	svc, _, _ := newTestService(t)
	completer := scriptedCompleter{
		available: true,
		response:  "TOOL=mark_attendance\n{\"class\": \"cse-a\", \"subject\": \"DBMS\", \"date\": \"today\", \"present_rolls\": \"1-10 except 7\"}",
	}
	interp := NewInterpreter(svc, completer, logging.NewNop())

	reply, err := interp.Interpret(context.Background(), "", "mark attendance")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Tool != ToolMarkAttendance || reply.SessionID == 0 {
		t.Fatalf("reply = %+v", reply)
	}
	if !strings.Contains(reply.Message, "9 present of 10") {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestInterpretFallsBackWithoutProvider(t *testing.T) {
	svc, _, _ := newTestService(t)
	interp := NewInterpreter(svc, nil, logging.NewNop())

	reply, err := interp.Interpret(context.Background(), "", "mark 1-10 present in DBMS for class CSE-A")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Tool != ToolMarkAttendance {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestInterpretAsksForUnknownClass(t *testing.T) {
	svc, _, _ := newTestService(t)
	completer := scriptedCompleter{
		available: true,
		response:  "TOOL=summary\n{\"class\": \"ECE-B\"}",
	}
	interp := NewInterpreter(svc, completer, logging.NewNop())

	reply, err := interp.Interpret(context.Background(), "", "summary for ECE-B")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Tool != ToolAsk || !strings.Contains(reply.Message, "ECE-B") {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestInterpretAskPassesThrough(t *testing.T) {
	svc, _, _ := newTestService(t)
	completer := scriptedCompleter{
		available: true,
		response:  "TOOL=ASK\n{\"question\": \"Which class?\"}",
	}
	interp := NewInterpreter(svc, completer, logging.NewNop())

	reply, err := interp.Interpret(context.Background(), "", "do attendance stuff")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Tool != ToolAsk || reply.Message != "Which class?" {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestInterpretEmptyCommand(t *testing.T) {
	svc, _, _ := newTestService(t)
	interp := NewInterpreter(svc, nil, logging.NewNop())
	if _, err := interp.Interpret(context.Background(), "", "  "); err == nil {
		t.Fatal("expected error for empty command")
	}
}
