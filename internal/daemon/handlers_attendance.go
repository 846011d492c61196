package daemon

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"eduassist/internal/api"
	"eduassist/internal/attendance"
	"eduassist/internal/records"
)

// resolveClassParam looks up a class by name, writing the error response when
// the lookup fails.
func (s *apiServer) resolveClassParam(w http.ResponseWriter, r *http.Request, svc *attendance.Service, name string) (*records.Class, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "class is required")
		return nil, false
	}
	class, err := svc.ResolveClass(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	return class, true
}

func (s *apiServer) attendanceService(w http.ResponseWriter) (*attendance.Service, bool) {
	svc := s.daemon.services.Attendance
	if svc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "attendance service unavailable")
		return nil, false
	}
	return svc, true
}

func (s *apiServer) handleAttendanceCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	interpreter := s.daemon.services.Interpreter
	if interpreter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "attendance interpreter unavailable")
		return
	}
	var req api.AttendanceCommandRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	reply, err := interpreter.Interpret(r.Context(), "", req.Command)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AttendanceCommandResponse{
		Tool:      reply.Tool,
		Message:   reply.Message,
		SessionID: reply.SessionID,
		FilePath:  reply.FilePath,
	})
}

func (s *apiServer) handleAttendanceSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc, ok := s.attendanceService(w)
	if !ok {
		return
	}
	var req api.SessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	class, ok := s.resolveClassParam(w, r, svc, req.Class)
	if !ok {
		return
	}
	session, err := svc.EnsureSession(r.Context(), class.ID, req.Subject, req.Date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: *session})
}

func (s *apiServer) handleAttendanceMark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc, ok := s.attendanceService(w)
	if !ok {
		return
	}
	var req api.MarkRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	class, ok := s.resolveClassParam(w, r, svc, req.Class)
	if !ok {
		return
	}
	result, err := svc.Mark(r.Context(), class.ID, req.Subject, req.Date, req.Present)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MarkResponse{Result: *result})
}

func (s *apiServer) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc, ok := s.attendanceService(w)
	if !ok {
		return
	}
	query := r.URL.Query()
	class, ok := s.resolveClassParam(w, r, svc, query.Get("class"))
	if !ok {
		return
	}
	subject := strings.TrimSpace(query.Get("subject"))
	rows, err := svc.Summary(r.Context(), class.ID, subject)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SummaryResponse{
		Class:   class.Name,
		Subject: subject,
		Rows:    rows,
	})
}

func (s *apiServer) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc, ok := s.attendanceService(w)
	if !ok {
		return
	}
	query := r.URL.Query()
	class, ok := s.resolveClassParam(w, r, svc, query.Get("class"))
	if !ok {
		return
	}
	subject := strings.TrimSpace(query.Get("subject"))
	path, err := svc.ExportCSV(r.Context(), class.ID, subject)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
