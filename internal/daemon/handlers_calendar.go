package daemon

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eduassist/internal/api"
	"eduassist/internal/records"
	"eduassist/internal/timetable"
)

// eventTimeLayouts are accepted for event start/end values, tried in order.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEventTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func (s *apiServer) handleTimetableImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	importer := s.daemon.services.Timetable
	if importer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "timetable importer unavailable")
		return
	}
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	summary, err := importer.Import(r.Context(), data, timetable.Options{
		Scope: strings.TrimSpace(query.Get("scope")),
		Day:   strings.TrimSpace(query.Get("day")),
		Mode:  strings.TrimSpace(query.Get("mode")),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TimetableImportResponse{Summary: *summary})
}

// readUpload returns the uploaded file bytes: a multipart "file" part when
// present, the raw request body otherwise.
func (s *apiServer) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart body: %v", err))
			return nil, false
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return nil, false
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxRequestBody))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		return data, true
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if len(data) == 0 {
		s.writeError(w, http.StatusBadRequest, "request body is empty")
		return nil, false
	}
	return data, true
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	calendarSvc := s.daemon.services.Calendar
	if calendarSvc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "calendar service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		from, err := parseEventTime(query.Get("from"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := parseEventTime(query.Get("to"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Default window: today through the next seven days.
		if from.IsZero() {
			now := time.Now()
			from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}
		if to.IsZero() {
			to = from.AddDate(0, 0, 7)
		}
		events, err := calendarSvc.ListEvents(r.Context(), from, to)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.EventListResponse{Events: events})
	case http.MethodPost:
		var req api.EventRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		start, err := parseEventTime(req.Start)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		end, err := parseEventTime(req.End)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		event, err := calendarSvc.CreateEvent(r.Context(), records.Event{
			ID:          req.ID,
			Title:       req.Title,
			Start:       start,
			End:         end,
			Location:    req.Location,
			Description: req.Description,
			AllDay:      req.AllDay,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.EventResponse{Event: *event})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	calendarSvc := s.daemon.services.Calendar
	if calendarSvc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "calendar service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		all := r.URL.Query().Get("all") == "1" || strings.EqualFold(r.URL.Query().Get("all"), "true")
		tasks, err := calendarSvc.Tasks(r.Context(), !all)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: tasks})
	case http.MethodPost:
		var req api.TaskRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		task, err := calendarSvc.CreateTask(r.Context(), records.Task{Title: req.Title, Due: req.Due})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.TaskResponse{Task: *task})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleTaskItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	calendarSvc := s.daemon.services.Calendar
	if calendarSvc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "calendar service unavailable")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err := calendarSvc.CompleteTask(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: 1})
}

func (s *apiServer) handleTodayOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	calendarSvc := s.daemon.services.Calendar
	if calendarSvc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "calendar service unavailable")
		return
	}
	overview, err := calendarSvc.TodayOverview(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview)
}
