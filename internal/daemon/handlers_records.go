package daemon

import (
	"net/http"
	"strconv"
	"strings"

	"eduassist/internal/api"
	"eduassist/internal/records"
)

func (s *apiServer) handleClasses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		classes, err := s.daemon.recs.ListClasses(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClassListResponse{Classes: classes})
	case http.MethodPost:
		var req api.ClassRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			s.writeError(w, http.StatusBadRequest, "class name is required")
			return
		}
		id, err := s.daemon.recs.AddClass(r.Context(), records.Class{
			Name:       strings.TrimSpace(req.Name),
			Department: strings.TrimSpace(req.Department),
			Semester:   strings.TrimSpace(req.Semester),
		})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.RecordIDResponse{ID: id})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleClassItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/classes/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	if action != "students" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	class, err := s.daemon.recs.GetClass(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if class == nil {
		s.writeError(w, http.StatusNotFound, "class not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		students, err := s.daemon.recs.ListStudents(r.Context(), class.ID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.StudentListResponse{Students: students})
	case http.MethodPost:
		var req api.StudentsAddRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		var added int
		switch {
		case len(req.Students) > 0:
			students := make([]records.Student, 0, len(req.Students))
			for _, entry := range req.Students {
				students = append(students, records.Student{Roll: entry.Roll, Name: entry.Name})
			}
			added, err = s.daemon.recs.AddStudents(r.Context(), class.ID, students)
		case req.From > 0 && req.To >= req.From:
			added, err = s.daemon.recs.AddStudentRange(r.Context(), class.ID, req.From, req.To)
		default:
			s.writeError(w, http.StatusBadRequest, "provide a students list or a from/to roll range")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.StudentsAddResponse{Added: added})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		profile, err := s.daemon.recs.GetProfile(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ProfileResponse{Profile: profile})
	case http.MethodPut:
		var profile records.Profile
		if !s.decodeJSON(w, r, &profile) {
			return
		}
		if err := s.daemon.recs.SaveProfile(r.Context(), profile); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stored, err := s.daemon.recs.GetProfile(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ProfileResponse{Profile: stored})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleAcademics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows, err := s.daemon.recs.ListAcademicRecords(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.AcademicListResponse{Records: rows})
	case http.MethodPost:
		var record records.AcademicRecord
		if !s.decodeJSON(w, r, &record) {
			return
		}
		if strings.TrimSpace(record.Course) == "" {
			s.writeError(w, http.StatusBadRequest, "course is required")
			return
		}
		id, err := s.daemon.recs.AddAcademicRecord(r.Context(), record)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.RecordIDResponse{ID: id})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleResearch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows, err := s.daemon.recs.ListResearchRecords(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ResearchListResponse{Records: rows})
	case http.MethodPost:
		var record records.ResearchRecord
		if !s.decodeJSON(w, r, &record) {
			return
		}
		if strings.TrimSpace(record.Title) == "" {
			s.writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		id, err := s.daemon.recs.AddResearchRecord(r.Context(), record)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.RecordIDResponse{ID: id})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
