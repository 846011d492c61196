package daemon

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"eduassist/internal/api"
)

func (s *apiServer) handleSyllabus(w http.ResponseWriter, r *http.Request) {
	svc := s.daemon.services.Syllabus
	if svc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "syllabus service unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		docs, err := s.daemon.recs.ListSyllabusDocs(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.SyllabusListResponse{Docs: docs})
	case http.MethodPost:
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart body: %v", err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxRequestBody))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		subject := strings.TrimSpace(r.FormValue("subject"))
		doc, err := svc.Upload(r.Context(), header.Filename, subject, data)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, doc)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSyllabusItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	svc := s.daemon.services.Syllabus
	if svc == nil {
		s.writeError(w, http.StatusServiceUnavailable, "syllabus service unavailable")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/syllabus/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "search" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	matches, err := svc.Search(r.Context(), id, query, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	converted := make([]api.SyllabusMatch, 0, len(matches))
	for _, match := range matches {
		converted = append(converted, api.SyllabusMatch{
			PageNo:  match.PageNo,
			Score:   match.Score,
			Snippet: match.Snippet,
		})
	}
	s.writeJSON(w, http.StatusOK, api.SyllabusSearchResponse{Matches: converted})
}
