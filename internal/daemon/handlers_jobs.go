package daemon

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"eduassist/internal/api"
	"eduassist/internal/jobs"
)

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		s.handleJobsClear(w, r)
		return
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, jobs.Status(trimmed))
	}
	items, err := s.daemon.ListJobs(r.Context(), statuses)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(items)})
}

// handleJobsClear removes jobs in bulk. The scope query selects completed,
// failed, or all jobs; bare DELETE clears everything.
func (s *apiServer) handleJobsClear(w http.ResponseWriter, r *http.Request) {
	var (
		removed int64
		err     error
	)
	switch scope := strings.TrimSpace(r.URL.Query().Get("scope")); scope {
	case "completed":
		removed, err = s.daemon.ClearCompleted(r.Context())
	case "failed":
		removed, err = s.daemon.ClearFailed(r.Context())
	case "", "all":
		removed, err = s.daemon.ClearQueue(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, "invalid scope")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: removed})
}

func (s *apiServer) handleJobsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	updated, err := s.daemon.ResetStuck(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: updated})
}

func (s *apiServer) handleJobItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	switch {
	case action == "retry" && r.Method == http.MethodPost:
		count, err := s.daemon.RetryFailed(r.Context(), []int64{id})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if count == 0 {
			s.writeError(w, http.StatusNotFound, "job is not in a failed state")
			return
		}
		s.writeJSON(w, http.StatusOK, api.CountResponse{Count: count})
	case action == "" && r.Method == http.MethodGet:
		job, err := s.daemon.store.GetByID(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if job == nil {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJob(job)})
	case action == "" && r.Method == http.MethodDelete:
		removed, err := s.daemon.RemoveJob(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.CountResponse{Count: 1})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	artifacts, err := s.daemon.recs.ListArtifacts(r.Context(), kind)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ArtifactListResponse{Artifacts: artifacts})
}

func (s *apiServer) handleArtifactItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/artifacts/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "download" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	artifact, err := s.daemon.recs.GetArtifact(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if artifact == nil {
		s.writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(artifact.Path)))
	http.ServeFile(w, r, artifact.Path)
}
