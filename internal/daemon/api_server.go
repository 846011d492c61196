package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"eduassist/internal/api"
	"eduassist/internal/config"
	"eduassist/internal/logging"
	"eduassist/internal/services"
)

// maxRequestBody caps JSON and upload request bodies.
const maxRequestBody = 32 << 20

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon
	cfg    *config.Config

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logger,
		daemon: d,
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/logs", srv.handleLogs)
	mux.HandleFunc("/api/generate/deck", srv.handleGenerateDeck)
	mux.HandleFunc("/api/generate/deck-batch", srv.handleGenerateDeckBatch)
	mux.HandleFunc("/api/generate/paper", srv.handleGeneratePaper)
	mux.HandleFunc("/api/generate/labmanual", srv.handleGenerateManual)
	mux.HandleFunc("/api/generate/questions", srv.handleGenerateQuestions)
	mux.HandleFunc("/api/analyze", srv.handleAnalyze)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/reset-stuck", srv.handleJobsReset)
	mux.HandleFunc("/api/jobs/", srv.handleJobItem)
	mux.HandleFunc("/api/artifacts", srv.handleArtifacts)
	mux.HandleFunc("/api/artifacts/", srv.handleArtifactItem)
	mux.HandleFunc("/api/assist", srv.handleAssist)
	mux.HandleFunc("/api/attendance/command", srv.handleAttendanceCommand)
	mux.HandleFunc("/api/attendance/sessions", srv.handleAttendanceSessions)
	mux.HandleFunc("/api/attendance/mark", srv.handleAttendanceMark)
	mux.HandleFunc("/api/attendance/summary", srv.handleAttendanceSummary)
	mux.HandleFunc("/api/attendance/export", srv.handleAttendanceExport)
	mux.HandleFunc("/api/classes", srv.handleClasses)
	mux.HandleFunc("/api/classes/", srv.handleClassItem)
	mux.HandleFunc("/api/timetable/import", srv.handleTimetableImport)
	mux.HandleFunc("/api/events", srv.handleEvents)
	mux.HandleFunc("/api/tasks", srv.handleTasks)
	mux.HandleFunc("/api/tasks/", srv.handleTaskItem)
	mux.HandleFunc("/api/today-overview", srv.handleTodayOverview)
	mux.HandleFunc("/api/profile", srv.handleProfile)
	mux.HandleFunc("/api/academics", srv.handleAcademics)
	mux.HandleFunc("/api/research", srv.handleResearch)
	mux.HandleFunc("/api/syllabus", srv.handleSyllabus)
	mux.HandleFunc("/api/syllabus/", srv.handleSyllabusItem)
	mux.HandleFunc("/api/notify/test", srv.handleNotifyTest)

	srv.server = &http.Server{
		Handler:           corsMiddleware(authMiddleware(srv.token, mux.ServeHTTP)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:      dep.Name,
			Available: dep.Available,
			Detail:    dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		QueueDBPath:   status.QueueDBPath,
		RecordsDBPath: status.RecordsDBPath,
		LockFilePath:  status.LockFilePath,
		Workflow:      api.FromStatusSummary(status.Workflow),
		Dependencies:  deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	queueHealth, err := s.daemon.QueueHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dbHealth, err := s.daemon.DatabaseHealth(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Healthy:  dbHealth.Error == "" && dbHealth.IntegrityCheck,
		Queue:    api.FromQueueHealth(queueHealth),
		Database: api.FromDatabaseHealth(dbHealth),
	})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: nil, Next: 0})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")
	tail := query.Get("tail") == "1" || strings.EqualFold(query.Get("tail"), "true")

	var filterJob int64
	if value := strings.TrimSpace(query.Get("job")); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			filterJob = parsed
		}
	}
	component := strings.TrimSpace(query.Get("component"))

	var (
		raw  []logging.LogEvent
		next uint64
	)
	if tail && since == 0 && !follow {
		raw, next = hub.Tail(limit)
	} else {
		var fetchErr error
		raw, next, fetchErr = hub.Fetch(r.Context(), since, limit, follow)
		if fetchErr != nil && !errors.Is(fetchErr, context.Canceled) && !errors.Is(fetchErr, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, fetchErr.Error())
			return
		}
	}

	converted := api.FromLogEvents(raw)
	filtered := make([]api.LogEvent, 0, len(converted))
	for _, evt := range converted {
		if filterJob != 0 && evt.JobID != filterJob {
			continue
		}
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		filtered = append(filtered, evt)
	}

	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{
		Events: filtered,
		Next:   next,
	})
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Message: message})
}

// decodeJSON reads a JSON request body into target, rejecting unknown noise
// only by size, not by field.
func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// writeServiceError maps classified service errors onto HTTP statuses.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConfiguration):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrProvider), errors.Is(err, services.ErrTransient):
		status = http.StatusBadGateway
	case errors.Is(err, services.ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
