package daemon

import (
	"net/http"
	"strings"

	"eduassist/internal/api"
	"eduassist/internal/content"
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/logging"
	"eduassist/internal/notifications"
)

func (s *apiServer) handleGenerateDeck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.GenerateDeckRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	job, ok := s.enqueue(w, r, jobs.KindDeck, req.Topic, req.Subject, jobs.Params{
		Slides:     req.Slides,
		SyllabusID: req.SyllabusID,
		Provider:   req.Provider,
	})
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.EnqueueResponse{JobID: job.ID, Status: string(job.Status)})
}

func (s *apiServer) handleGenerateDeckBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.GenerateDeckBatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	topics := make([]string, 0, len(req.Topics))
	for _, topic := range req.Topics {
		if trimmed := strings.TrimSpace(topic); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	if len(topics) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one topic is required")
		return
	}
	ids := make([]int64, 0, len(topics))
	for _, topic := range topics {
		job, ok := s.enqueue(w, r, jobs.KindDeck, topic, req.Subject, jobs.Params{
			Slides:     req.Slides,
			SyllabusID: req.SyllabusID,
			Provider:   req.Provider,
		})
		if !ok {
			return
		}
		ids = append(ids, job.ID)
	}
	s.writeJSON(w, http.StatusAccepted, api.BatchEnqueueResponse{JobIDs: ids})
}

func (s *apiServer) handleGeneratePaper(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.GeneratePaperRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	job, ok := s.enqueue(w, r, jobs.KindQuestionPaper, req.Topic, req.Subject, jobs.Params{
		Questions:  req.Questions,
		Marks:      req.Marks,
		Sets:       req.Sets,
		Difficulty: req.Difficulty,
		SyllabusID: req.SyllabusID,
		Provider:   req.Provider,
	})
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.EnqueueResponse{JobID: job.ID, Status: string(job.Status)})
}

func (s *apiServer) handleGenerateManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.GenerateManualRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	job, ok := s.enqueue(w, r, jobs.KindLabManual, req.Topic, req.Subject, jobs.Params{
		SyllabusID: req.SyllabusID,
		Provider:   req.Provider,
	})
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.EnqueueResponse{JobID: job.ID, Status: string(job.Status)})
}

// enqueue validates and stores one generation job, emitting the queued
// notification. A false return means an error response was already written.
func (s *apiServer) enqueue(w http.ResponseWriter, r *http.Request, kind jobs.Kind, topic, subject string, params jobs.Params) (*jobs.Job, bool) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic is required")
		return nil, false
	}
	job, err := s.daemon.store.NewJob(r.Context(), kind, topic, strings.TrimSpace(subject), params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if notifier := s.daemon.services.Notifier; notifier != nil {
		if err := notifier.Publish(r.Context(), notifications.EventGenerationQueued, notifications.Payload{
			"kind":  string(kind),
			"topic": topic,
		}); err != nil {
			s.log().Warn("queued notification failed", logging.Error(err))
		}
	}
	s.log().Info("generation job queued",
		logging.String("kind", string(kind)),
		logging.String("topic", topic),
		logging.Int64(logging.FieldJobID, job.ID),
	)
	return job, true
}

func (s *apiServer) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	router := s.daemon.services.Router
	if router == nil || !router.Available() {
		s.writeError(w, http.StatusServiceUnavailable, "no language model provider configured")
		return
	}
	var req api.QuestionsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	sections := content.DefaultSectionPlan()
	if req.Questions > 0 {
		sections = content.SectionPlanFor(req.Questions)
	}
	paperReq := content.PaperRequest{
		Topic:      topic,
		Subject:    strings.TrimSpace(req.Subject),
		Sections:   sections,
		Difficulty: req.Difficulty,
		Sets:       1,
	}
	payload, err := router.Complete(r.Context(), req.Provider, llm.Request{
		Prompt:   content.BuildQuestionPrompt(paperReq, 1),
		JSONOnly: true,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	set, err := content.ParseQuestionSet(paperReq, 1, payload)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.QuestionsResponse{Set: *set})
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	router := s.daemon.services.Router
	if router == nil || !router.Available() {
		s.writeError(w, http.StatusServiceUnavailable, "no language model provider configured")
		return
	}
	var req api.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	payload, err := router.Complete(r.Context(), req.Provider, llm.Request{
		Prompt:   content.BuildAnalyzePrompt(req.Content),
		JSONOnly: true,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	analysis, err := content.ParseAnalysis(payload, s.cfg.Generation.MaxSlides)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AnalyzeResponse{Analysis: *analysis})
}

func (s *apiServer) handleAssist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	assistant := s.daemon.services.Assistant
	if assistant == nil {
		s.writeError(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}
	var req api.AssistRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	resp, err := assistant.Handle(r.Context(), req.Message)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AssistResponse{
		Intent:  resp.Intent,
		Message: resp.Message,
		JobID:   resp.JobID,
	})
}
