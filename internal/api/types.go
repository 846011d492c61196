package api

import (
	"time"

	"eduassist/internal/attendance"
	"eduassist/internal/content"
	"eduassist/internal/records"
	"eduassist/internal/timetable"
)

// Job is the transport representation of a generation job.
type Job struct {
	ID              int64      `json:"id"`
	Kind            string     `json:"kind"`
	Topic           string     `json:"topic"`
	Subject         string     `json:"subject,omitempty"`
	Status          string     `json:"status"`
	ProgressStage   string     `json:"progressStage,omitempty"`
	ProgressPercent float64    `json:"progressPercent"`
	ProgressMessage string     `json:"progressMessage,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	NeedsReview     bool       `json:"needsReview,omitempty"`
	ReviewReason    string     `json:"reviewReason,omitempty"`
	StagedPath      string     `json:"stagedPath,omitempty"`
	FinalPath       string     `json:"finalPath,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastHeartbeat   *time.Time `json:"lastHeartbeat,omitempty"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job lookup.
type JobResponse struct {
	Job Job `json:"job"`
}

// EnqueueResponse acknowledges an accepted generation request.
type EnqueueResponse struct {
	JobID  int64  `json:"jobId"`
	Status string `json:"status"`
}

// BatchEnqueueResponse acknowledges a batch of accepted generation requests.
type BatchEnqueueResponse struct {
	JobIDs []int64 `json:"jobIds"`
}

// GenerateDeckRequest enqueues a slide deck job.
type GenerateDeckRequest struct {
	Topic      string `json:"topic"`
	Subject    string `json:"subject,omitempty"`
	Slides     int    `json:"slides,omitempty"`
	SyllabusID string `json:"syllabusId,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// GenerateDeckBatchRequest enqueues one deck job per topic.
type GenerateDeckBatchRequest struct {
	Topics     []string `json:"topics"`
	Subject    string   `json:"subject,omitempty"`
	Slides     int      `json:"slides,omitempty"`
	SyllabusID string   `json:"syllabusId,omitempty"`
	Provider   string   `json:"provider,omitempty"`
}

// GeneratePaperRequest enqueues a question paper job.
type GeneratePaperRequest struct {
	Topic      string `json:"topic"`
	Subject    string `json:"subject,omitempty"`
	Questions  int    `json:"questions,omitempty"`
	Marks      int    `json:"marks,omitempty"`
	Sets       int    `json:"sets,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	SyllabusID string `json:"syllabusId,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// GenerateManualRequest enqueues a lab manual job.
type GenerateManualRequest struct {
	Topic      string `json:"topic"`
	Subject    string `json:"subject,omitempty"`
	SyllabusID string `json:"syllabusId,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// QuestionsRequest asks for a synchronous question set with no artifact.
type QuestionsRequest struct {
	Topic      string `json:"topic"`
	Subject    string `json:"subject,omitempty"`
	Questions  int    `json:"questions,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// QuestionsResponse carries a synchronously generated question set.
type QuestionsResponse struct {
	Set content.QuestionSet `json:"set"`
}

// AnalyzeRequest asks for content analysis of pasted text.
type AnalyzeRequest struct {
	Content  string `json:"content"`
	Provider string `json:"provider,omitempty"`
}

// AnalyzeResponse carries the analysis recommendation.
type AnalyzeResponse struct {
	Analysis content.Analysis `json:"analysis"`
}

// AssistRequest is one conversational message.
type AssistRequest struct {
	Message string `json:"message"`
}

// AssistResponse is the conversational router's answer.
type AssistResponse struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
	JobID   int64  `json:"jobId,omitempty"`
}

// AttendanceCommandRequest is a natural-language attendance instruction.
type AttendanceCommandRequest struct {
	Command string `json:"command"`
}

// AttendanceCommandResponse reports what the interpreter did.
type AttendanceCommandResponse struct {
	Tool      string `json:"tool"`
	Message   string `json:"message"`
	SessionID int64  `json:"sessionId,omitempty"`
	FilePath  string `json:"filePath,omitempty"`
}

// SessionRequest ensures an attendance session exists.
type SessionRequest struct {
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Date    string `json:"date,omitempty"`
}

// MarkRequest marks attendance from a present-roll spec.
type MarkRequest struct {
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Date    string `json:"date,omitempty"`
	Present string `json:"present"`
}

// SummaryResponse is the per-student attendance summary for a class subject.
type SummaryResponse struct {
	Class   string                  `json:"class"`
	Subject string                  `json:"subject"`
	Rows    []attendance.SummaryRow `json:"rows"`
}

// ClassRequest creates a class.
type ClassRequest struct {
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Semester   string `json:"semester,omitempty"`
}

// StudentsAddRequest bulk-adds students by roll range or explicit list.
type StudentsAddRequest struct {
	From     int              `json:"from,omitempty"`
	To       int              `json:"to,omitempty"`
	Students []StudentPayload `json:"students,omitempty"`
}

// StudentPayload is one explicit roster entry.
type StudentPayload struct {
	Roll int    `json:"roll"`
	Name string `json:"name,omitempty"`
}

// StudentsAddResponse reports how many roster rows were inserted.
type StudentsAddResponse struct {
	Added int `json:"added"`
}

// TimetableImportResponse reports an import outcome.
type TimetableImportResponse struct {
	Summary timetable.Summary `json:"summary"`
}

// EventRequest creates a calendar event.
type EventRequest struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	AllDay      bool   `json:"all_day,omitempty"`
}

// TaskRequest creates a task.
type TaskRequest struct {
	Title string `json:"title"`
	Due   string `json:"due,omitempty"`
}

// RecordIDResponse acknowledges an inserted records row.
type RecordIDResponse struct {
	ID int64 `json:"id"`
}

// SyllabusListResponse lists stored syllabus documents.
type SyllabusListResponse struct {
	Docs []records.SyllabusDoc `json:"docs"`
}

// SyllabusSearchResponse carries scored page matches.
type SyllabusSearchResponse struct {
	Matches []SyllabusMatch `json:"matches"`
}

// SyllabusMatch is one scored syllabus page.
type SyllabusMatch struct {
	PageNo  int    `json:"pageNo"`
	Score   int    `json:"score"`
	Snippet string `json:"snippet"`
}

// SessionResponse wraps an ensured attendance session.
type SessionResponse struct {
	Session records.AttendanceSession `json:"session"`
}

// MarkResponse wraps a mark operation outcome.
type MarkResponse struct {
	Result attendance.MarkResult `json:"result"`
}

// ClassListResponse lists classes.
type ClassListResponse struct {
	Classes []records.Class `json:"classes"`
}

// StudentListResponse lists one class roster.
type StudentListResponse struct {
	Students []records.Student `json:"students"`
}

// AcademicListResponse lists academic history rows.
type AcademicListResponse struct {
	Records []records.AcademicRecord `json:"records"`
}

// ResearchListResponse lists research output rows.
type ResearchListResponse struct {
	Records []records.ResearchRecord `json:"records"`
}

// ProfileResponse wraps the teacher profile.
type ProfileResponse struct {
	Profile records.Profile `json:"profile"`
}

// EventListResponse lists calendar events.
type EventListResponse struct {
	Events []records.Event `json:"events"`
}

// EventResponse wraps a stored event.
type EventResponse struct {
	Event records.Event `json:"event"`
}

// TaskListResponse lists tasks.
type TaskListResponse struct {
	Tasks []records.Task `json:"tasks"`
}

// TaskResponse wraps a stored task.
type TaskResponse struct {
	Task records.Task `json:"task"`
}

// ArtifactListResponse lists finished library artifacts.
type ArtifactListResponse struct {
	Artifacts []records.Artifact `json:"artifacts"`
}

// StageHealth reports readiness for a single workflow stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes the workflow manager.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	LastError   string         `json:"lastError,omitempty"`
	QueueStats  map[string]int `json:"queueStats,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
}

// DependencyStatus reports availability of one external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// DaemonStatus is the aggregated daemon status payload.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	QueueDBPath   string             `json:"queueDbPath"`
	RecordsDBPath string             `json:"recordsDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	Workflow      WorkflowStatus     `json:"workflow"`
	Dependencies  []DependencyStatus `json:"dependencies,omitempty"`
}

// QueueHealth summarizes queue row counts by broad state.
type QueueHealth struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}

// DatabaseHealth reports queue database diagnostics.
type DatabaseHealth struct {
	DBPath           string   `json:"dbPath"`
	DatabaseExists   bool     `json:"databaseExists"`
	DatabaseReadable bool     `json:"databaseReadable"`
	SchemaVersion    string   `json:"schemaVersion"`
	TableExists      bool     `json:"tableExists"`
	MissingColumns   []string `json:"missingColumns,omitempty"`
	IntegrityCheck   bool     `json:"integrityCheck"`
	TotalJobs        int      `json:"totalJobs"`
	Error            string   `json:"error,omitempty"`
}

// HealthResponse is the aggregated health payload.
type HealthResponse struct {
	Healthy  bool           `json:"healthy"`
	Queue    QueueHealth    `json:"queue"`
	Database DatabaseHealth `json:"database"`
}

// LogEvent is one structured log line.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	JobID         int64             `json:"jobId,omitempty"`
	Lane          string            `json:"lane,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is a page of log events plus the cursor for the next poll.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// NotifyTestResponse reports the outcome of a test notification.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
