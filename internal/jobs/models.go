package jobs

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDrafting     Status = "drafting"
	StatusDrafted      Status = "drafted"
	StatusRendering    Status = "rendering"
	StatusRendered     Status = "rendered"
	StatusIllustrating Status = "illustrating"
	StatusIllustrated  Status = "illustrated"
	StatusOrganizing   Status = "organizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// Kind identifies the artifact a job produces.
type Kind string

const (
	KindDeck          Kind = "deck"
	KindQuestionPaper Kind = "question_paper"
	KindLabManual     Kind = "lab_manual"
)

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusDrafting,
	StatusDrafted,
	StatusRendering,
	StatusRendered,
	StatusIllustrating,
	StatusIllustrated,
	StatusOrganizing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDrafting:     {},
	StatusRendering:    {},
	StatusIllustrating: {},
	StatusOrganizing:   {},
}

var allKinds = []Kind{KindDeck, KindQuestionPaper, KindLabManual}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Params carries the request parameters attached to a job, serialized to the
// params_json column.
type Params struct {
	Slides     int    `json:"slides,omitempty"`
	Questions  int    `json:"questions,omitempty"`
	Marks      int    `json:"marks,omitempty"`
	Sets       int    `json:"sets,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	SyllabusID string `json:"syllabus_id,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Job represents a generation job persisted in SQLite.
type Job struct {
	ID              int64
	Kind            Kind
	Topic           string
	Subject         string
	ParamsJSON      string
	Status          Status
	PlanJSON        string
	StagedPath      string
	FinalPath       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	NeedsReview     bool
	ReviewReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// Params decodes the params_json column, returning zero values when unset.
func (j Job) Params() Params {
	var params Params
	if strings.TrimSpace(j.ParamsJSON) == "" {
		return params
	}
	_ = json.Unmarshal([]byte(j.ParamsJSON), &params)
	return params
}

// SetParams serializes params onto the job.
func (j *Job) SetParams(params Params) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return err
	}
	j.ParamsJSON = string(encoded)
	return nil
}

// SetProgress updates all three progress fields atomically.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.ProgressStage = "Failed"
}

// SetReview marks the job as needing human attention.
func (j *Job) SetReview(reason string) {
	j.Status = StatusReview
	j.NeedsReview = true
	j.ReviewReason = reason
	j.ProgressMessage = reason
	j.LastHeartbeat = nil
	j.ProgressStage = "Review"
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "planned"
	case StatusCompleted:
		return "final"
	default:
		if _, ok := statusSet[s]; ok {
			return string(s)
		}
		return ""
	}
}

// ProcessingLane partitions workflow into the user-facing drafting stage and
// background rendering work.
type ProcessingLane string

const (
	LaneForeground ProcessingLane = "foreground"
	LaneBackground ProcessingLane = "background"
)

// LaneForJob maps a job to its processing lane for observability purposes.
func LaneForJob(job *Job) ProcessingLane {
	if job == nil {
		return LaneForeground
	}
	switch job.Status {
	case StatusPending, StatusDrafting:
		return LaneForeground
	default:
		return LaneBackground
	}
}
