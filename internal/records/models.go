package records

import "time"

// Profile is the single-row teacher profile.
type Profile struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Title      string    `json:"title"`
	Bio        string    `json:"bio"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AcademicRecord describes one teaching engagement.
type AcademicRecord struct {
	ID     int64  `json:"id"`
	Year   string `json:"year"`
	Term   string `json:"term"`
	Course string `json:"course"`
	Role   string `json:"role"`
	Notes  string `json:"notes"`
}

// ResearchRecord describes one publication or project.
type ResearchRecord struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Venue  string `json:"venue"`
	Year   int    `json:"year"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Class is a taught class with an enrolled roster.
type Class struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Semester   string `json:"semester"`
}

// Student is one roster entry, unique per (class, roll).
type Student struct {
	ID      int64  `json:"id"`
	ClassID int64  `json:"class_id"`
	Roll    int    `json:"roll"`
	Name    string `json:"name"`
}

// Attendance statuses.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
)

// AttendanceSession is one class sitting, unique per (class, subject, date).
type AttendanceSession struct {
	ID      int64  `json:"id"`
	ClassID int64  `json:"class_id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// AttendanceRecord is one student's status within a session.
type AttendanceRecord struct {
	SessionID int64  `json:"session_id"`
	Roll      int    `json:"roll"`
	Status    string `json:"status"`
}

// AttendanceTotal aggregates one student's presence across sessions.
type AttendanceTotal struct {
	Roll    int `json:"roll"`
	Present int `json:"present"`
	Total   int `json:"total"`
}

// Event sources.
const (
	EventSourceManual     = "manual"
	EventSourceGridImport = "grid_import"
	EventSourceRowImport  = "row_import"
)

// Event is a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	AllDay      bool      `json:"all_day"`
	Source      string    `json:"source"`
}

// Task is a to-do item with an optional due date.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Due   string `json:"due,omitempty"`
	Done  bool   `json:"done"`
}

// SyllabusDoc is an uploaded syllabus with extracted page text.
type SyllabusDoc struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Pages      int       `json:"pages"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SyllabusPage is one page of extracted syllabus text.
type SyllabusPage struct {
	DocID  string `json:"doc_id"`
	PageNo int    `json:"page_no"`
	Text   string `json:"text"`
}

// Artifact records a generated file placed in the library.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject,omitempty"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	JobID     int64     `json:"job_id,omitempty"`
}
