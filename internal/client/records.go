package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eduassist/internal/api"
	"eduassist/internal/calendar"
	"eduassist/internal/records"
)

// AttendanceCommand runs one natural-language attendance instruction.
func (c *Client) AttendanceCommand(ctx context.Context, command string) (api.AttendanceCommandResponse, error) {
	var out api.AttendanceCommandResponse
	err := c.do(ctx, http.MethodPost, "/api/attendance/command", nil, api.AttendanceCommandRequest{Command: command}, &out)
	return out, err
}

// AttendanceSession ensures a session row exists.
func (c *Client) AttendanceSession(ctx context.Context, req api.SessionRequest) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/attendance/sessions", nil, req, &out)
	return out, err
}

// AttendanceMark marks one session from a present-roll spec.
func (c *Client) AttendanceMark(ctx context.Context, req api.MarkRequest) (api.MarkResponse, error) {
	var out api.MarkResponse
	err := c.do(ctx, http.MethodPost, "/api/attendance/mark", nil, req, &out)
	return out, err
}

// AttendanceSummary fetches the per-student summary for a class subject.
func (c *Client) AttendanceSummary(ctx context.Context, class, subject string) (api.SummaryResponse, error) {
	values := url.Values{}
	values.Set("class", class)
	if subject = strings.TrimSpace(subject); subject != "" {
		values.Set("subject", subject)
	}
	var out api.SummaryResponse
	err := c.do(ctx, http.MethodGet, "/api/attendance/summary", values, nil, &out)
	return out, err
}

// AttendanceExport streams the attendance register CSV into w.
func (c *Client) AttendanceExport(ctx context.Context, class, subject string, w io.Writer) error {
	if c == nil {
		return ErrUnavailable
	}
	values := url.Values{}
	values.Set("class", class)
	if subject = strings.TrimSpace(subject); subject != "" {
		values.Set("subject", subject)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/attendance/export", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	c.decorate(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// Classes lists classes.
func (c *Client) Classes(ctx context.Context) ([]records.Class, error) {
	var out api.ClassListResponse
	if err := c.do(ctx, http.MethodGet, "/api/classes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

// AddClass creates a class and returns its id.
func (c *Client) AddClass(ctx context.Context, req api.ClassRequest) (int64, error) {
	var out api.RecordIDResponse
	err := c.do(ctx, http.MethodPost, "/api/classes", nil, req, &out)
	return out.ID, err
}

// Students lists one class roster.
func (c *Client) Students(ctx context.Context, classID int64) ([]records.Student, error) {
	var out api.StudentListResponse
	path := fmt.Sprintf("/api/classes/%d/students", classID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

// AddStudents bulk-adds roster rows and reports how many were inserted.
func (c *Client) AddStudents(ctx context.Context, classID int64, req api.StudentsAddRequest) (int, error) {
	var out api.StudentsAddResponse
	path := fmt.Sprintf("/api/classes/%d/students", classID)
	err := c.do(ctx, http.MethodPost, path, nil, req, &out)
	return out.Added, err
}

// ImportTimetable uploads a timetable CSV.
func (c *Client) ImportTimetable(ctx context.Context, filename string, data []byte, scope, day, mode string) (api.TimetableImportResponse, error) {
	values := url.Values{}
	if scope = strings.TrimSpace(scope); scope != "" {
		values.Set("scope", scope)
	}
	if day = strings.TrimSpace(day); day != "" {
		values.Set("day", day)
	}
	if mode = strings.TrimSpace(mode); mode != "" {
		values.Set("mode", mode)
	}
	var out api.TimetableImportResponse
	err := c.upload(ctx, "/api/timetable/import", values, filename, data, nil, &out)
	return out, err
}

// Events lists calendar events in a window. Empty bounds use the server
// default of today through the next seven days.
func (c *Client) Events(ctx context.Context, from, to string) ([]records.Event, error) {
	values := url.Values{}
	if from = strings.TrimSpace(from); from != "" {
		values.Set("from", from)
	}
	if to = strings.TrimSpace(to); to != "" {
		values.Set("to", to)
	}
	var out api.EventListResponse
	if err := c.do(ctx, http.MethodGet, "/api/events", values, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// AddEvent creates a calendar event.
func (c *Client) AddEvent(ctx context.Context, req api.EventRequest) (records.Event, error) {
	var out api.EventResponse
	err := c.do(ctx, http.MethodPost, "/api/events", nil, req, &out)
	return out.Event, err
}

// Tasks lists tasks; all includes completed ones.
func (c *Client) Tasks(ctx context.Context, all bool) ([]records.Task, error) {
	values := url.Values{}
	if all {
		values.Set("all", "1")
	}
	var out api.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks", values, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// AddTask creates a task.
func (c *Client) AddTask(ctx context.Context, req api.TaskRequest) (records.Task, error) {
	var out api.TaskResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks", nil, req, &out)
	return out.Task, err
}

// CompleteTask marks one task done.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// TodayOverview fetches the teacher's day at a glance.
func (c *Client) TodayOverview(ctx context.Context) (calendar.Overview, error) {
	var out calendar.Overview
	err := c.do(ctx, http.MethodGet, "/api/today-overview", nil, nil, &out)
	return out, err
}

// Profile fetches the teacher profile.
func (c *Client) Profile(ctx context.Context) (records.Profile, error) {
	var out api.ProfileResponse
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, nil, &out)
	return out.Profile, err
}

// SaveProfile replaces the teacher profile.
func (c *Client) SaveProfile(ctx context.Context, profile records.Profile) (records.Profile, error) {
	var out api.ProfileResponse
	err := c.do(ctx, http.MethodPut, "/api/profile", nil, profile, &out)
	return out.Profile, err
}

// Academics lists academic history rows.
func (c *Client) Academics(ctx context.Context) ([]records.AcademicRecord, error) {
	var out api.AcademicListResponse
	if err := c.do(ctx, http.MethodGet, "/api/academics", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// AddAcademic creates one academic history row.
func (c *Client) AddAcademic(ctx context.Context, record records.AcademicRecord) (int64, error) {
	var out api.RecordIDResponse
	err := c.do(ctx, http.MethodPost, "/api/academics", nil, record, &out)
	return out.ID, err
}

// Research lists research output rows.
func (c *Client) Research(ctx context.Context) ([]records.ResearchRecord, error) {
	var out api.ResearchListResponse
	if err := c.do(ctx, http.MethodGet, "/api/research", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// AddResearch creates one research output row.
func (c *Client) AddResearch(ctx context.Context, record records.ResearchRecord) (int64, error) {
	var out api.RecordIDResponse
	err := c.do(ctx, http.MethodPost, "/api/research", nil, record, &out)
	return out.ID, err
}

// UploadSyllabus stores a syllabus PDF and returns the indexed document.
func (c *Client) UploadSyllabus(ctx context.Context, filename, subject string, data []byte) (records.SyllabusDoc, error) {
	fields := map[string]string{}
	if subject = strings.TrimSpace(subject); subject != "" {
		fields["subject"] = subject
	}
	var out records.SyllabusDoc
	err := c.upload(ctx, "/api/syllabus", nil, filename, data, fields, &out)
	return out, err
}

// SyllabusDocs lists stored syllabus documents.
func (c *Client) SyllabusDocs(ctx context.Context) ([]records.SyllabusDoc, error) {
	var out api.SyllabusListResponse
	if err := c.do(ctx, http.MethodGet, "/api/syllabus", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Docs, nil
}

// SearchSyllabus scores pages of one syllabus document against a query.
func (c *Client) SearchSyllabus(ctx context.Context, docID, query string, limit int) ([]api.SyllabusMatch, error) {
	values := url.Values{}
	values.Set("q", query)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out api.SyllabusSearchResponse
	path := fmt.Sprintf("/api/syllabus/%s/search", url.PathEscape(docID))
	if err := c.do(ctx, http.MethodGet, path, values, nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}
