// Package client is the HTTP client for the daemon API. The CLI uses it for
// every command that needs a running daemon; connection failures are
// distinguishable via IsUnavailable so callers can fall back to direct store
// access where that makes sense.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eduassist/internal/api"
)

// ErrUnavailable marks errors caused by the daemon API not being reachable.
var ErrUnavailable = errors.New("daemon API unavailable")

// Client talks to the daemon HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New builds a client for the given bind address ("host:port" or a full URL).
// An empty bind returns nil, which callers treat as "no API configured".
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout - log follow mode blocks until the caller cancels.
		http: &http.Client{},
	}, nil
}

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrUnavailable) || errors.As(err, &opErr)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func decodeError(resp *http.Response) error {
	var payload api.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("api: %s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("api returned status %d", resp.StatusCode)
}

// Status fetches the aggregated daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Health fetches queue and database health.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out)
	return out, err
}

// Jobs lists queue jobs, optionally filtered by statuses.
func (c *Client) Jobs(ctx context.Context, statuses []string) ([]api.Job, error) {
	values := url.Values{}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			values.Add("status", trimmed)
		}
	}
	var out api.JobListResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs", values, nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Job fetches one job by id.
func (c *Client) Job(ctx context.Context, id int64) (api.Job, error) {
	var out api.JobResponse
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out.Job, err
}

// RetryJob resets one failed job back to pending.
func (c *Client) RetryJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/retry", id), nil, nil, nil)
}

// RemoveJob deletes one job.
func (c *Client) RemoveJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ClearJobs removes jobs in bulk. Scope is "completed", "failed", or ""
// for everything.
func (c *Client) ClearJobs(ctx context.Context, scope string) (int64, error) {
	values := url.Values{}
	if scope = strings.TrimSpace(scope); scope != "" {
		values.Set("scope", scope)
	}
	var out api.CountResponse
	err := c.do(ctx, http.MethodDelete, "/api/jobs", values, nil, &out)
	return out.Count, err
}

// ResetStuck returns in-flight jobs to pending.
func (c *Client) ResetStuck(ctx context.Context) (int64, error) {
	var out api.CountResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs/reset-stuck", nil, nil, &out)
	return out.Count, err
}

// GenerateDeck enqueues a slide deck job.
func (c *Client) GenerateDeck(ctx context.Context, req api.GenerateDeckRequest) (api.EnqueueResponse, error) {
	var out api.EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/generate/deck", nil, req, &out)
	return out, err
}

// GenerateDeckBatch enqueues one deck job per topic.
func (c *Client) GenerateDeckBatch(ctx context.Context, req api.GenerateDeckBatchRequest) (api.BatchEnqueueResponse, error) {
	var out api.BatchEnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/generate/deck-batch", nil, req, &out)
	return out, err
}

// GeneratePaper enqueues a question paper job.
func (c *Client) GeneratePaper(ctx context.Context, req api.GeneratePaperRequest) (api.EnqueueResponse, error) {
	var out api.EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/generate/paper", nil, req, &out)
	return out, err
}

// GenerateManual enqueues a lab manual job.
func (c *Client) GenerateManual(ctx context.Context, req api.GenerateManualRequest) (api.EnqueueResponse, error) {
	var out api.EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/generate/labmanual", nil, req, &out)
	return out, err
}

// Questions generates one question set synchronously.
func (c *Client) Questions(ctx context.Context, req api.QuestionsRequest) (api.QuestionsResponse, error) {
	var out api.QuestionsResponse
	err := c.do(ctx, http.MethodPost, "/api/generate/questions", nil, req, &out)
	return out, err
}

// Analyze runs content analysis over pasted text.
func (c *Client) Analyze(ctx context.Context, req api.AnalyzeRequest) (api.AnalyzeResponse, error) {
	var out api.AnalyzeResponse
	err := c.do(ctx, http.MethodPost, "/api/analyze", nil, req, &out)
	return out, err
}

// Assist sends one conversational message.
func (c *Client) Assist(ctx context.Context, message string) (api.AssistResponse, error) {
	var out api.AssistResponse
	err := c.do(ctx, http.MethodPost, "/api/assist", nil, api.AssistRequest{Message: message}, &out)
	return out, err
}

// Logs fetches a page of structured log events.
func (c *Client) Logs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if strings.TrimSpace(q.Component) != "" {
		values.Set("component", q.Component)
	}
	if q.JobID > 0 {
		values.Set("job", strconv.FormatInt(q.JobID, 10))
	}
	var out api.LogStreamResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &out)
	return out, err
}

// LogQuery selects which log events to fetch.
type LogQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	Component string
	JobID     int64
}

// NotifyTest asks the daemon to send a test notification.
func (c *Client) NotifyTest(ctx context.Context) (api.NotifyTestResponse, error) {
	var out api.NotifyTestResponse
	err := c.do(ctx, http.MethodPost, "/api/notify/test", nil, nil, &out)
	return out, err
}

// Artifacts lists finished library artifacts, optionally by kind.
func (c *Client) Artifacts(ctx context.Context, kind string) (api.ArtifactListResponse, error) {
	values := url.Values{}
	if kind = strings.TrimSpace(kind); kind != "" {
		values.Set("kind", kind)
	}
	var out api.ArtifactListResponse
	err := c.do(ctx, http.MethodGet, "/api/artifacts", values, nil, &out)
	return out, err
}

// DownloadArtifact streams one artifact into w.
func (c *Client) DownloadArtifact(ctx context.Context, id string, w io.Writer) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: fmt.Sprintf("/api/artifacts/%s/download", id)})
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

// upload posts a multipart file with optional extra form fields.
func (c *Client) upload(ctx context.Context, path string, query url.Values, filename string, data []byte, fields map[string]string, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
