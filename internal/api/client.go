// ABOUTME: HTTP client for the chat, upload, todo, and event endpoints
// ABOUTME: Applies bearer auth and per-call timeouts, maps failures to the error taxonomy

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 4096

// Options configures a Client.
type Options struct {
	BaseURL       string
	Token         string
	AnswerTimeout time.Duration
	UploadTimeout time.Duration
	TasksTimeout  time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to the assistant backend over HTTP.
type Client struct {
	baseURL       string
	token         string
	answerTimeout time.Duration
	uploadTimeout time.Duration
	tasksTimeout  time.Duration
	http          *http.Client
	logger        *slog.Logger
}

// New creates a Client. BaseURL must be an absolute http or https URL.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must use http or https scheme")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: the event stream is long-lived. Bounded
		// calls get their deadline from the request context instead.
		httpClient = &http.Client{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		token:         opts.Token,
		answerTimeout: opts.AnswerTimeout,
		uploadTimeout: opts.UploadTimeout,
		tasksTimeout:  opts.TasksTimeout,
		http:          httpClient,
		logger:        logger.With("component", "api"),
	}, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask sends a question to the question-answering service and decodes the answer.
// A missing "sources" field decodes as no sources; a missing "answer" is malformed.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	ctx, cancel := withTimeout(ctx, c.answerTimeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "asking question")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, bodyError(ctx, "decoding answer", err)
	}
	if decoded.Answer == nil {
		return nil, fmt.Errorf("decoding answer: %w: missing answer field", ErrMalformedResponse)
	}

	c.logger.Debug("answer received", "sources", len(decoded.Sources))
	return &Answer{Text: *decoded.Answer, Sources: decoded.Sources}, nil
}

// Upload submits a document as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*Ack, error) {
	ctx, cancel := withTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, "uploading "+filename)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ack := &Ack{Filename: filename}
	if err := json.NewDecoder(resp.Body).Decode(ack); err != nil && !errors.Is(err, io.EOF) {
		// The status code is the acknowledgement; the body is informational.
		c.logger.Debug("ignoring undecodable upload body", "filename", filename, "error", err)
	}
	return ack, nil
}

// Tasks fetches the full task list for ownerID.
func (c *Client) Tasks(ctx context.Context, ownerID string) ([]Task, error) {
	ctx, cancel := withTimeout(ctx, c.tasksTimeout)
	defer cancel()

	path := "/todos?user_id=" + url.QueryEscape(ownerID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, "fetching tasks")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tasks []Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, bodyError(ctx, "decoding tasks", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// OpenEvents opens the push channel and returns the raw event-stream body.
// The stream lives until ctx is cancelled or the body is closed.
func (c *Client) OpenEvents(ctx context.Context) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(req, "opening event stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// newRequest builds a request against the base URL with auth applied.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and turns transport failures and non-2xx statuses into taxonomy errors.
// On success the caller owns resp.Body.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "error", err)
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := &StatusError{Code: resp.StatusCode, Message: readErrorMessage(resp)}
		c.logger.Debug("request rejected", "op", op, "status", resp.StatusCode)
		return nil, fmt.Errorf("%s: %w", op, statusErr)
	}

	return resp, nil
}

// readErrorMessage extracts {"error": "..."} from a failed response when present.
func readErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp map[string]any
	if json.Unmarshal(data, &errResp) == nil {
		if msg, ok := errResp["error"].(string); ok {
			return msg
		}
		if msg, ok := errResp["detail"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(data))
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
