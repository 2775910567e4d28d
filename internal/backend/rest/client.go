// Package rest implements the service.Service interface against a REST Task
// Service exposing GET/POST /tasks and PUT/DELETE /tasks/{id}.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasklist/internal/config"
	"tasklist/internal/service"
)

// maxErrorBody caps how much of a failed response body is kept in a StatusError.
const maxErrorBody = 512

// StatusError is returned when the Task Service answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps 404 onto service.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return service.ErrNotFound
	}
	return nil
}

var _ service.Service = (*Client)(nil)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a REST client from config.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return NewWithHTTPClient(cfg.BaseURL, cfg.Timeout, http.DefaultClient, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// A zero timeout means requests run until the server answers or ctx ends.
func NewWithHTTPClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL: %s", baseURL)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var wire []wireTask
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &wire); err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(wire))
	for _, w := range wire {
		result = append(result, w.toTask())
	}
	return result, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, title string) (service.Task, error) {
	var wire wireTask
	body := createRequest{Title: title, Completed: false}
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &wire); err != nil {
		return service.Task{}, err
	}
	return wire.toTask(), nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if patch.IsEmpty() {
		return service.Task{}, errors.New("empty update")
	}
	var wire wireTask
	body := updateRequest{Title: patch.Title, Completed: patch.Completed}
	if err := c.do(ctx, http.MethodPut, taskPath(id), body, &wire); err != nil {
		return service.Task{}, err
	}
	return wire.toTask(), nil
}

// DeleteTask implements service.Service. The response body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// do sends one request and decodes a 2xx JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapError(method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("task service request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// wrapError turns transport failures into short messages while keeping
// context errors inspectable with errors.Is.
func wrapError(method, path string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s %s: request timed out: %w", method, path, context.DeadlineExceeded)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s %s: %w", method, path, context.Canceled)
	default:
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
}
