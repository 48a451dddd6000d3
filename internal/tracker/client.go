// Package tracker is the HTTP client for the QC backend that fronts the
// hosted issue tracker.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/status"
	"github.com/colonyops/qcdash/internal/core/timeline"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks JSON over HTTP to the QC backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client for baseURL.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ListIssues returns the QC issues in a milestone.
func (c *Client) ListIssues(ctx context.Context, name string) ([]milestone.Item, error) {
	var items []milestone.Item
	path := "/api/milestones/" + url.PathEscape(name) + "/issues"
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("list issues for %q: %w", name, err)
	}
	for i := range items {
		if items[i].Milestone == "" {
			items[i].Milestone = name
		}
	}
	return items, nil
}

// Commits returns the tracked file's commits for an issue, newest first.
func (c *Client) Commits(ctx context.Context, number int) ([]timeline.ProviderCommit, error) {
	var commits []timeline.ProviderCommit
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/issues/%d/commits", number), nil, &commits); err != nil {
		return nil, fmt.Errorf("list commits for #%d: %w", number, err)
	}
	return commits, nil
}

type statusRequest struct {
	Issues []int `json:"issues"`
}

// FetchStatuses implements status.Fetcher.
func (c *Client) FetchStatuses(ctx context.Context, numbers []int) (status.BatchResponse, error) {
	var resp status.BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/issues/status", statusRequest{Issues: numbers}, &resp); err != nil {
		return status.BatchResponse{}, err
	}
	return resp, nil
}

type previewResponse struct {
	Markdown string `json:"markdown"`
}

// Preview renders the comment an action would post, as markdown.
func (c *Client) Preview(ctx context.Context, number int, action Action) (string, error) {
	if !action.Kind.IsValid() {
		return "", fmt.Errorf("preview: %w: %q", ErrUnknownAction, action.Kind)
	}
	var resp previewResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/issues/%d/preview/%s", number, action.Kind), action, &resp); err != nil {
		return "", fmt.Errorf("preview %s for #%d: %w", action.Kind, number, err)
	}
	return resp.Markdown, nil
}

// PostResult is the backend's answer to a posted action.
type PostResult struct {
	URL string `json:"url"`
}

// Post performs an action on an issue.
func (c *Client) Post(ctx context.Context, number int, action Action) (PostResult, error) {
	if !action.Kind.IsValid() {
		return PostResult{}, fmt.Errorf("post: %w: %q", ErrUnknownAction, action.Kind)
	}
	var resp PostResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/issues/%d/%s", number, action.Kind), action, &resp); err != nil {
		return PostResult{}, fmt.Errorf("post %s for #%d: %w", action.Kind, number, err)
	}
	return resp, nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bits, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(bits)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "qcdash")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("tracker request")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, resp.Status),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(data []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return fallback
}
