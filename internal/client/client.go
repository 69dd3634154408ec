// Package client submits task batches to the analysis API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"task-prioritizer-backend/internal/tasks"
)

// ErrAnalyzeFailed covers every transport or server failure. The response
// body is not interpreted.
var ErrAnalyzeFailed = errors.New("failed to analyze tasks")

const defaultTimeout = 30 * time.Second

type Client struct {
	BaseURL    string
	HTTP       *http.Client
	AppVersion string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	Tasks    []tasks.Task   `json:"tasks"`
	Strategy tasks.Strategy `json:"strategy,omitempty"`
}

// Analyze validates the batch locally and asks the server to order it. No
// request is sent when the batch is empty or invalid.
func (c *Client) Analyze(ctx context.Context, ts []tasks.Task, strategy tasks.Strategy) (tasks.AnalysisResult, error) {
	if err := checkBatch(ts, strategy); err != nil {
		return tasks.AnalysisResult{}, err
	}

	var res tasks.AnalysisResult
	if err := c.post(ctx, "/analyze/", analyzeRequest{Tasks: ts, Strategy: strategy}, &res); err != nil {
		return tasks.AnalysisResult{}, err
	}
	return res, nil
}

// Suggest asks the server for the top tasks to work on.
func (c *Client) Suggest(ctx context.Context, ts []tasks.Task, strategy tasks.Strategy) ([]tasks.Suggestion, error) {
	if err := checkBatch(ts, strategy); err != nil {
		return nil, err
	}

	var res tasks.SuggestResponse
	if err := c.post(ctx, "/suggest/", analyzeRequest{Tasks: ts, Strategy: strategy}, &res); err != nil {
		return nil, err
	}
	return res.Suggestions, nil
}

func checkBatch(ts []tasks.Task, strategy tasks.Strategy) error {
	if strategy != "" && !strategy.Valid() {
		return fmt.Errorf("%w: %q", tasks.ErrUnknownStrategy, string(strategy))
	}
	return tasks.ValidateTasks(ts)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAnalyzeFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform", "cli")
	if c.AppVersion != "" {
		req.Header.Set("X-App-Version", c.AppVersion)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAnalyzeFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrAnalyzeFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrAnalyzeFailed, err)
	}
	return nil
}
