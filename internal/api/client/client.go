// Package client implements the report backend against a remote
// `perfsight serve` instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/retry"
)

const defaultTimeout = 30 * time.Second

// Client talks to the perfsight HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	retry   retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the retry policy for GET requests. Without it every
// request is attempted once.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid server url %q: %w", baseURL, domain.ErrInvalidInput)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
		retry:   retry.Policy{Attempts: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiError struct {
	Error string `json:"error"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type pathResponse struct {
	Path string `json:"path"`
}

type countResponse struct {
	Count int `json:"count"`
}

// do sends a JSON request and decodes a JSON response into out. A nil out
// discards the body. GET requests follow the retry policy.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if method != http.MethodGet {
		return c.send(ctx, method, path, body, out)
	}
	return retry.Do(ctx, c.retry, nil, func(ctx context.Context) error {
		err := c.send(ctx, method, path, nil, out)
		if err != nil && retry.IsTransient(err) {
			c.log.Debug("api call failed, retrying", zap.String("path", path), zap.Error(err))
		}
		return err
	})
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

// statusError maps a failed response to a domain sentinel where one applies.
func statusError(method, path string, resp *http.Response) error {
	var body apiError
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("client: %s %s: %s: %w", method, path, msg, domain.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("client: %s %s: %s: %w", method, path, msg, domain.ErrInvalidInput)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("client: %s %s: %s: %w", method, path, msg, retry.ErrUnavailable)
	}
	return fmt.Errorf("client: %s %s: %s", method, path, msg)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// --- reports ---

func (c *Client) GetReportDetail(ctx context.Context, id int64) (*domain.Report, error) {
	var r domain.Report
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/reports/%d", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) GetReports(ctx context.Context) ([]domain.ReportSummary, error) {
	var out []domain.ReportSummary
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetKnownTags(ctx context.Context) ([]domain.TagStat, error) {
	var out []domain.TagStat
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveReport(ctx context.Context, r *domain.Report) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports", r, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/reports/%d", id), nil, nil)
}

func (c *Client) UpdateReportTags(ctx context.Context, id int64, tags []string) error {
	body := struct {
		Tags []string `json:"tags"`
	}{tags}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/reports/%d/tags", id), body, nil)
}

func (c *Client) UpdateReportTitle(ctx context.Context, id int64, title string) error {
	body := struct {
		Title string `json:"title"`
	}{title}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/reports/%d/title", id), body, nil)
}

func (c *Client) UpdateReportFolder(ctx context.Context, id int64, folder string) error {
	body := struct {
		Folder string `json:"folder"`
	}{folder}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/reports/%d/folder", id), body, nil)
}

func (c *Client) DeleteReports(ctx context.Context, ids []int64) (int, error) {
	body := struct {
		IDs []int64 `json:"ids"`
	}{ids}
	var out countResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports/delete", body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) UpdateReportsFolder(ctx context.Context, ids []int64, folder string) (int, error) {
	body := struct {
		IDs    []int64 `json:"ids"`
		Folder string  `json:"folder"`
	}{ids, folder}
	var out countResponse
	if err := c.do(ctx, http.MethodPut, "/api/reports/folder", body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// --- folders ---

func (c *Client) ListFolders(ctx context.Context) ([]domain.FolderInfo, error) {
	var out []domain.FolderInfo
	if err := c.do(ctx, http.MethodGet, "/api/folders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	body := struct {
		Parent string `json:"parent"`
		Name   string `json:"name"`
	}{parent, name}
	var out pathResponse
	if err := c.do(ctx, http.MethodPost, "/api/folders", body, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

func (c *Client) GetFolderStats(ctx context.Context, path string) (*domain.FolderStats, error) {
	var out domain.FolderStats
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodGet, "/api/folders/stats?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameFolder(ctx context.Context, path, newName string) (string, error) {
	body := struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}{path, newName}
	var out pathResponse
	if err := c.do(ctx, http.MethodPut, "/api/folders/rename", body, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

func (c *Client) DeleteFolder(ctx context.Context, path string, strategy domain.FolderDeleteStrategy) (domain.FolderDeleteResult, error) {
	var out domain.FolderDeleteResult
	q := url.Values{"path": {path}}
	if strategy != "" {
		q.Set("strategy", string(strategy))
	}
	if err := c.do(ctx, http.MethodDelete, "/api/folders?"+q.Encode(), nil, &out); err != nil {
		return domain.FolderDeleteResult{}, err
	}
	return out, nil
}

// --- comparisons ---

func (c *Client) GetComparisonDetail(ctx context.Context, id int64) (*domain.ComparisonConfig, error) {
	var out domain.ComparisonConfig
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/comparisons/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComparisons(ctx context.Context) ([]domain.ComparisonSummary, error) {
	var out []domain.ComparisonSummary
	if err := c.do(ctx, http.MethodGet, "/api/comparisons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComparison(ctx context.Context, cfg *domain.ComparisonConfig) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/api/comparisons", cfg, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) DeleteComparison(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/comparisons/%d", id), nil, nil)
}

func (c *Client) UpdateComparisonConfig(ctx context.Context, id int64, baselineID *int64, cpuSelections, memSelections map[int64][]int) error {
	body := struct {
		BaselineReportID *int64          `json:"baseline_report_id"`
		CPUSelections    map[int64][]int `json:"cpu_selections"`
		MemSelections    map[int64][]int `json:"mem_selections"`
	}{baselineID, cpuSelections, memSelections}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/comparisons/%d/config", id), body, nil)
}

func (c *Client) UpdateComparisonReports(ctx context.Context, id int64, reportIDs []int64, baselineReportID *int64) error {
	body := struct {
		ReportIDs        []int64 `json:"report_ids"`
		BaselineReportID *int64  `json:"baseline_report_id"`
	}{reportIDs, baselineReportID}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/comparisons/%d/reports", id), body, nil)
}
