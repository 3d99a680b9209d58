package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/metrics"
)

// DefaultClientInfo identifies this service in backend request logs.
const DefaultClientInfo = "nkiru-web@1.0.0"

// Config holds hosted backend connection settings.
type Config struct {
	URL        string        `yaml:"url"`
	AnonKey    string        `yaml:"anon_key"`
	Timeout    time.Duration `yaml:"timeout"`
	ClientInfo string        `yaml:"client_info"`
}

// HealthStatus summarises recent backend calls.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// Client talks to the row-level REST API of the hosted database.
type Client struct {
	baseURL    string
	anonKey    string
	clientInfo string
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewClient creates a new REST client. The base URL is the project URL; the
// /rest/v1 prefix is appended.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url must be a valid URL: %q", cfg.URL)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	info := cfg.ClientInfo
	if info == "" {
		info = DefaultClientInfo
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		anonKey:    cfg.AnonKey,
		clientInfo: info,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}, nil
}

// Request describes one call against a table.
type Request struct {
	Method string
	Table  string
	Query  url.Values
	Body   any
	Prefer []string
}

// Response is a successful backend answer.
type Response struct {
	Status       int
	Body         []byte
	ContentRange string
}

// Do performs req. Transport failures and non-2xx answers are returned as
// *apperr.BackendError; encoding req.Body or building the request can fail
// with a plain wrapped error before anything is sent.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	op := strings.ToLower(req.Method)
	metrics.BackendRequestsTotal.WithLabelValues(req.Table, op).Inc()
	defer func() {
		metrics.BackendLatency.WithLabelValues(req.Table, op).Observe(time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + "/" + req.Table
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	httpReq.Header.Set("X-Client-Info", c.clientInfo)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.Prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(req.Prefer, ","))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure()
		return nil, apperr.TransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return nil, apperr.TransportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure()
		return nil, parseError(resp.StatusCode, data)
	}

	c.recordSuccess(time.Since(start))
	return &Response{
		Status:       resp.StatusCode,
		Body:         data,
		ContentRange: resp.Header.Get("Content-Range"),
	}, nil
}

// Select fetches rows into dest (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table string, query url.Values, dest any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Table: table, Query: query})
	if err != nil {
		return err
	}
	return decode(resp.Body, dest)
}

// Insert adds rows and decodes the stored representation into dest.
func (c *Client) Insert(ctx context.Context, table string, rows any, dest any) error {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Table:  table,
		Body:   rows,
		Prefer: []string{"return=representation"},
	})
	if err != nil {
		return err
	}
	return decode(resp.Body, dest)
}

// Update patches the rows matched by query and decodes them into dest.
func (c *Client) Update(ctx context.Context, table string, query url.Values, patch any, dest any) error {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPatch,
		Table:  table,
		Query:  query,
		Body:   patch,
		Prefer: []string{"return=representation"},
	})
	if err != nil {
		return err
	}
	return decode(resp.Body, dest)
}

// Delete removes the rows matched by query.
func (c *Client) Delete(ctx context.Context, table string, query url.Values) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Table: table, Query: query})
	return err
}

// Count returns the exact row count of table without fetching rows.
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	resp, err := c.Do(ctx, Request{
		Method: http.MethodHead,
		Table:  table,
		Query:  url.Values{"select": {"*"}},
		Prefer: []string{"count=exact"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.ContentRange)
}

// Eq builds a column=eq.value filter.
func Eq(column, value string) url.Values {
	return url.Values{column: {"eq." + value}}
}

// GetHealth returns the client's health status.
func (c *Client) GetHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Close cleans up resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func parseError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	be := &apperr.BackendError{Kind: apperr.KindResponse, Status: status}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		be.Message = strings.TrimSpace(string(body))
		if be.Message == "" {
			be.Message = http.StatusText(status)
		}
		return be
	}
	be.Code = payload.Code
	be.Message = payload.Message
	be.Details = payload.Details
	be.Hint = payload.Hint
	return be
}

func decode(body []byte, dest any) error {
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &apperr.BackendError{
			Kind:    apperr.KindDecode,
			Message: "parse response: " + err.Error(),
			Err:     err,
		}
	}
	return nil
}

// parseContentRange reads the total from "0-9/42" or "*/42".
func parseContentRange(v string) (int64, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 || i == len(v)-1 {
		return 0, &apperr.BackendError{
			Kind:    apperr.KindDecode,
			Message: fmt.Sprintf("invalid content-range %q", v),
		}
	}
	total := v[i+1:]
	if total == "*" {
		return 0, &apperr.BackendError{
			Kind:    apperr.KindDecode,
			Message: "backend did not return an exact count",
		}
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, &apperr.BackendError{
			Kind:    apperr.KindDecode,
			Message: fmt.Sprintf("invalid content-range %q", v),
			Err:     err,
		}
	}
	return n, nil
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.requestCount++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Available = true

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}
	if c.successCount > 0 {
		c.health.Latency = c.totalLatency / time.Duration(c.successCount)
	}
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.requestCount++
	c.health.LastFailureAt = time.Now()

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}
