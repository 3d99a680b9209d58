package analytics

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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/nkiru/internal/core/apperr"
	"github.com/vietddude/nkiru/internal/core/domain"
	"github.com/vietddude/nkiru/internal/core/retry"
	"github.com/vietddude/nkiru/internal/metrics"
)

// Sink accepts events without ever reporting failure to the caller.
type Sink interface {
	Track(ctx context.Context, event domain.AnalyticsEvent)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Track(context.Context, domain.AnalyticsEvent) {}

// Config holds analytics delivery settings.
type Config struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	MeasurementID string        `yaml:"measurement_id"`
	APISecret     string        `yaml:"api_secret"`
	Timeout       time.Duration `yaml:"timeout"`
	ReadyAttempts int           `yaml:"ready_attempts"`
	ReadyInterval time.Duration `yaml:"ready_interval"`
}

// State is the readiness of a Client.
type State int32

const (
	StatePending State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var errNotReady = errors.New("analytics endpoint not ready")

// Client posts events to a measurement-protocol endpoint. It is initialised
// on first use; the readiness probe runs a bounded number of times and the
// result sticks for the life of the client.
type Client struct {
	cfg        Config
	clientID   string
	httpClient *http.Client
	log        *slog.Logger

	state    atomic.Int32
	initOnce sync.Once

	// mu orders wg.Add in Track before wg.Wait in Close.
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewClient creates a client. Nothing is sent until the first Track.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ReadyAttempts <= 0 {
		cfg.ReadyAttempts = 3
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = time.Second
	}
	return &Client{
		cfg:        cfg,
		clientID:   uuid.New().String(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        slog.Default().With("component", "analytics"),
	}
}

// State reports the current readiness.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Ready blocks until the readiness probe has finished and reports whether
// events will be delivered.
func (c *Client) Ready(ctx context.Context) bool {
	c.initOnce.Do(func() {
		if err := c.probe(ctx); err != nil {
			c.state.Store(int32(StateUnavailable))
			c.log.Warn("Analytics unavailable, events will be dropped", "error", apperr.Analytics(err))
			return
		}
		c.state.Store(int32(StateReady))
		c.log.Debug("Analytics ready", "endpoint", c.cfg.Endpoint)
	})
	return c.State() == StateReady
}

func (c *Client) probe(ctx context.Context) error {
	if c.cfg.Endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured", errNotReady)
	}
	if _, err := url.ParseRequestURI(c.cfg.Endpoint); err != nil {
		return fmt.Errorf("%w: %v", errNotReady, err)
	}
	policy := retry.Policy{
		MaxAttempts:       c.cfg.ReadyAttempts,
		InitialDelay:      c.cfg.ReadyInterval,
		BackoffMultiplier: 2,
	}
	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.Endpoint, nil)
		if err != nil {
			return struct{}{}, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("%w: http %d", errNotReady, resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}

// Track delivers event in the background. Failures are logged and dropped.
func (c *Client) Track(ctx context.Context, event domain.AnalyticsEvent) {
	if !c.cfg.Enabled {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout*time.Duration(c.cfg.ReadyAttempts+1))
		defer cancel()

		if !c.Ready(ctx) {
			metrics.AnalyticsEventsTotal.WithLabelValues("skipped").Inc()
			c.log.Debug("Analytics not ready, skipping event", "event", event.Name)
			return
		}
		if err := c.send(ctx, event); err != nil {
			metrics.AnalyticsEventsTotal.WithLabelValues("failed").Inc()
			c.log.Warn("Failed to track event", "event", event.Name, "error", apperr.Analytics(err))
			return
		}
		metrics.AnalyticsEventsTotal.WithLabelValues("sent").Inc()
	}()
}

func (c *Client) send(ctx context.Context, event domain.AnalyticsEvent) error {
	payload := map[string]any{
		"client_id": c.clientID,
		"events": []map[string]any{{
			"name":   event.Name,
			"params": event.Params,
		}},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	q := url.Values{}
	if c.cfg.MeasurementID != "" {
		q.Set("measurement_id", c.cfg.MeasurementID)
	}
	if c.cfg.APISecret != "" {
		q.Set("api_secret", c.cfg.APISecret)
	}
	endpoint := c.cfg.Endpoint
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analytics endpoint returned http %d", resp.StatusCode)
	}
	return nil
}

// Close stops accepting events and waits for in-flight deliveries.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
