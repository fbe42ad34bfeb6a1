// Package dataforseo is the client for the DataForSEO v3 API: competitor
// discovery, domain intersection, keyword ideas and local business search.
package dataforseo

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

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

const providerName = "dataforseo"

// Provider status codes.
const (
	statusOK          = 20000
	statusNoResults   = 40102
	statusRateLimited = 40202
)

// API endpoints.
const (
	endpointCompetitors  = "/v3/dataforseo_labs/google/competitors_domain/live"
	endpointIntersection = "/v3/dataforseo_labs/google/domain_intersection/live"
	endpointKeywordIdeas = "/v3/dataforseo_labs/google/keyword_ideas/live"
	endpointMaps         = "/v3/serp/google/maps/live/advanced"
)

// Config holds client settings.
type Config struct {
	BaseURL        string
	Login          string
	Password       string
	Timeout        time.Duration
	RequestsPerSec float64 // 0 = unlimited
	MaxFailures    uint32  // consecutive failures before the breaker opens
	BreakerOpen    time.Duration
	Logger         *zap.Logger
	HTTPClient     *http.Client // optional, for tests
}

// Client calls DataForSEO live endpoints. Every call goes through a
// shared rate limiter and a circuit breaker.
type Client struct {
	baseURL  string
	login    string
	password string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// New creates a DataForSEO client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
		burst = max(1, int(cfg.RequestsPerSec))
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openFor := cfg.BreakerOpen
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		login:    cfg.Login,
		password: cfg.Password,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        providerName,
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// countsAsSuccess keeps caller cancellations and request-level rejections
// from tripping the breaker; only transport and server failures count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && isClientStatus(pe.StatusCode) {
		return true
	}
	return false
}

// envelope is the response wrapper shared by every endpoint.
type envelope[T any] struct {
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message"`
	Cost          float64   `json:"cost"`
	Tasks         []task[T] `json:"tasks"`
}

type task[T any] struct {
	ID            string  `json:"id"`
	StatusCode    int     `json:"status_code"`
	StatusMessage string  `json:"status_message"`
	Cost          float64 `json:"cost"`
	Result        []T     `json:"result"`
}

// post sends one task to endpoint and returns the first task's results.
// A non-20000 status at envelope or task level becomes a *domain.ProviderError
// of the given kind. "No search results" is an empty result.
func post[T any](ctx context.Context, c *Client, endpoint string, payload any, kind error) ([]T, error) {
	body, err := json.Marshal([]any{payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return doPost[T](ctx, c, endpoint, body, kind)
	})
	metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, statusLabel(err)).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ProviderError{
				Provider: providerName,
				Message:  endpoint + ": " + err.Error(),
				Kind:     domain.ErrCircuitOpen,
			}
		}
		return nil, err
	}

	metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return out.([]T), nil
}

func doPost[T any](ctx context.Context, c *Client, endpoint string, body []byte, kind error) ([]T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, Message: err.Error(), Kind: kind}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: err.Error(), Kind: kind}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(raw), 256),
			Kind:       kindFor(resp.StatusCode, kind),
		}
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    "malformed response: " + err.Error(),
			Kind:       kind,
		}
	}

	if env.Cost > 0 {
		metrics.ProviderCostTotal.WithLabelValues(endpoint).Add(env.Cost)
	}

	if env.StatusCode != statusOK {
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: env.StatusCode,
			Message:    env.StatusMessage,
			Kind:       kindFor(env.StatusCode, kind),
		}
	}
	if len(env.Tasks) == 0 {
		return nil, &domain.ProviderError{Provider: providerName, StatusCode: env.StatusCode, Message: "no tasks in response", Kind: kind}
	}

	t := env.Tasks[0]
	switch t.StatusCode {
	case statusOK:
	case statusNoResults:
		return nil, nil
	default:
		return nil, &domain.ProviderError{
			Provider:   providerName,
			StatusCode: t.StatusCode,
			Message:    t.StatusMessage,
			Kind:       kindFor(t.StatusCode, kind),
		}
	}

	c.logger.Debug("Provider call completed",
		zap.String("endpoint", endpoint),
		zap.String("task_id", t.ID),
		zap.Float64("cost", t.Cost),
		zap.Int("results", len(t.Result)),
	)

	return t.Result, nil
}

// isClientStatus reports HTTP 4xx and provider 4xxxx codes.
func isClientStatus(code int) bool {
	return (code >= 400 && code < 500) || (code >= 40000 && code < 50000)
}

func kindFor(status int, fallback error) error {
	if status == http.StatusTooManyRequests || status == statusRateLimited {
		return domain.ErrRateLimited
	}
	return fallback
}

func statusLabel(err error) string {
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return fmt.Sprintf("%d", pe.StatusCode)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_open"
	}
	return "error"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// HealthCheck verifies credentials against the free user-data endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/appendix/user_data", http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.login, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("user data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: "user data"}
	}
	return nil
}
