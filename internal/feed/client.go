package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.codemao.cn"

	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 2.0
	defaultBurst     = 3
	maxBodyBytes     = 8 << 20
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status: %d", e.Endpoint, e.Code)
}

// Client talks to the creation-tools API. Requests are rate limited and pass
// through a circuit breaker; failed requests are not retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent pins the User-Agent header instead of a random desktop one.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  userAgents[rand.IntN(len(userAgents))],
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = newBreaker("codemao-api")
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.FeedBreakerState.Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors say nothing about API health
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithComponent("feed").Warnf("circuit breaker %s: %s -> %s", name, from, to)
			metrics.FeedBreakerState.Set(breakerGauge(to))
		},
	})
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Recommended returns the home page recommendation list of the given kind.
func (c *Client) Recommended(ctx context.Context, kind Kind) ([]WorkRecord, []error, error) {
	q := url.Values{"type": {strconv.Itoa(int(kind))}}
	body, err := c.do(ctx, "recommend-"+kind.String(), http.MethodGet, "/creation-tools/v1/pc/home/recommend-work?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}
	items, err := itemList(body)
	if err != nil {
		return nil, nil, err
	}
	records, skipped := decodeItems[recommendItem](items)
	return records, skipped, nil
}

// Daily returns up to limit works from the daily discovery subject.
func (c *Client) Daily(ctx context.Context, limit int) ([]WorkRecord, []error, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	body, err := c.do(ctx, "subject-work", http.MethodGet, "/creation-tools/v1/pc/discover/subject-work?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}
	items, err := itemList(body)
	if err != nil {
		return nil, nil, err
	}
	records, skipped := decodeItems[subjectItem](items)
	return records, skipped, nil
}

// Work returns the details of a single work.
func (c *Client) Work(ctx context.Context, id int64) (*WorkRecord, error) {
	body, err := c.do(ctx, "work", http.MethodGet, "/creation-tools/v1/works/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	var info workInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode work %d: %w", id, err)
	}
	rec := info.record()
	if rec.ID == 0 {
		rec.ID = id
	}
	return &rec, nil
}

// LoginRequest is the account login payload.
type LoginRequest struct {
	PID      string `json:"pid"`
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// Login posts credentials and returns the raw response body.
func (c *Client) Login(ctx context.Context, req LoginRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}
	return c.do(ctx, "login", http.MethodPost, "/tiger/v3/web/accounts/login", payload)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, endpoint, method, path, payload)
	})
	if err != nil {
		metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.FeedRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.WithComponent("feed").Debugf("%s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	return body, nil
}
