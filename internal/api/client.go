package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webtoonlab/tagnet/internal/webtoon"
)

const (
	// BaseURL is the default backend address.
	BaseURL = "http://localhost:8000"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the default number of requests per second.
	RateLimit = 10.0

	// Default request parameters.
	DefaultRecommendationLimit = 5
	DefaultTFIDFWeight         = 0.4
	DefaultMaxKeywords         = 10
	DefaultMinCorrelation      = 0.2
	DefaultNetworkMaxNodes     = 30

	// maxBodyBytes caps a response body read.
	maxBodyBytes = 16 << 20
)

// Client is a rate-limited HTTP client for the webtoon analytics backend.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets the backend address.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a backend client. The base URL defaults to
// TAGNET_API_URL, then REACT_APP_API_URL, then BaseURL.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     zap.NewNop(),
	}

	if u := EnvBaseURL(); u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EnvBaseURL returns the backend address configured in the environment.
func EnvBaseURL() string {
	if u := os.Getenv("TAGNET_API_URL"); u != "" {
		return u
	}
	return os.Getenv("REACT_APP_API_URL")
}

// BaseURLString returns the backend address in use.
func (c *Client) BaseURLString() string {
	return c.baseURL
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, endpoint string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{StatusCode: resp.StatusCode, Code: "not_found", Message: "HTTP 404", Endpoint: endpoint}
	case resp.StatusCode >= 500:
		return &APIError{StatusCode: resp.StatusCode, Code: "server_error", Message: fmt.Sprintf("HTTP %d", resp.StatusCode), Endpoint: endpoint}
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Code: "api_error", Message: fmt.Sprintf("HTTP %d", resp.StatusCode), Endpoint: endpoint}
	}
	return nil
}

// doRaw performs a request and returns the response body.
func (c *Client) doRaw(ctx context.Context, method, endpoint string, query url.Values, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := checkHTTPErrors(resp, endpoint); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	return data, nil
}

// do performs a request, unwraps the {success, data} envelope and decodes
// data into out.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	raw, err := c.doRaw(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: parsing envelope from %s: %v", ErrInvalidResponse, endpoint, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return fmt.Errorf("%w: %s %s", ErrUnsuccessful, endpoint, msg)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: %s returned no data", ErrInvalidResponse, endpoint)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: parsing %s data: %v", ErrInvalidResponse, endpoint, err)
	}
	return nil
}

// Webtoons lists all titles.
func (c *Client) Webtoons(ctx context.Context) ([]webtoon.Webtoon, error) {
	var out []webtoon.Webtoon
	if err := c.do(ctx, http.MethodGet, "/api/webtoons", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TagAnalysis returns the ranked tag frequencies.
func (c *Client) TagAnalysis(ctx context.Context) (*webtoon.TagAnalysis, error) {
	var out webtoon.TagAnalysis
	if err := c.do(ctx, http.MethodGet, "/api/analysis/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Heatmap returns the genre by demographic counts.
func (c *Client) Heatmap(ctx context.Context) ([]webtoon.HeatmapCell, error) {
	var out []webtoon.HeatmapCell
	if err := c.do(ctx, http.MethodGet, "/api/analysis/heatmap", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the headline dashboard numbers.
func (c *Client) Stats(ctx context.Context) (*webtoon.Stats, error) {
	var out webtoon.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommendations returns tag-based recommendations for title.
func (c *Client) Recommendations(ctx context.Context, title string, limit int) ([]webtoon.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	var out []webtoon.Recommendation
	body := plainRecommendationRequest{Title: title, Limit: limit}
	if err := c.do(ctx, http.MethodPost, "/api/recommendations", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnhancedRecommendations returns hybrid tag and TF-IDF recommendations.
func (c *Client) EnhancedRecommendations(ctx context.Context, req RecommendationRequest) ([]webtoon.Recommendation, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultRecommendationLimit
	}
	if req.UseTFIDF && req.TFIDFWeight <= 0 {
		req.TFIDFWeight = DefaultTFIDFWeight
	}
	var out []webtoon.Recommendation
	if err := c.do(ctx, http.MethodPost, "/api/recommendations/enhanced", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TFIDF returns the corpus keyword analysis.
func (c *Client) TFIDF(ctx context.Context) (*webtoon.TFIDFAnalysis, error) {
	var out webtoon.TFIDFAnalysis
	if err := c.do(ctx, http.MethodGet, "/api/analysis/tfidf", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummaryKeywords extracts keywords from text.
func (c *Client) SummaryKeywords(ctx context.Context, text string, maxKeywords int) (*webtoon.SummaryKeywords, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidRequest)
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	var out webtoon.SummaryKeywords
	body := keywordRequest{Text: text, MaxKeywords: maxKeywords}
	if err := c.do(ctx, http.MethodPost, "/api/analysis/summary-keywords", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similarity compares two titles.
func (c *Client) Similarity(ctx context.Context, title1, title2 string) (*webtoon.Similarity, error) {
	endpoint := "/api/analysis/similarity/" + url.PathEscape(title1) + "/" + url.PathEscape(title2)
	var out webtoon.Similarity
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Network returns the co-occurrence network scoped to the selected tags.
func (c *Client) Network(ctx context.Context, q NetworkQuery) (*NetworkPayload, error) {
	if q.MinCorrelation <= 0 {
		q.MinCorrelation = DefaultMinCorrelation
	}
	if q.MaxNodes <= 0 {
		q.MaxNodes = DefaultNetworkMaxNodes
	}
	query := url.Values{}
	query.Set("selected_tags", strings.Join(q.SelectedTags, ","))
	query.Set("min_correlation", strconv.FormatFloat(q.MinCorrelation, 'f', -1, 64))
	query.Set("max_nodes", strconv.Itoa(q.MaxNodes))

	var out NetworkPayload
	if err := c.do(ctx, http.MethodGet, "/api/analysis/network", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the backend is up. The endpoint is not enveloped.
func (c *Client) Health(ctx context.Context) (*webtoon.Health, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	var out webtoon.Health
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: parsing health: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}
