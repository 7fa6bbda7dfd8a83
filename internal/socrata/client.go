package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/httpclient"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/observability/metrics"
)

// Package-level logger specific to the socrata service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "socrata.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "socrata", serviceLevelVar)
	if err != nil {
		// Fallback: disable service logging without panicking
		log.Printf("FATAL: Failed to initialize socrata file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "socrata")
		closeLogger = func() error { return nil }
	}
}

var (
	datasetPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}$`)
	orderPattern   = regexp.MustCompile(`^[a-z_][a-z0-9_]*(?: (?:ASC|DESC))?$`)
)

// Client queries SODA dataset endpoints with rate limiting, caching,
// and retry for transient failures
type Client struct {
	config      Config
	httpClient  *httpclient.Client
	cache       *cache.Cache
	limiter     *rate.Limiter
	debug       bool // Enable debug logging
	firstCallMu sync.Once

	metricsMu sync.RWMutex
	metrics   *metrics.RegistryMetrics
}

// NewClient creates a new SODA client. An app token is optional: anonymous
// access works but shares a throttled pool, so the absence is logged.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}
	if config.RateLimit == 0 {
		config.RateLimit = DefaultConfig().RateLimit
	}

	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, errors.Newf("invalid registry base URL: %w", err).
			Category(errors.CategoryConfiguration).
			Context("base_url", config.BaseURL).
			Component("socrata").
			Build()
	}

	// Get global debug setting
	settings := conf.GetSettings()
	debug := settings != nil && (settings.Debug || settings.Registry.Debug)

	burst := int(config.RateLimit)
	if burst < 1 {
		burst = 1
	}

	client := &Client{
		config: config,
		httpClient: httpclient.New(&httpclient.Config{
			DefaultTimeout: config.Timeout,
			Transport:      config.Transport,
		}),
		cache:   cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), burst),
		debug:   debug,
	}

	logger.Info("registry client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_rps", config.RateLimit,
		"debug", debug,
		"app_token_configured", config.AppToken != "")

	if config.AppToken == "" {
		logger.Warn("no registry app token configured, requests share the anonymous throttle pool")
	}

	return client, nil
}

// SetMetrics attaches Prometheus collectors for query observability.
// Safe to call concurrently; a nil receiver-side collector disables recording.
func (c *Client) SetMetrics(m *metrics.RegistryMetrics) {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.metrics = m
}

func (c *Client) getMetrics() *metrics.RegistryMetrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

// Close cleans up client resources
func (c *Client) Close() {
	c.httpClient.Close()
	logger.Info("Closing registry client")

	if closeLogger != nil {
		logger.Debug("Closing socrata service log file")
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing socrata logger: %v", err)
		}
	}
}

// Fetch runs a query against a dataset and decodes the result rows into out,
// which must be a pointer to a slice of row structs. Responses are cached as
// raw bytes keyed by the full request URL.
func (c *Client) Fetch(ctx context.Context, dataset string, q Query, out any) error {
	requestURL, err := c.buildURL(dataset, q)
	if err != nil {
		return err
	}

	// Check cache first
	if cached, found := c.cache.Get(requestURL); found {
		if body, ok := cached.([]byte); ok {
			if m := c.getMetrics(); m != nil {
				m.RecordCacheResult(dataset, metrics.LabelHit)
			}
			logger.Debug("registry cache hit",
				"dataset", dataset,
				"response_size", len(body))
			_, err := c.decode(dataset, requestURL, body, out)
			return err
		}
	}

	// Cache miss
	if m := c.getMetrics(); m != nil {
		m.RecordCacheResult(dataset, metrics.LabelMiss)
	}

	// Apply timeout to the remote call
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := c.doRequestWithRetry(reqCtx, dataset, requestURL)
	if err != nil {
		// doRequest already returns enhanced errors, just return them
		return err
	}

	rows, err := c.decode(dataset, requestURL, body, out)
	if err != nil {
		return err
	}
	if m := c.getMetrics(); m != nil {
		m.RecordRowsFetched(dataset, rows)
	}

	// Cache the raw response
	c.cache.Set(requestURL, body, cache.DefaultExpiration)

	logger.Debug("registry response cached",
		"dataset", dataset,
		"rows", rows,
		"response_size", len(body))

	return nil
}

// buildURL renders the query into a resource endpoint URL
func (c *Client) buildURL(dataset string, q Query) (string, error) {
	if !datasetPattern.MatchString(dataset) {
		return "", errors.Newf("invalid dataset identifier: %q", dataset).
			Category(errors.CategoryValidation).
			Context("dataset", dataset).
			Component("socrata").
			Build()
	}

	params := url.Values{}
	if q.Where != nil {
		where, err := Render(q.Where)
		if err != nil {
			return "", err
		}
		params.Set("$where", where)
	}
	if q.Order != "" {
		if !orderPattern.MatchString(q.Order) {
			return "", errors.Newf("invalid $order clause: %q", q.Order).
				Category(errors.CategoryValidation).
				Context("order", q.Order).
				Component("socrata").
				Build()
		}
		params.Set("$order", q.Order)
	}
	if q.Limit > 0 {
		params.Set("$limit", strconv.Itoa(q.Limit))
	}
	if len(q.Select) > 0 {
		for _, field := range q.Select {
			if !fieldPattern.MatchString(field) {
				return "", errors.Newf("invalid $select field: %q", field).
					Category(errors.CategoryValidation).
					Context("field", field).
					Component("socrata").
					Build()
			}
		}
		params.Set("$select", strings.Join(q.Select, ","))
	}

	requestURL := fmt.Sprintf("%s/resource/%s.json", strings.TrimRight(c.config.BaseURL, "/"), dataset)
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}
	return requestURL, nil
}

// decode unmarshals a response body and reports the row count when out is a
// pointer to a slice
func (c *Client) decode(dataset, requestURL string, body []byte, out any) (int, error) {
	if out == nil {
		return 0, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		if m := c.getMetrics(); m != nil {
			m.RecordDecodeError(dataset)
		}
		responsePreview := string(body)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		logger.Error("Failed to parse registry response",
			"error", err,
			"dataset", dataset,
			"response_size", len(body),
			"response_preview", responsePreview)
		return 0, errors.Newf("failed to parse registry response: %w", err).
			Category(errors.CategoryResponseParsing).
			Context("dataset", dataset).
			Context("url", requestURL).
			Context("response_size", len(body)).
			Component("socrata").
			Build()
	}

	rows := 0
	if v := reflect.ValueOf(out); v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Slice {
		rows = v.Elem().Len()
	}
	return rows, nil
}

// doRequest performs an HTTP request with rate limiting and auth
func (c *Client) doRequest(ctx context.Context, dataset, requestURL string) ([]byte, error) {
	// Rate limiting
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Newf("rate limiter wait aborted: %w", err).
			Category(errors.CategoryCancellation).
			Context("dataset", dataset).
			Component("socrata").
			Build()
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		if m := c.getMetrics(); m != nil {
			m.RecordRateLimitWait(waited.Seconds())
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("dataset", dataset).
			Context("url", requestURL).
			Component("socrata").
			Build()
	}

	// Add authentication header
	req.Header.Set("Accept", "application/json")
	if c.config.AppToken != "" {
		req.Header.Set("X-App-Token", c.config.AppToken)
	}

	if c.debug {
		logger.Debug("registry request",
			"dataset", dataset,
			"url", requestURL,
			"has_app_token", c.config.AppToken != "")
	}

	// Execute request
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		if m := c.getMetrics(); m != nil {
			m.RecordQuery(dataset, metrics.LabelError)
			m.RecordQueryError(dataset, "network")
		}
		logger.Error("registry request failed",
			"error", err,
			"dataset", dataset,
			"url", requestURL)
		return nil, errors.Newf("registry request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("dataset", dataset).
			Context("url", requestURL).
			Component("socrata").
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body",
			"error", err,
			"dataset", dataset,
			"status_code", resp.StatusCode)
		return nil, errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("dataset", dataset).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("socrata").
			Build()
	}

	// Check content type for non-error responses. Proxies in front of the
	// portal serve HTML error pages with a 200 on occasion.
	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && !strings.Contains(strings.ToLower(contentType), "application/json") {
		responsePreview := string(bodyBytes)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		logger.Error("registry returned non-JSON response",
			"status_code", resp.StatusCode,
			"content_type", contentType,
			"dataset", dataset,
			"response_preview", responsePreview)
		return nil, errors.Newf("registry returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Context("dataset", dataset).
			Context("url", requestURL).
			Component("socrata").
			Build()
	}

	// Check for errors
	if resp.StatusCode >= 400 {
		if m := c.getMetrics(); m != nil {
			m.RecordQuery(dataset, metrics.LabelError)
			m.RecordQueryError(dataset, strconv.Itoa(resp.StatusCode))
		}

		var apiErr Error
		if err := json.Unmarshal(bodyBytes, &apiErr); err != nil || apiErr.Message == "" {
			// Log authentication failures specially
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				logger.Error("registry authentication failed",
					"status_code", resp.StatusCode,
					"dataset", dataset,
					"response_body", string(bodyBytes),
					"has_app_token", c.config.AppToken != "",
					"message", "Check the registry app token in the configuration")
			} else {
				logger.Error("registry error",
					"status_code", resp.StatusCode,
					"dataset", dataset,
					"response_body", string(bodyBytes))
			}

			// If we can't parse the error response, create a generic one
			return nil, errors.Newf("registry error (status %d): %s", resp.StatusCode, string(bodyBytes)).
				Category(getErrorCategory(resp.StatusCode)).
				Context("status_code", resp.StatusCode).
				Context("dataset", dataset).
				Context("url", requestURL).
				Component("socrata").
				Build()
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("registry authentication failed",
				"status_code", resp.StatusCode,
				"error_code", apiErr.Code,
				"error_message", apiErr.Message,
				"dataset", dataset,
				"has_app_token", c.config.AppToken != "",
				"message", "Check the registry app token in the configuration")
		} else {
			logger.Warn("registry error response",
				"status_code", resp.StatusCode,
				"error_code", apiErr.Code,
				"error_message", apiErr.Message,
				"dataset", dataset)
		}

		return nil, errors.Newf("registry error: %s", apiErr.Message).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("error_code", apiErr.Code).
			Context("dataset", dataset).
			Context("url", requestURL).
			Component("socrata").
			Build()
	}

	duration := time.Since(start)

	if resp.StatusCode == http.StatusOK {
		// Log first successful call to confirm the token works
		c.firstCallMu.Do(func() {
			logger.Info("registry access confirmed",
				"first_successful_dataset", dataset,
				"app_token_configured", c.config.AppToken != "")
		})

		if c.debug {
			logger.Debug("registry response",
				"status_code", resp.StatusCode,
				"dataset", dataset,
				"duration_ms", duration.Milliseconds(),
				"response_size", len(bodyBytes))
		} else {
			logger.Info("registry request successful",
				"dataset", dataset,
				"duration_ms", duration.Milliseconds())
		}
	}

	if m := c.getMetrics(); m != nil {
		m.RecordQuery(dataset, metrics.LabelSuccess)
		m.RecordQueryDuration(dataset, duration.Seconds())
	}

	return bodyBytes, nil
}

// doRequestWithRetry wraps doRequest with retry logic for transient failures
func (c *Client) doRequestWithRetry(ctx context.Context, dataset, requestURL string) ([]byte, error) {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		body, err := c.doRequest(ctx, dataset, requestURL)
		if err == nil {
			return body, nil
		}

		// Check if error is retryable
		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			// Don't retry auth, not-found, validation or caller-abort errors
			if enhancedErr.Category == errors.CategoryConfiguration ||
				enhancedErr.Category == errors.CategoryNotFound ||
				enhancedErr.Category == errors.CategoryValidation ||
				enhancedErr.Category == errors.CategoryCancellation {
				return nil, err
			}

			// Don't retry client errors (except 429, which backs off below)
			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				if statusCode >= 400 && statusCode < 500 && statusCode != 429 {
					return nil, err
				}
			}
		}

		lastErr = err

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return nil, lastErr
		}

		delay := time.Duration(attempt+1) * 500 * time.Millisecond
		if attempt < maxRetries-1 {
			logger.Warn("registry request failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"dataset", dataset,
				"error", err.Error())

			select {
			case <-time.After(delay):
				// Continue to next retry
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

// ClearCache clears all cached responses
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("registry cache cleared")
}

// CacheItemCount returns the number of cached responses
func (c *Client) CacheItemCount() int {
	return c.cache.ItemCount()
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// Token problems need user attention
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errors.CategoryNetwork
	default:
		return errors.CategoryNetwork
	}
}
