// Package fetcher loads widget data from the public widget-data endpoint with a
// client-side timeout and a bounded, fixed-delay retry.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	// RequestTimeout bounds a single attempt.
	RequestTimeout = 10 * time.Second
	// RetryAttempts is the number of additional attempts after the first failure.
	RetryAttempts = 3
	// RetryDelay is the fixed pause between attempts.
	RetryDelay = time.Second

	// WidgetDataPathPrefix is the public endpoint serving widget payloads.
	WidgetDataPathPrefix = "/api/public/widget-data/"

	maxResponseBytes = 4 << 20

	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	queryParameterLimit  = "limit"
	queryParameterOffset = "offset"

	outcomeSuccess = "success"

	logEventAttemptFailed = "widget_data_attempt_failed"
	logEventFetchFailed   = "widget_data_fetch_failed"
	logFieldWidgetID      = "widget_id"
	logFieldAttempt       = "attempt"
	logFieldKind          = "kind"
)

// Sleeper pauses between attempts and returns early when ctx ends.
type Sleeper func(ctx context.Context, duration time.Duration) error

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(client *Client) {
		client.metrics = metrics
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.requestTimeout = timeout
		}
	}
}

func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts >= 0 {
			client.retryAttempts = attempts
		}
	}
}

func WithRetryDelay(delay time.Duration) Option {
	return func(client *Client) {
		if delay >= 0 {
			client.retryDelay = delay
		}
	}
}

func WithSleeper(sleeper Sleeper) Option {
	return func(client *Client) {
		if sleeper != nil {
			client.sleep = sleeper
		}
	}
}

// Client fetches widget data for one API origin.
type Client struct {
	origin         string
	httpClient     *http.Client
	logger         *zap.Logger
	metrics        *Metrics
	requestTimeout time.Duration
	retryAttempts  int
	retryDelay     time.Duration
	sleep          Sleeper
}

// NewClient builds a client for origin (scheme://host[:port]). The default HTTP
// client has no cookie jar, so credentials are never sent.
func NewClient(origin string, options ...Option) *Client {
	client := &Client{
		origin:         strings.TrimRight(strings.TrimSpace(origin), "/"),
		httpClient:     &http.Client{},
		logger:         zap.NewNop(),
		requestTimeout: RequestTimeout,
		retryAttempts:  RetryAttempts,
		retryDelay:     RetryDelay,
		sleep:          sleepContext,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Origin returns the API origin the client targets.
func (client *Client) Origin() string {
	return client.origin
}

// WidgetDataURL builds the paginated endpoint URL.
func (client *Client) WidgetDataURL(widgetID string, offset int, limit int) string {
	query := url.Values{}
	query.Set(queryParameterLimit, strconv.Itoa(limit))
	query.Set(queryParameterOffset, strconv.Itoa(offset))
	return client.origin + WidgetDataPathPrefix + url.PathEscape(widgetID) + "?" + query.Encode()
}

// FetchReviewsWithPagination loads one page of widget data. Failed attempts are
// retried up to the configured bound with a fixed delay; the returned data is
// normalized.
func (client *Client) FetchReviewsWithPagination(ctx context.Context, widgetID string, offset int, limit int) (widget.Data, error) {
	trimmedWidgetID := strings.TrimSpace(widgetID)
	if trimmedWidgetID == "" {
		return widget.Data{}, widget.ErrMissingWidgetID
	}
	if client.origin == "" {
		return widget.Data{}, ErrMissingOrigin
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = widget.InitialBatchSize(widget.DefaultLayout)
	}

	requestURL := client.WidgetDataURL(trimmedWidgetID, offset, limit)
	totalAttempts := client.retryAttempts + 1

	var lastErr error
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		data, attemptErr := client.attempt(ctx, requestURL)
		if attemptErr == nil {
			client.metrics.IncRequest(outcomeSuccess)
			return data.Normalize(), nil
		}
		lastErr = attemptErr
		client.metrics.IncRequest(ErrorKind(attemptErr))
		client.logger.Debug(logEventAttemptFailed,
			zap.String(logFieldWidgetID, trimmedWidgetID),
			zap.Int(logFieldAttempt, attempt),
			zap.String(logFieldKind, ErrorKind(attemptErr)),
			zap.Error(attemptErr),
		)

		if ctx.Err() != nil {
			return widget.Data{}, ctx.Err()
		}
		if attempt == totalAttempts {
			break
		}
		client.metrics.IncRetries()
		if sleepErr := client.sleep(ctx, client.retryDelay); sleepErr != nil {
			return widget.Data{}, sleepErr
		}
	}

	client.logger.Warn(logEventFetchFailed,
		zap.String(logFieldWidgetID, trimmedWidgetID),
		zap.Int(logFieldAttempt, totalAttempts),
		zap.Error(lastErr),
	)
	return widget.Data{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, totalAttempts, lastErr)
}

func (client *Client) attempt(ctx context.Context, requestURL string) (widget.Data, error) {
	attemptContext, cancel := context.WithTimeout(ctx, client.requestTimeout)
	defer cancel()

	startedAt := time.Now()
	defer func() {
		client.metrics.ObserveDuration(time.Since(startedAt))
	}()

	request, requestErr := http.NewRequestWithContext(attemptContext, http.MethodGet, requestURL, nil)
	if requestErr != nil {
		return widget.Data{}, requestErr
	}
	request.Header.Set(headerAccept, contentTypeJSON)
	request.Header.Set(headerContentType, contentTypeJSON)

	response, doErr := client.httpClient.Do(request)
	if doErr != nil {
		return widget.Data{}, client.classifyTransportError(ctx, attemptContext, doErr)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))
		return widget.Data{}, &StatusError{StatusCode: response.StatusCode}
	}

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if readErr != nil {
		return widget.Data{}, client.classifyTransportError(ctx, attemptContext, readErr)
	}

	var envelope payloadEnvelope
	if decodeErr := json.Unmarshal(body, &envelope); decodeErr != nil {
		return widget.Data{}, &DecodeError{Err: decodeErr}
	}
	if envelope.empty() {
		return widget.Data{}, &DecodeError{Err: ErrEmptyPayload}
	}
	var data widget.Data
	if decodeErr := json.Unmarshal(body, &data); decodeErr != nil {
		return widget.Data{}, &DecodeError{Err: decodeErr}
	}
	if data.Reviews == nil {
		data.Reviews = []widget.Review{}
	}
	return data, nil
}

// payloadEnvelope holds the top-level keys every widget payload carries.
type payloadEnvelope struct {
	Settings json.RawMessage `json:"widgetSettings"`
	Reviews  json.RawMessage `json:"reviews"`
}

func (envelope payloadEnvelope) empty() bool {
	return missingJSONValue(envelope.Settings) && missingJSONValue(envelope.Reviews)
}

func missingJSONValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (client *Client) classifyTransportError(parentContext context.Context, attemptContext context.Context, err error) error {
	if parentContext.Err() != nil {
		return parentContext.Err()
	}
	if errors.Is(attemptContext.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrRequestTimeout, client.requestTimeout)
	}
	return &ConnectionError{Err: err}
}

func sleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
