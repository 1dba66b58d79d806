package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/metrics"
	"github.com/letsgobuy/storefront/internal/rate"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("transport failure")

// StatusError is returned for non-2xx responses when no ErrorHandler is configured.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// ErrorHandler turns a non-2xx response into a caller-specific error.
type ErrorHandler func(status int, body []byte) error

// Backoff returns the sleep before retry number attempt+1.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Executor runs throttled JSON requests against the backend.
// Only idempotent reads are retried; writes are attempted exactly once.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	tag          string
	errorHandler ErrorHandler
}

// New creates an Executor. errorHandler receives every non-2xx response; when nil a
// *StatusError is returned instead.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	tag string,
	errorHandler ErrorHandler,
) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// DoJSON executes req and decodes a 2xx body into out (when out is non-nil and the body is not empty).
// endpoint labels rate limiting, logs and metrics.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, endpoint string, out any) error {
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	attempts := 1
	if idempotent(req.Method) {
		attempts += e.retryMax
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := e.sleep(ctx, Backoff(attempt-1)); err != nil {
				return fmt.Errorf("%w: %w", ErrTransport, err)
			}
			if err := rewind(req); err != nil {
				return err
			}
		}
		if err := e.rateMgr.Wait(ctx, endpoint); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		retry, err := e.once(ctx, req, endpoint, out, attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s request failed after %d attempts: %w", e.tag, attempts, lastErr)
}

// once performs a single round trip. retry reports whether the failure is transient.
func (e *Executor) once(ctx context.Context, req *http.Request, endpoint string, out any, attempt int) (retry bool, err error) {
	start := time.Now()
	resp, err := e.http.Do(req.WithContext(ctx))
	if err != nil {
		metrics.IncAPIRequest(endpoint, req.Method, "transport_error")
		e.logger.Warn(e.tag+".http_failed",
			zap.String("url", req.URL.String()),
			zap.String("method", req.Method),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return true, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.IncAPIRequest(endpoint, req.Method, strconv.Itoa(resp.StatusCode))
	metrics.ObserveDuration(metrics.APIRequestDuration, start, endpoint, req.Method)
	if readErr != nil {
		return true, fmt.Errorf("%w: read body: %w", ErrTransport, readErr)
	}

	if resp.StatusCode >= 400 {
		level := e.logger.Info
		if resp.StatusCode >= 500 {
			level = e.logger.Warn
		}
		level(e.tag+".non_2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("url", req.URL.String()),
			zap.String("method", req.Method),
			zap.Duration("latency", elapsed))

		var statusErr error = &StatusError{Status: resp.StatusCode, Body: body}
		if e.errorHandler != nil {
			statusErr = e.errorHandler(resp.StatusCode, body)
		}
		return resp.StatusCode >= 500, statusErr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			e.logger.Warn(e.tag+".decode_failed",
				zap.String("url", req.URL.String()),
				zap.String("body", string(body)),
				zap.Error(err))
			return false, fmt.Errorf("decode failed: %w", err)
		}
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("url", req.URL.String()),
		zap.String("method", req.Method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))
	return false, nil
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rewind restores the request body before a retry.
func rewind(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind body: %w", err)
	}
	req.Body = body
	return nil
}
