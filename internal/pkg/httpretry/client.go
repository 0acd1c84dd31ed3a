// Package httpretry provides an HTTP client with bounded retry and
// exponential backoff for calls against the advertiser APIs.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gomarble/admetrics/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient wraps an HTTPDoer with retry logic using exponential backoff.
//
// Every failure is retried, including 4xx responses that cannot succeed on a
// later attempt. Matching the historical sync behavior; callers pay up to
// ~3s of extra latency on permanent failures.
type RetryClient struct {
	client      HTTPDoer
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryClient creates a RetryClient that wraps the given HTTPDoer.
// If client is nil, a default http.Client with 30s timeout is used.
// maxAttempts is the total number of attempts including the first (default 3).
func NewRetryClient(client HTTPDoer, maxAttempts int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryClient{
		client:      client,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
	}
}

// Do executes the HTTP request, retrying on transport errors and on any
// non-2xx status. Between attempts it sleeps baseDelay * 2^attempt
// (1s, then 2s, ...), honoring request-context cancellation. After the final
// attempt the last response is returned as-is so the caller can read the body
// and build its error, or the last transport error if nothing came back.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < rc.maxAttempts; attempt++ {
		if attempt > 0 {
			// Reset request body for retry if applicable
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: reset request body: %w", err)
				}
				req.Body = body
			}

			delay := rc.backoff(attempt)
			logger.Debug("retrying request",
				"attempt", attempt+1,
				"max", rc.maxAttempts,
				"method", req.Method,
				"host", req.URL.Host,
				"delay", delay.String())

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Last attempt: hand the response back so the caller can read the body.
		if attempt == rc.maxAttempts-1 {
			return resp, nil
		}

		// Drain body for connection reuse, then retry.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// backoff returns 1s, 2s, 4s... for attempt 1, 2, 3...
func (rc *RetryClient) backoff(attempt int) time.Duration {
	return time.Duration(float64(rc.baseDelay) * math.Pow(2, float64(attempt-1)))
}
