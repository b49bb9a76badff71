package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// retryClient wraps any Client with exponential backoff.
type retryClient struct {
	inner      Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func wrapWithRetry(client Client, maxRetries int) Client {
	if maxRetries <= 1 {
		return client
	}
	return &retryClient{
		inner:      client,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   30 * time.Second,
	}
}

func (r *retryClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.maxRetries-1 {
			break
		}

		delay := r.backoff(attempt)
		slog.Warn("LLM request failed, retrying",
			"attempt", attempt+1,
			"max_retries", r.maxRetries,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("llm generate: %w", lastErr)
}

func (r *retryClient) backoff(attempt int) time.Duration {
	d := r.baseDelay << attempt
	if d <= 0 || d > r.maxDelay {
		return r.maxDelay
	}
	return d
}

// isRetryable reports rate limits, server errors and network timeouts.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
