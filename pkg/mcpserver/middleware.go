package mcpserver

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware logs each request with its outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) *Response {
			start := time.Now()
			resp := next(ctx, req)
			attrs := []any{"method", req.Method, "duration", time.Since(start)}
			if resp != nil && resp.Error != nil {
				logger.Warn("mcp request failed", append(attrs, "code", resp.Error.Code, "message", resp.Error.Message)...)
				return resp
			}
			logger.Debug("mcp request", attrs...)
			return resp
		}
	}
}

// RecoveryMiddleware turns a panic into an internal error response.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (resp *Response) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic in MCP handler", "method", req.Method, "panic", r)
					resp = errorResponse(req.ID, CodeInternalError, "internal error")
					if req.IsNotification() {
						resp = nil
					}
				}
			}()
			return next(ctx, req)
		}
	}
}
