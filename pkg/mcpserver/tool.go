package mcpserver

import (
	"context"
	"encoding/json"
)

// Tool is a callable exposed through "tools/call".
type Tool interface {
	Name() string
	Description() string
	// InputSchema is the JSON Schema of the arguments object.
	InputSchema() map[string]any
	// Call runs the tool. args is the raw "arguments" object, or nil.
	Call(ctx context.Context, args json.RawMessage) (*ToolResult, error)
}

// Handler handles one request; it returns nil for notifications.
type Handler func(ctx context.Context, req *Request) *Response

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler
