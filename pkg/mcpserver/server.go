// Package mcpserver is a small Model Context Protocol server speaking
// newline-delimited JSON-RPC 2.0 over a reader and writer, normally
// stdin and stdout.
package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// ProtocolVersion is the MCP revision this server implements.
const ProtocolVersion = "2024-11-05"

// maxLine bounds one JSON-RPC message.
const maxLine = 16 << 20

// Server dispatches JSON-RPC requests to registered tools.
type Server struct {
	name    string
	version string
	logger  *slog.Logger

	mu         sync.RWMutex
	tools      map[string]Tool
	middleware []Middleware
}

// New creates a server. A nil logger means slog.Default().
func New(name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		name:    name,
		version: version,
		logger:  logger,
		tools:   make(map[string]Tool),
	}
}

// Register adds tools, replacing any with the same name.
func (s *Server) Register(tools ...Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tools {
		s.tools[t.Name()] = t
		s.logger.Debug("registered tool", "name", t.Name())
	}
}

// Use appends middleware. The first added runs outermost.
func (s *Server) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// Serve reads one request per line from r and writes responses to w until
// r is exhausted or ctx is cancelled. Lines that are not valid JSON get a
// parse error response and are otherwise skipped.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logger.Info("starting MCP server", "name", s.name, "version", s.version, "tools", len(s.tools))

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp *Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = errorResponse(nil, CodeParseError, "parse error")
		} else {
			resp = s.Handle(ctx, &req)
		}
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// Handle runs a single request through the middleware chain.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	h := s.dispatch
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h(ctx, req)
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}

	var result any
	var rpcErr *RPCError
	switch req.Method {
	case "initialize":
		result = s.initialize()
	case "ping":
		result = struct{}{}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, rpcErr = s.callTool(ctx, req.Params)
	default:
		if req.IsNotification() {
			return nil
		}
		rpcErr = &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) initialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      ServerInfo{Name: s.name, Version: s.version},
	}
}

func (s *Server) listTools() *ToolsListResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := make([]ToolDef, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, ToolDef{Name: t.Name(), Description: t.Description(), InputSchema: t.InputSchema()})
	}
	slices.SortFunc(defs, func(a, b ToolDef) int { return strings.Compare(a.Name, b.Name) })
	return &ToolsListResult{Tools: defs}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (*ToolResult, *RPCError) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) == 0 || json.Unmarshal(params, &p) != nil || p.Name == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "tools/call needs a tool name"}
	}

	s.mu.RLock()
	tool, ok := s.tools[p.Name]
	s.mu.RUnlock()
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "unknown tool: " + p.Name}
	}

	res, err := tool.Call(ctx, p.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", p.Name, "error", err)
		return ErrorResult(err), nil
	}
	if res == nil {
		res = TextResult("")
	}
	return res, nil
}
