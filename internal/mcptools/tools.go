// Package mcptools exposes quality scoring and stored results as MCP tools
// so assistants can vet news summaries directly.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/mcpserver"
)

// ResultLister reads stored results.
type ResultLister interface {
	ListResults(ctx context.Context, f store.Filter) ([]store.Record, error)
}

// Register adds the tools to srv. The results tool is only added when
// results is non-nil.
func Register(srv *mcpserver.Server, results ResultLister) {
	srv.Register(CheckTool{})
	if results != nil {
		srv.Register(ResultsTool{Store: results})
	}
}

// CheckTool scores news items.
type CheckTool struct{}

func (CheckTool) Name() string { return "check_news_quality" }

func (CheckTool) Description() string {
	return "Scores Korean news items on whether the summary is backed by the article body. " +
		"Returns quality_score (0-100), risk_flags, badge (✅ ⚠️ ❌) and evidence_summary per item."
}

func (CheckTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":        "array",
				"description": "News items with id, title, ai_summary, content and cross_source_count",
				"items":       map[string]any{"type": "object"},
			},
			"evidence": map[string]any{
				"type":        "boolean",
				"description": "Include the per-sentence evidence trace",
			},
		},
		"required": []string{"items"},
	}
}

func (CheckTool) Call(_ context.Context, args json.RawMessage) (*mcpserver.ToolResult, error) {
	var in struct {
		Items    json.RawMessage `json:"items"`
		Evidence bool            `json:"evidence"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if len(in.Items) == 0 || string(in.Items) == "null" {
		return nil, errors.New("items is required")
	}

	scored, err := quality.RunBatch(in.Items)
	if err != nil {
		return nil, err
	}
	return mcpserver.JSONResult(quality.Outputs(scored, quality.Options{IncludeEvidence: in.Evidence})), nil
}

// ResultsTool lists stored results.
type ResultsTool struct {
	Store ResultLister
}

func (ResultsTool) Name() string { return "list_quality_results" }

func (ResultsTool) Description() string {
	return "Lists stored news quality results, newest first, optionally filtered by badge or run id."
}

func (ResultsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"badge":  map[string]any{"type": "string", "enum": []string{string(quality.BadgeGood), string(quality.BadgeWarning), string(quality.BadgeBad)}},
			"run_id": map[string]any{"type": "string"},
			"limit":  map[string]any{"type": "integer", "minimum": 1, "maximum": 500},
		},
	}
}

func (t ResultsTool) Call(ctx context.Context, args json.RawMessage) (*mcpserver.ToolResult, error) {
	var in struct {
		Badge string `json:"badge"`
		RunID string `json:"run_id"`
		Limit int    `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if in.Limit > 500 {
		in.Limit = 500
	}

	recs, err := t.Store.ListResults(ctx, store.Filter{RunID: in.RunID, Badge: quality.Badge(in.Badge), Limit: in.Limit})
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return mcpserver.JSONResult(recs), nil
}
