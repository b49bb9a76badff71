package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/mcpserver"
)

type fakeLister struct {
	got  store.Filter
	recs []store.Record
	err  error
}

func (f *fakeLister) ListResults(_ context.Context, filter store.Filter) ([]store.Record, error) {
	f.got = filter
	return f.recs, f.err
}

func TestCheckTool(t *testing.T) {
	args := json.RawMessage(`{"items": [{"id": 1, "title": "정부 예산", "ai_summary": "정부가 예산을 발표했다.", "content": "정부가 예산을 발표했다."}], "evidence": true}`)
	res, err := CheckTool{}.Call(context.Background(), args)
	require.NoError(t, err)
	require.False(t, res.IsError)

	var outs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &outs))
	require.Len(t, outs, 1)
	assert.EqualValues(t, 1, outs[0]["news_id"])
	assert.Equal(t, string(quality.BadgeGood), outs[0]["badge"])
	assert.Contains(t, outs[0], "evidence")
}

func TestCheckTool_BadInput(t *testing.T) {
	for _, args := range []string{``, `{}`, `{"items": null}`, `{"items": [1]}`, `{"items": [{"title": 5}]}`} {
		_, err := CheckTool{}.Call(context.Background(), json.RawMessage(args))
		assert.Error(t, err, args)
	}
}

func TestResultsTool(t *testing.T) {
	lister := &fakeLister{recs: []store.Record{{NewsID: "a", Badge: quality.BadgeBad, Flags: []string{}}}}
	res, err := ResultsTool{Store: lister}.Call(context.Background(), json.RawMessage(`{"badge": "❌", "limit": 9000}`))
	require.NoError(t, err)
	assert.Equal(t, quality.BadgeBad, lister.got.Badge)
	assert.Equal(t, 500, lister.got.Limit)
	assert.Contains(t, res.Content[0].Text, `"news_id": "a"`)

	lister = &fakeLister{}
	res, err = ResultsTool{Store: lister}.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Content[0].Text)

	_, err = ResultsTool{Store: &fakeLister{err: errors.New("db down")}}.Call(context.Background(), nil)
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	srv := mcpserver.New("t", "0", nil)
	Register(srv, nil)
	resp := srv.Handle(context.Background(), &mcpserver.Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/list"})
	list := resp.Result.(*mcpserver.ToolsListResult)
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "check_news_quality", list.Tools[0].Name)

	Register(srv, &fakeLister{})
	resp = srv.Handle(context.Background(), &mcpserver.Request{JSONRPC: "2.0", ID: json.RawMessage(`2`), Method: "tools/list"})
	assert.Len(t, resp.Result.(*mcpserver.ToolsListResult).Tools, 2)
}
