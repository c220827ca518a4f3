package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/flowcharts"
	"github.com/aretw0/flowcharts/internal/logging"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return NewServer(flowcharts.New(), logging.NewNop())
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestToolRoundTrip(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	res, err := s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{
		"nodes": `[{"id":"a","label":"Start"},{"id":"b"},{"id":"c"},{"id":"x"}]`,
		"edges": `[{"source":"a","target":"b"},{"source":"c","target":"b"}]`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	id := resultText(t, res)

	res, err = s.handleGet(ctx, callRequest("get_flowchart", map[string]any{"flowchart_id": id}))
	require.NoError(t, err)
	var fc domain.Flowchart
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &fc))
	assert.Equal(t, id, fc.ID)
	assert.Len(t, fc.Nodes, 4)

	res, err = s.handleList(ctx, callRequest("list_flowcharts", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["`+id+`"]`, resultText(t, res))

	res, err = s.handleOutgoingEdges(ctx, callRequest("outgoing_edges", map[string]any{"flowchart_id": id, "node_id": "a"}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"source":"a","target":"b"}]`, resultText(t, res))

	res, err = s.handleConnectedNodes(ctx, callRequest("connected_nodes", map[string]any{"flowchart_id": id, "node_id": "a"}))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, resultText(t, res))

	res, err = s.handleMermaid(ctx, callRequest("flowchart_mermaid", map[string]any{"flowchart_id": id, "focus": "b"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "class b current;")

	res, err = s.handleReplace(ctx, callRequest("replace_flowchart", map[string]any{
		"flowchart_id": id,
		"nodes":        `[{"id":"a"}]`,
		"edges":        `[]`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &fc))
	assert.Equal(t, id, fc.ID)
	assert.Len(t, fc.Nodes, 1)

	res, err = s.handleDelete(ctx, callRequest("delete_flowchart", map[string]any{"flowchart_id": id}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleGet(ctx, callRequest("get_flowchart", map[string]any{"flowchart_id": id}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "flowchart not found", resultText(t, res))
}

func TestToolErrors(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() (*mcp.CallToolResult, error)
		contains string
	}{
		{
			name: "Dangling Edge",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{
					"nodes": `[{"id":"node1"}]`,
					"edges": `[{"source":"node2","target":"node3"}]`,
				}))
			},
			contains: "edge 0 source",
		},
		{
			name: "Malformed Nodes",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{
					"nodes": `{"id":"a"}`,
					"edges": `[]`,
				}))
			},
			contains: "nodes: invalid JSON array",
		},
		{
			name: "Node Without ID",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{
					"nodes": `[{"label":"no id"}]`,
					"edges": `[]`,
				}))
			},
			contains: "nodes.0.id: field required",
		},
		{
			name: "Edge Without Endpoints",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{
					"nodes": `[{"id":"a"}]`,
					"edges": `[{"source":"a"},{}]`,
				}))
			},
			contains: "edges.0.target: field required\n- edges.1.source: field required\n- edges.1.target: field required",
		},
		{
			name: "Missing Edges",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleCreate(ctx, callRequest("create_flowchart", map[string]any{"nodes": `[]`}))
			},
			contains: "edges",
		},
		{
			name: "Missing Node ID",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleOutgoingEdges(ctx, callRequest("outgoing_edges", map[string]any{"flowchart_id": "x"}))
			},
			contains: "node_id",
		},
		{
			name: "Unknown Flowchart",
			call: func() (*mcp.CallToolResult, error) {
				return s.handleConnectedNodes(ctx, callRequest("connected_nodes", map[string]any{"flowchart_id": "nope", "node_id": "a"}))
			},
			contains: "flowchart not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.contains)
		})
	}

	res, err := s.handleList(ctx, callRequest("list_flowcharts", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, resultText(t, res), "Failed creates must not store anything")
}

type brokenService struct {
	Service
}

func (brokenService) Delete(context.Context, string) error {
	return errors.New("connection reset")
}

func TestToolError_Internal(t *testing.T) {
	s := NewServer(brokenService{}, logging.NewNop())
	res, err := s.handleDelete(context.Background(), callRequest("delete_flowchart", map[string]any{"flowchart_id": "a"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.NotContains(t, resultText(t, res), "connection reset")
}

func TestListToolsMessage(t *testing.T) {
	s := newTestServer()
	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{
		"create_flowchart", "get_flowchart", "replace_flowchart", "delete_flowchart",
		"list_flowcharts", "outgoing_edges", "connected_nodes", "flowchart_mermaid",
	} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestReadResources(t *testing.T) {
	mgr := flowcharts.New()
	s := NewServer(mgr, logging.NewNop())
	ctx := context.Background()

	id, err := mgr.Create(ctx, []domain.Node{{ID: "a", Label: "A"}}, []domain.Edge{})
	require.NoError(t, err)

	read := func(uri string) string {
		msg := `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"` + uri + `"}}`
		raw, err := json.Marshal(s.MCPServer().HandleMessage(ctx, json.RawMessage(msg)))
		require.NoError(t, err)
		return string(raw)
	}

	index := read(ResourceScheme + "index")
	assert.Contains(t, index, id)
	assert.NotContains(t, index, `"error"`)

	single := read(ResourceScheme + id)
	assert.Contains(t, single, id)
	assert.Contains(t, single, "application/json")

	missing := read(ResourceScheme + "does-not-exist")
	assert.Contains(t, missing, `"error"`)
}
