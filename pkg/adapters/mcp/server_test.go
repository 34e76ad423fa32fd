package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/ports/tests"
	"github.com/aretw0/nestflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(seed ...*domain.Module) *Server {
	modules := memory.NewModuleStore(seed...)
	return NewServer(modules, session.NewManager(memory.NewSessionStore(), modules), nil)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	s := newTestServer(tests.FixtureModule("mod-1"))
	ctx := context.Background()

	res, err := s.handleListModules(ctx, callRequest("list_modules", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["mod-1"]`, resultText(t, res))

	res, err = s.handleListNodes(ctx, callRequest("list_nodes", map[string]any{"module_id": "mod-1"}))
	require.NoError(t, err)
	var nodes []domain.Node
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &nodes))
	assert.Len(t, nodes, len(tests.FixtureNodes()))

	res, err = s.handleListEdges(ctx, callRequest("list_edges", map[string]any{"module_id": "mod-1"}))
	require.NoError(t, err)
	var edges []canvas.Edge
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &edges))
	assert.Len(t, edges, 5)

	res, err = s.handleListNodes(ctx, callRequest("list_nodes", map[string]any{"module_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestValidateTool(t *testing.T) {
	s := newTestServer(tests.FixtureModule("mod-1"))
	res, err := s.handleValidate(context.Background(), callRequest("validate_graph", map[string]any{"module_id": "mod-1"}))
	require.NoError(t, err)
	assert.Equal(t, "Graph is valid", resultText(t, res))
}

func TestEditTools(t *testing.T) {
	s := newTestServer(domain.NewModule("mod-1", "Intro"))
	ctx := context.Background()

	_, err := s.handleAddNode(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module_id": "mod-1", "type": "quiz"})
	require.ErrorIs(t, err, domain.ErrUnknownNodeType)

	g, err := s.handleAddNode(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module_id": "mod-1", "type": "message"})
	require.NoError(t, err)
	g, err = s.handleAddNode(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module_id": "mod-1", "type": "textInput"})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	g, err = s.handleConnect(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"module_id": "mod-1",
		"source_id": g.Nodes[0].ID,
		"target_id": g.Nodes[1].ID,
	})
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)

	_, err = s.handleConnect(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"module_id": "mod-1",
		"source_id": g.Nodes[0].ID,
		"target_id": g.Nodes[0].ID,
	})
	assert.ErrorIs(t, err, domain.ErrSelfConnection)
}

func TestPlaybackTools(t *testing.T) {
	s := newTestServer(tests.FixtureModule("mod-1"), domain.NewModule("mod-empty", "Empty"))
	ctx := context.Background()

	empty, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module_id": "mod-empty"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, empty.View.Status)

	started, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module_id": "mod-1"})
	require.NoError(t, err)
	sid := started.State.SessionID
	assert.Equal(t, "node-intro", started.View.NodeID)

	step, err := s.handleAdvance(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": sid})
	require.NoError(t, err)
	assert.Equal(t, "node-video", step.View.NodeID)

	step, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": sid})
	require.NoError(t, err)
	require.NotNil(t, step.View.Router)

	step, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session_id": sid,
		"choice_ids": `["choice-no"]`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, step.State.Status, "an unconnected branch ends playback")

	_, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": sid, "choice_ids": "nope"})
	assert.Error(t, err)

	_, err = s.handleFinish(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": sid})
	assert.ErrorIs(t, err, domain.ErrPlaybackFinished)
}
