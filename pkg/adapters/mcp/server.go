package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/internal/validator"
	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
	"github.com/aretw0/nestflow/pkg/player"
	"github.com/aretw0/nestflow/pkg/ports"
	"github.com/aretw0/nestflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PlaybackResponse is the structured result of every playback tool.
type PlaybackResponse struct {
	State *domain.State `json:"state" jsonschema_description:"The playback state after the call"`
	View  *player.View  `json:"view" jsonschema_description:"The view of the current node"`
}

// GraphResponse is the structured result of the graph tools.
type GraphResponse struct {
	Nodes []domain.Node `json:"nodes" jsonschema_description:"Nodes in play order, index 0 starts playback"`
	Edges []canvas.Edge `json:"edges" jsonschema_description:"Connections derived from the nodes"`
}

// Server exposes module graphs and playback sessions as an MCP Server.
type Server struct {
	modules   ports.ModuleStore
	editor    *editor.Service
	sessions  *session.Manager
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(modules ports.ModuleStore, sessions *session.Manager, edit *editor.Service) *Server {
	if edit == nil {
		edit = editor.New(modules)
	}
	s := &Server{
		modules:   modules,
		editor:    edit,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("nestflow-mcp", strings.TrimSpace(nestflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List the ids of every stored module."),
	), s.handleListModules)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the nodes and edges of a module graph."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetGraph))

	s.mcpServer.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List the nodes of a module graph in play order."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
	), s.handleListNodes)

	s.mcpServer.AddTool(mcp.NewTool("list_edges",
		mcp.WithDescription("List the edges of a module graph, one per connected router choice or successor."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
	), s.handleListEdges)

	s.mcpServer.AddTool(mcp.NewTool("validate_graph",
		mcp.WithDescription("Check a module graph for dangling connections, self loops and unreachable nodes."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Append a node with type defaults to a module graph."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Node type"),
			mcp.Enum(nodeTypeNames()...)),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Connect a node, or one router choice, to a target node. An empty target disconnects."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source node ID")),
		mcp.WithString("target_id", mcp.Description("Target node ID")),
		mcp.WithString("choice_id", mcp.Description("Router choice ID, required when the source is a router")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("start_playback",
		mcp.WithDescription("Start a playback session at the first node of a module."),
		mcp.WithString("module_id", mcp.Required(), mcp.Description("Module ID")),
		mcp.WithOutputSchema[PlaybackResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Submit the response to the current node and move to its successor."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("text", mcp.Description("Answer of a text question")),
		mcp.WithString("choice_ids", mcp.Description("JSON array of selected choice IDs (router or multiple choice)")),
		mcp.WithString("ranking", mcp.Description("JSON array of ranked items")),
		mcp.WithOutputSchema[PlaybackResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("finish",
		mcp.WithDescription("Finish a playback session early."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[PlaybackResponse](),
	), mcp.NewStructuredToolHandler(s.handleFinish))
}

func nodeTypeNames() []string {
	out := make([]string, len(domain.NodeTypes))
	for i, t := range domain.NodeTypes {
		out[i] = string(t)
	}
	return out
}

func (s *Server) handleListModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.modules.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moduleID, _ := request.GetArguments()["module_id"].(string)
	res, err := s.editor.Snapshot(ctx, moduleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(res.Nodes)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListEdges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moduleID, _ := request.GetArguments()["module_id"].(string)
	res, err := s.editor.Snapshot(ctx, moduleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(res.Edges)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moduleID, _ := request.GetArguments()["module_id"].(string)
	res, err := s.editor.Snapshot(ctx, moduleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if err := validator.ValidateGraph(res.Nodes); err != nil {
		return mcp.NewToolResultText(err.Error()), nil
	}
	return mcp.NewToolResultText("Graph is valid"), nil
}

// Handler methods for structured tools

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	moduleID, _ := args["module_id"].(string)
	res, err := s.editor.Snapshot(ctx, moduleID)
	if err != nil {
		return GraphResponse{}, fmt.Errorf("load failed: %w", err)
	}
	return GraphResponse{Nodes: res.Nodes, Edges: res.Edges}, nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	moduleID, _ := args["module_id"].(string)
	typ, _ := args["type"].(string)
	t := domain.NodeType(typ)
	if !t.Valid() {
		return GraphResponse{}, fmt.Errorf("%q: %w", typ, domain.ErrUnknownNodeType)
	}
	res, err := s.editor.Apply(ctx, moduleID, func(ws *editor.Workspace) error {
		_, err := ws.Graph.Add(t)
		return err
	})
	if err != nil {
		return GraphResponse{}, fmt.Errorf("add node failed: %w", err)
	}
	return GraphResponse{Nodes: res.Nodes, Edges: res.Edges}, nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	moduleID, _ := args["module_id"].(string)
	req := canvas.ConnectRequest{}
	req.SourceID, _ = args["source_id"].(string)
	req.TargetID, _ = args["target_id"].(string)
	req.ChoiceID, _ = args["choice_id"].(string)

	res, err := s.editor.Apply(ctx, moduleID, func(ws *editor.Workspace) error {
		if req.TargetID != "" {
			if _, ok := ws.Graph.Node(req.TargetID); !ok {
				return fmt.Errorf("target %s: %w", req.TargetID, domain.ErrNodeNotFound)
			}
		}
		ok, err := ws.Canvas.Connect(req)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("source %s: %w", req.SourceID, domain.ErrNodeNotFound)
		}
		return nil
	})
	if err != nil {
		return GraphResponse{}, fmt.Errorf("connect failed: %w", err)
	}
	return GraphResponse{Nodes: res.Nodes, Edges: res.Edges}, nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlaybackResponse, error) {
	moduleID, _ := args["module_id"].(string)
	state, err := s.sessions.Start(ctx, moduleID)
	if errors.Is(err, domain.ErrEmptyGraph) && state != nil {
		return PlaybackResponse{State: state, View: &player.View{Status: state.Status, Index: -1}}, nil
	}
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.render(ctx, state)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlaybackResponse, error) {
	sessionID, _ := args["session_id"].(string)

	var resp domain.Response
	resp.Text, _ = args["text"].(string)
	if raw, ok := args["choice_ids"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &resp.ChoiceIDs); err != nil {
			return PlaybackResponse{}, fmt.Errorf("choice_ids must be a JSON array: %w", err)
		}
	}
	if raw, ok := args["ranking"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &resp.Ranking); err != nil {
			return PlaybackResponse{}, fmt.Errorf("ranking must be a JSON array: %w", err)
		}
	}

	state, err := s.sessions.Advance(ctx, sessionID, resp)
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("advance failed: %w", err)
	}
	return s.render(ctx, state)
}

func (s *Server) handleFinish(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlaybackResponse, error) {
	sessionID, _ := args["session_id"].(string)
	state, err := s.sessions.Finish(ctx, sessionID)
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("finish failed: %w", err)
	}
	return s.render(ctx, state)
}

func (s *Server) render(ctx context.Context, state *domain.State) (PlaybackResponse, error) {
	nodes, err := s.sessions.Nodes(ctx, state.ModuleID)
	if err != nil {
		return PlaybackResponse{}, err
	}
	view, err := s.sessions.Engine().Render(ctx, nodes, state)
	if err != nil {
		return PlaybackResponse{}, fmt.Errorf("render failed: %w", err)
	}
	return PlaybackResponse{State: state, View: view}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("nestflow://modules", "Stored modules",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.modules.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "nestflow://modules",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
