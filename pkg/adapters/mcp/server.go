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

	"github.com/aretw0/flowcharts"
	"github.com/aretw0/flowcharts/internal/presentation/graph"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
)

// ResourceScheme prefixes the URI of every flowchart resource.
const ResourceScheme = "flowcharts://"

// Service defines the flowchart operations exposed as MCP tools.
// *flowcharts.Manager satisfies it.
type Service interface {
	Create(ctx context.Context, nodes []domain.Node, edges []domain.Edge) (string, error)
	Get(ctx context.Context, id string) (*domain.Flowchart, error)
	Replace(ctx context.Context, id string, nodes []domain.Node, edges []domain.Edge) (*domain.Flowchart, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	OutgoingEdges(ctx context.Context, id, nodeID string) ([]domain.Edge, error)
	ConnectedNodes(ctx context.Context, id, nodeID string) ([]string, error)
}

var _ Service = (*flowcharts.Manager)(nil)

// Server wraps a flowchart Service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:       svc,
		logger:    logger,
		mcpServer: server.NewMCPServer("flowcharts-mcp", strings.TrimSpace(flowcharts.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           cors.AllowAll().Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	nodesArg := mcp.WithString("nodes", mcp.Required(),
		mcp.Description(`JSON array of nodes, e.g. [{"id":"a","label":"Start"}]`))
	edgesArg := mcp.WithString("edges", mcp.Required(),
		mcp.Description(`JSON array of edges, e.g. [{"source":"a","target":"b"}]`))
	idArg := mcp.WithString("flowchart_id", mcp.Required(), mcp.Description("ID of the flowchart"))
	nodeArg := mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of a node in the flowchart"))

	s.mcpServer.AddTool(mcp.NewTool("create_flowchart",
		mcp.WithDescription("Validate and store a new flowchart. Returns its ID."),
		nodesArg, edgesArg,
	), s.handleCreate)

	s.mcpServer.AddTool(mcp.NewTool("get_flowchart",
		mcp.WithDescription("Get a stored flowchart as JSON."),
		idArg,
	), s.handleGet)

	s.mcpServer.AddTool(mcp.NewTool("replace_flowchart",
		mcp.WithDescription("Replace the nodes and edges of a stored flowchart, keeping its ID."),
		idArg, nodesArg, edgesArg,
	), s.handleReplace)

	s.mcpServer.AddTool(mcp.NewTool("delete_flowchart",
		mcp.WithDescription("Delete a stored flowchart."),
		idArg,
	), s.handleDelete)

	s.mcpServer.AddTool(mcp.NewTool("list_flowcharts",
		mcp.WithDescription("List the IDs of all stored flowcharts."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("outgoing_edges",
		mcp.WithDescription("List the edges whose source is the given node."),
		idArg, nodeArg,
	), s.handleOutgoingEdges)

	s.mcpServer.AddTool(mcp.NewTool("connected_nodes",
		mcp.WithDescription("List every node reachable from the given node, ignoring edge direction."),
		idArg, nodeArg,
	), s.handleConnectedNodes)

	s.mcpServer.AddTool(mcp.NewTool("flowchart_mermaid",
		mcp.WithDescription("Render a stored flowchart as a Mermaid diagram."),
		idArg,
		mcp.WithString("focus", mcp.Description("Node whose connected component is highlighted (optional)")),
	), s.handleMermaid)
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, edges, errResult := parseGraph(request)
	if errResult != nil {
		return errResult, nil
	}
	id, err := s.svc.Create(ctx, nodes, edges)
	if err != nil {
		return s.toolError("create_flowchart", err)
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("flowchart_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fc, err := s.svc.Get(ctx, id)
	if err != nil {
		return s.toolError("get_flowchart", err)
	}
	return jsonResult(fc)
}

func (s *Server) handleReplace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("flowchart_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodes, edges, errResult := parseGraph(request)
	if errResult != nil {
		return errResult, nil
	}
	fc, err := s.svc.Replace(ctx, id, nodes, edges)
	if err != nil {
		return s.toolError("replace_flowchart", err)
	}
	return jsonResult(fc)
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("flowchart_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return s.toolError("delete_flowchart", err)
	}
	return mcp.NewToolResultText("Flowchart deleted successfully"), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.svc.List(ctx)
	if err != nil {
		return s.toolError("list_flowcharts", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(ids)
}

func (s *Server) handleOutgoingEdges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, nodeID, errResult := requireNode(request)
	if errResult != nil {
		return errResult, nil
	}
	edges, err := s.svc.OutgoingEdges(ctx, id, nodeID)
	if err != nil {
		return s.toolError("outgoing_edges", err)
	}
	return jsonResult(edges)
}

func (s *Server) handleConnectedNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, nodeID, errResult := requireNode(request)
	if errResult != nil {
		return errResult, nil
	}
	nodes, err := s.svc.ConnectedNodes(ctx, id, nodeID)
	if err != nil {
		return s.toolError("connected_nodes", err)
	}
	return jsonResult(nodes)
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("flowchart_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fc, err := s.svc.Get(ctx, id)
	if err != nil {
		return s.toolError("flowchart_mermaid", err)
	}
	var overlay *graph.GraphOverlay
	if focus := request.GetString("focus", ""); focus != "" {
		overlay = graph.FocusOverlay(fc, focus)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(fc, overlay)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: flowcharts://index
	s.mcpServer.AddResource(mcp.NewResource(ResourceScheme+"index", "Stored Flowchart IDs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.svc.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flowcharts: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		return jsonResource(request.Params.URI, ids)
	})

	// EXPOSE: flowcharts://{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(ResourceScheme+"{id}", "Flowchart",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, ResourceScheme)
		fc, err := s.svc.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read flowchart %q: %w", id, err)
		}
		return jsonResource(request.Params.URI, fc)
	})
}

// toolError turns domain errors into tool error results.
// Infrastructure failures are logged and hidden from the client.
func (s *Server) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFlowchart):
		return invalidResult(err), nil
	case errors.Is(err, domain.ErrFlowchartNotFound):
		return mcp.NewToolResultError(domain.ErrFlowchartNotFound.Error()), nil
	default:
		s.logger.Error("MCP tool failed", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: internal error", tool)), nil
	}
}

func parseGraph(request mcp.CallToolRequest) ([]domain.Node, []domain.Edge, *mcp.CallToolResult) {
	nodesStr, err := request.RequireString("nodes")
	if err != nil {
		return nil, nil, mcp.NewToolResultError(err.Error())
	}
	edgesStr, err := request.RequireString("edges")
	if err != nil {
		return nil, nil, mcp.NewToolResultError(err.Error())
	}

	nodes, edges, err := domain.DecodeGraph([]byte(nodesStr), []byte(edgesStr))
	switch {
	case errors.Is(err, domain.ErrInvalidFlowchart):
		return nil, nil, invalidResult(err)
	case err != nil:
		return nil, nil, mcp.NewToolResultError(err.Error())
	}
	return nodes, edges, nil
}

// invalidResult lists every violation under the invalid flowchart message.
func invalidResult(err error) *mcp.CallToolResult {
	msg := domain.ErrInvalidFlowchart.Error()
	if details := domain.ValidationDetails(err); len(details) > 0 {
		msg += ":\n- " + strings.Join(details, "\n- ")
	}
	return mcp.NewToolResultError(msg)
}

func requireNode(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	id, err := request.RequireString("flowchart_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return id, nodeID, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
