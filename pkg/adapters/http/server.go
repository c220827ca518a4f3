package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/flowcharts"
	"github.com/aretw0/flowcharts/internal/presentation/graph"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

//go:embed openapi.yaml
var rawSpec []byte

// Service defines the flowchart operations exposed over HTTP.
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

// FlowchartRequest is the body of create and replace requests.
// Nodes and Edges are required and decoded with domain.DecodeGraph;
// an ID in the body is ignored.
type FlowchartRequest struct {
	ID    string          `json:"id,omitempty"`
	Nodes json.RawMessage `json:"nodes"`
	Edges json.RawMessage `json:"edges"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Server serves the flowchart API.
type Server struct {
	Service Service
	Logger  *slog.Logger

	corsOrigins []string
	metrics     http.Handler
	apiVersion  string
}

// HandlerOption configures the handler built by NewHandler.
type HandlerOption func(*Server)

// WithCORSOrigins sets the origins allowed by CORS (default: any).
func WithCORSOrigins(origins ...string) HandlerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMetricsHandler mounts h under /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger used for request logs and failures.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...HandlerOption) http.Handler {
	s := &Server{
		Service:     svc,
		Logger:      slog.Default(),
		corsOrigins: []string{"*"},
		apiVersion:  "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	if doc, err := LoadSpec(); err == nil && doc.Info != nil {
		s.apiVersion = doc.Info.Version
	} else if err != nil {
		s.Logger.Error("Failed to load OpenAPI spec", "error", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/flowcharts", func(r chi.Router) {
		r.Post("/", s.CreateFlowchart)
		r.Get("/", s.ListFlowcharts)
		r.Route("/{flowchartId}", func(r chi.Router) {
			r.Get("/", s.GetFlowchart)
			r.Put("/", s.ReplaceFlowchart)
			r.Delete("/", s.DeleteFlowchart)
			r.Get("/mermaid", s.GetMermaid)
			r.Get("/nodes/{nodeId}/outgoing-edges", s.GetOutgoingEdges)
			r.Get("/nodes/{nodeId}/connected-nodes", s.GetConnectedNodes)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Custom-Header"},
	})
	return c.Handler(r)
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	return doc, nil
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Flowchart API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// CreateFlowchart handles the POST /flowcharts request.
func (s *Server) CreateFlowchart(w http.ResponseWriter, r *http.Request) {
	nodes, edges, ok := s.decodeFlowchart(w, r, "CreateFlowchart")
	if !ok {
		return
	}

	id, err := s.Service.Create(r.Context(), nodes, edges)
	if err != nil {
		s.writeError(w, r, "CreateFlowchart", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, id)
}

// ListFlowcharts handles the GET /flowcharts request.
func (s *Server) ListFlowcharts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.writeError(w, r, "ListFlowcharts", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// GetFlowchart handles the GET /flowcharts/{flowchartId} request.
func (s *Server) GetFlowchart(w http.ResponseWriter, r *http.Request) {
	fc, err := s.Service.Get(r.Context(), chi.URLParam(r, "flowchartId"))
	if err != nil {
		s.writeError(w, r, "GetFlowchart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, fc)
}

// ReplaceFlowchart handles the PUT /flowcharts/{flowchartId} request.
func (s *Server) ReplaceFlowchart(w http.ResponseWriter, r *http.Request) {
	nodes, edges, ok := s.decodeFlowchart(w, r, "ReplaceFlowchart")
	if !ok {
		return
	}

	fc, err := s.Service.Replace(r.Context(), chi.URLParam(r, "flowchartId"), nodes, edges)
	if err != nil {
		s.writeError(w, r, "ReplaceFlowchart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, fc)
}

// DeleteFlowchart handles the DELETE /flowcharts/{flowchartId} request.
func (s *Server) DeleteFlowchart(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "flowchartId")); err != nil {
		s.writeError(w, r, "DeleteFlowchart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Flowchart deleted successfully"})
}

// GetOutgoingEdges handles the GET /flowcharts/{flowchartId}/nodes/{nodeId}/outgoing-edges request.
func (s *Server) GetOutgoingEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := s.Service.OutgoingEdges(r.Context(), chi.URLParam(r, "flowchartId"), chi.URLParam(r, "nodeId"))
	if err != nil {
		s.writeError(w, r, "GetOutgoingEdges", err)
		return
	}
	if edges == nil {
		edges = []domain.Edge{}
	}
	s.writeJSON(w, http.StatusOK, edges)
}

// GetConnectedNodes handles the GET /flowcharts/{flowchartId}/nodes/{nodeId}/connected-nodes request.
func (s *Server) GetConnectedNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.Service.ConnectedNodes(r.Context(), chi.URLParam(r, "flowchartId"), chi.URLParam(r, "nodeId"))
	if err != nil {
		s.writeError(w, r, "GetConnectedNodes", err)
		return
	}
	if nodes == nil {
		nodes = []string{}
	}
	s.writeJSON(w, http.StatusOK, nodes)
}

// GetMermaid handles the GET /flowcharts/{flowchartId}/mermaid request.
// With ?focus=<node> the node's connected component is highlighted.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	fc, err := s.Service.Get(r.Context(), chi.URLParam(r, "flowchartId"))
	if err != nil {
		s.writeError(w, r, "GetMermaid", err)
		return
	}

	var overlay *graph.GraphOverlay
	if focus := r.URL.Query().Get("focus"); focus != "" {
		overlay = graph.FocusOverlay(fc, focus)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(fc, overlay)))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "flowcharts-http",
		"version":     strings.TrimSpace(flowcharts.Version),
		"api_version": s.apiVersion,
	})
}

func (s *Server) decodeFlowchart(w http.ResponseWriter, r *http.Request, op string) ([]domain.Node, []domain.Edge, bool) {
	var body FlowchartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn(op+": Invalid request body", "error", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: []string{err.Error()}})
		return nil, nil, false
	}

	nodes, edges, err := domain.DecodeGraph(body.Nodes, body.Edges)
	switch {
	case errors.Is(err, domain.ErrInvalidFlowchart):
		s.Logger.Warn(op+": Missing fields", "details", domain.ValidationDetails(err))
		s.writeError(w, r, op, err)
		return nil, nil, false
	case err != nil:
		s.Logger.Warn(op+": Invalid request body", "error", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: []string{err.Error()}})
		return nil, nil, false
	}
	return nodes, edges, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFlowchart):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   domain.ErrInvalidFlowchart.Error(),
			Details: domain.ValidationDetails(err),
		})
	case errors.Is(err, domain.ErrFlowchartNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: domain.ErrFlowchartNotFound.Error()})
	default:
		s.Logger.Error(op+" failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}
