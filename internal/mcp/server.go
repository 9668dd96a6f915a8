package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
	"github.com/cataloghq/catalogmcp/internal/search"
	"github.com/cataloghq/catalogmcp/pkg/version"
)

// Engine is the federation surface the server consumes. Implemented by
// *search.Orchestrator; narrowed to an interface so tests can fake it.
type Engine interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Statuses(ctx context.Context) map[string]search.Status
}

// BucketLister enumerates the known catalog buckets for the list_buckets tool.
type BucketLister interface {
	List(ctx context.Context) ([]string, error)
}

// CacheInvalidator is optionally implemented by cached bucket listers.
type CacheInvalidator interface {
	Invalidate()
}

// Server is the MCP server for catalogmcp. It bridges AI clients with the
// federated catalog search engine.
type Server struct {
	mcp    *mcp.Server
	engine Engine
	lister BucketLister
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server over the given engine and bucket lister.
func NewServer(engine Engine, lister BucketLister, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if lister == nil {
		return nil, fmt.Errorf("bucket lister is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		lister: lister,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "catalogmcp",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)

	s.registerTools()

	return s, nil
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "catalog_search",
			Description: "Search the data catalog across buckets and entity types. Finds files, package entries, and packages by free-text query. Failures are reported in the result envelope, never as protocol errors.",
		},
		{
			Name:        "list_buckets",
			Description: "List the catalog buckets known to the search federation. Results are cached briefly; pass no_cache to enumerate fresh.",
		},
		{
			Name:        "backend_status",
			Description: "Report the health of each configured search backend without executing a query.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments. This is the
// in-process invocation path used by tests and the CLI.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "catalog_search":
		return s.handleSearch(ctx, searchInputFromArgs(args)), nil
	case "list_buckets":
		noCache, _ := args["no_cache"].(bool)
		return s.handleListBuckets(ctx, ListBucketsInput{NoCache: noCache})
	case "backend_status":
		return s.handleBackendStatus(ctx), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleSearch runs one federated search and wraps the outcome in the
// catalog_search envelope. It never returns an error: every failure mode,
// including a nonexistent bucket or an unreachable backend, is reported
// inside the envelope so clients see a result rather than a raised fault.
func (s *Server) handleSearch(ctx context.Context, input CatalogSearchInput) CatalogSearchOutput {
	start := time.Now()
	requestID := generateRequestID()

	scope := input.Scope
	if scope == "" {
		scope = string(search.ScopeFile)
	}

	s.logger.Info("catalog_search started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("scope", scope),
		slog.String("bucket", input.Bucket))

	parsedScope, err := search.ParseScope(scope)
	if err != nil {
		return s.failEnvelope(requestID, start, err)
	}

	req := search.Request{
		Query:      input.Query,
		Scope:      parsedScope,
		Bucket:     input.Bucket,
		Backends:   input.Backends,
		Extensions: input.Extensions,
	}
	if input.Limit != nil {
		req.Limit = *input.Limit
		req.LimitSet = true
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return s.failEnvelope(requestID, start, err)
	}

	s.logger.Info("catalog_search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(resp.Results)),
		slog.Int("total", resp.Total))

	return toEnvelope(resp)
}

// failEnvelope logs a failed search and converts the error into a
// success=false envelope.
func (s *Server) failEnvelope(requestID string, start time.Time, err error) CatalogSearchOutput {
	s.logger.Warn("catalog_search failed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.String("error", err.Error()))

	out := CatalogSearchOutput{
		Success: false,
		Results: []SearchResultOutput{},
		Error:   err.Error(),
	}
	var ce *cerrors.CatalogError
	if errors.As(err, &ce) {
		out.Error = ce.Message
		out.ErrorCode = ce.Code
		out.Suggestion = ce.Suggestion
	}
	return out
}

// handleListBuckets enumerates the known buckets.
func (s *Server) handleListBuckets(ctx context.Context, input ListBucketsInput) (*ListBucketsOutput, error) {
	requestID := generateRequestID()

	if input.NoCache {
		if inv, ok := s.lister.(CacheInvalidator); ok {
			inv.Invalidate()
		}
	}

	buckets, err := s.lister.List(ctx)
	if err != nil {
		s.logger.Error("list_buckets failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("list_buckets completed",
		slog.String("request_id", requestID),
		slog.Int("count", len(buckets)))

	return &ListBucketsOutput{Buckets: buckets, Count: len(buckets)}, nil
}

// handleBackendStatus reports adapter health without running a query.
func (s *Server) handleBackendStatus(ctx context.Context) *BackendStatusOutput {
	statuses := s.engine.Statuses(ctx)
	out := &BackendStatusOutput{Backends: make(map[string]string, len(statuses))}
	for name, status := range statuses {
		out.Backends[name] = string(status)
	}
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	for _, t := range s.ListTools() {
		s.logger.Debug("Registering MCP tool", slog.String("name", t.Name))
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "catalog_search",
		Description: s.ListTools()[0].Description,
	}, s.mcpSearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_buckets",
		Description: s.ListTools()[1].Description,
	}, s.mcpListBucketsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "backend_status",
		Description: s.ListTools()[2].Description,
	}, s.mcpBackendStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 3))
}

// mcpSearchHandler is the MCP SDK handler for the catalog_search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input CatalogSearchInput) (
	*mcp.CallToolResult,
	CatalogSearchOutput,
	error,
) {
	return nil, s.handleSearch(ctx, input), nil
}

// mcpListBucketsHandler is the MCP SDK handler for the list_buckets tool.
func (s *Server) mcpListBucketsHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListBucketsInput) (
	*mcp.CallToolResult,
	*ListBucketsOutput,
	error,
) {
	out, err := s.handleListBuckets(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

// mcpBackendStatusHandler is the MCP SDK handler for the backend_status tool.
func (s *Server) mcpBackendStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ BackendStatusInput) (
	*mcp.CallToolResult,
	*BackendStatusOutput,
	error,
) {
	return nil, s.handleBackendStatus(ctx), nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// searchInputFromArgs converts a loose argument map into a typed input.
func searchInputFromArgs(args map[string]any) CatalogSearchInput {
	input := CatalogSearchInput{}
	if v, ok := args["query"].(string); ok {
		input.Query = v
	}
	if v, ok := args["scope"].(string); ok {
		input.Scope = v
	}
	if v, ok := args["bucket"].(string); ok {
		input.Bucket = v
	}
	if v, ok := args["limit"].(float64); ok {
		n := int(v)
		input.Limit = &n
	}
	if v, ok := args["backends"].([]any); ok {
		for _, b := range v {
			if str, ok := b.(string); ok {
				input.Backends = append(input.Backends, str)
			}
		}
	}
	if v, ok := args["extensions"].([]any); ok {
		for _, e := range v {
			if str, ok := e.(string); ok {
				input.Extensions = append(input.Extensions, str)
			}
		}
	}
	return input
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
