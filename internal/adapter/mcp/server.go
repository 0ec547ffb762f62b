// Package mcp exposes plan generation and saved plans to AI agents over the
// Model Context Protocol (streamable HTTP transport).
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/ratelimit"
)

// PlanGenerator generates a plan from a request.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req generation.Request) (*plan.Plan, error)
}

// PlanReader reads saved plans for an owner.
type PlanReader interface {
	List(ctx context.Context, ownerID string, opts plan.ListOptions) ([]plan.Plan, error)
	Get(ctx context.Context, id, ownerID string) (*plan.Plan, error)
}

// ServerConfig configures the MCP endpoint.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
	// OwnerID is the plan owner MCP callers act as.
	OwnerID string
}

// ServerDeps are the services behind the tools. Nil deps make the
// corresponding tools answer with an error result.
type ServerDeps struct {
	Generator PlanGenerator
	Plans     PlanReader
	Templates *template.Catalog

	// Limiter bounds generate_plan calls to RateLimit per window for each
	// owner. A nil Limiter disables the check.
	Limiter   ratelimit.Limiter
	RateLimit int
}

// Server is the MCP server.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
}

// NewServer creates the server and registers its tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if cfg.OwnerID == "" {
		cfg.OwnerID = domain.LocalOwnerID
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the authenticated streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			return domain.WithOwner(ctx, s.cfg.OwnerID)
		}),
	)
	return AuthMiddleware(s.cfg.APIKey, streamable)
}

// Start listens on cfg.Addr in the background.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("mcp server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// owner resolves the plan owner for a tool call.
func (s *Server) owner(ctx context.Context) string {
	if id := domain.OwnerFromContext(ctx); id != "" {
		return id
	}
	return s.cfg.OwnerID
}
