// Package mcptools exposes the gateway to MCP clients as tools over the
// streamable HTTP transport.
package mcptools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/save2win/save2win-front/internal/gateway"
	"github.com/save2win/save2win-front/internal/log"
	"github.com/save2win/save2win-front/internal/session"
)

const (
	ToolGameState          = "get_game_state"
	ToolTransactionContext = "get_transaction_context"
)

// EndpointPath is where the transport is mounted
const EndpointPath = "/mcp"

// Config wires the tools to the gateway
type Config struct {
	Name             string
	Version          string
	Gateway          *gateway.Gateway
	Sessions         *session.Store
	Projection       gateway.Projection
	GameStatePath    string
	TransactionsPath string
}

// Server is an MCP server whose tools call the engine on behalf of the
// caller that opened the MCP request.
type Server struct {
	cfg       Config
	mcpServer *mcpserver.MCPServer
	transport *mcpserver.StreamableHTTPServer
}

type credentialKey struct{}

func withCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey{}, credential)
}

func credentialFrom(ctx context.Context) string {
	c, _ := ctx.Value(credentialKey{}).(string)
	return c
}

// NewServer builds the MCP server and its transport
func NewServer(cfg Config) *Server {
	if cfg.Projection == nil {
		cfg.Projection = gateway.Identity{}
	}
	if cfg.Name == "" {
		cfg.Name = "save2win"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	s := &Server{cfg: cfg}
	s.mcpServer = mcpserver.NewMCPServer(cfg.Name, cfg.Version,
		mcpserver.WithToolCapabilities(false),
	)

	s.mcpServer.AddTool(mcp.NewTool(ToolGameState,
		mcp.WithDescription("Returns the signed-in user's game state: XP, level, badges, current quest, tip, recent transactions, buckets and the last seven days of income and spending."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGameState)

	s.mcpServer.AddTool(mcp.NewTool(ToolTransactionContext,
		mcp.WithDescription("Returns recent transaction context for one of the user's accounts."),
		mcp.WithString("account_id",
			mcp.Required(),
			mcp.Description("Account to read transactions for"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleTransactionContext)

	s.transport = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(EndpointPath),
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id := log.RequestID(r.Context()); id != "" {
				ctx = log.WithRequestID(ctx, id)
			}
			if credential, ok := gateway.ResolveCredential(r, cfg.Sessions); ok {
				ctx = withCredential(ctx, credential)
			}
			return ctx
		}),
	)

	return s
}

// Handler returns the HTTP handler for EndpointPath
func (s *Server) Handler() http.Handler {
	return s.transport
}

// Shutdown stops the transport
func (s *Server) Shutdown(ctx context.Context) error {
	return s.transport.Shutdown(ctx)
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call(ctx, request.Params.Name, s.cfg.GameStatePath, nil, s.cfg.Projection)
}

func (s *Server) handleTransactionContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil || accountID == "" {
		return mcp.NewToolResultError("account_id is required"), nil
	}
	return s.call(ctx, request.Params.Name, s.cfg.TransactionsPath, url.Values{"account_id": {accountID}}, gateway.Identity{})
}

func (s *Server) call(ctx context.Context, tool, path string, query url.Values, projection gateway.Projection) (*mcp.CallToolResult, error) {
	body, err := s.cfg.Gateway.Forward(ctx, gateway.Request{
		Path:       path,
		Query:      query,
		Credential: credentialFrom(ctx),
		RequestID:  log.RequestID(ctx),
	})
	if err != nil {
		gerr := gateway.AsError(err)
		log.LogCtx(ctx, slog.LevelInfo, "mcp", "Tool call failed", map[string]any{
			"tool": tool,
			"kind": string(gerr.Kind),
		})
		return toolError(gerr), nil
	}

	out, err := projection.Project(body)
	if err != nil {
		return toolError(&gateway.Error{Kind: gateway.KindInternal, Details: "failed to reshape engine payload", Err: err}), nil
	}
	text, err := json.Marshal(out)
	if err != nil {
		return toolError(&gateway.Error{Kind: gateway.KindInternal, Details: "failed to encode result", Err: err}), nil
	}
	return mcp.NewToolResultText(string(text)), nil
}

// toolError carries the same {"error","details"} body the HTTP surface uses
func toolError(gerr *gateway.Error) *mcp.CallToolResult {
	text, _ := json.Marshal(map[string]string{
		"error":   string(gerr.Kind),
		"details": gerr.Details,
	})
	return mcp.NewToolResultError(string(text))
}
