package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"copilotmcp/internal/copilot"
	"copilotmcp/internal/session"
)

// Executor runs one prompt through the Copilot CLI.
type Executor interface {
	Execute(ctx context.Context, req copilot.Request) (*copilot.Result, error)
}

// Discoverer produces the advisory model catalog.
type Discoverer interface {
	Discover(ctx context.Context) copilot.CatalogResult
}

// Prober reports the installed Copilot CLI version. A failed probe means
// the binary is missing or broken.
type Prober interface {
	Version(ctx context.Context) (string, error)
}

// Server exposes the Copilot CLI bridge as MCP tools.
type Server struct {
	exec     Executor
	catalog  Discoverer
	probe    Prober
	sessions *session.Store
	log      *slog.Logger
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(exec Executor, catalog Discoverer, probe Prober, sessions *session.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		exec:     exec,
		catalog:  catalog,
		probe:    probe,
		sessions: sessions,
		log:      log,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("copilot-mcp", version, server.WithToolCapabilities(true))

	srv.AddTool(s.executeTool())
	srv.AddTool(s.listModelsTool())
	srv.AddTool(s.createSessionTool())
	srv.AddTool(s.listSessionsTool())
	srv.AddTool(s.sessionHistoryTool())
	srv.AddTool(s.statusTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, version string) error {
	srv := s.MCPServer(version)
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// copilot_execute
func (s *Server) executeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_execute",
		mcp.WithDescription("Run a prompt through the GitHub Copilot CLI and return its response. The prompt is delivered over stdin; on timeout any partial output already received is returned instead of an error."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The prompt to send")),
		mcp.WithString("context", mcp.Description("Additional context appended to the prompt")),
		mcp.WithString("model", mcp.Description("Model identifier, e.g. gpt-5.1")),
		mcp.WithBoolean("allow_all_tools", mcp.Description("Pass --allow-all-tools to the CLI")),
		mcp.WithString("session_id", mcp.Description("Session to resume; defaults to the current session")),
		mcp.WithString("additional_args", mcp.Description("Extra CLI arguments, space-separated, appended verbatim")),
	)
	return tool, s.handleExecute
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}

	req := copilot.Request{
		Prompt:         prompt,
		Context:        request.GetString("context", ""),
		Model:          request.GetString("model", ""),
		SessionID:      request.GetString("session_id", ""),
		AdditionalArgs: strings.Fields(request.GetString("additional_args", "")),
	}
	if allow := request.GetBool("allow_all_tools", false); allow {
		req.AllowAllTools = &allow
	}

	// The executor never consults ambient state: the current session id is
	// threaded in here, by the caller's layer.
	if req.SessionID == "" {
		req.SessionID = s.sessions.Current()
	}

	result, err := s.exec.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := struct {
		*copilot.Result
		SessionID string `json:"session_id,omitempty"`
	}{Result: result, SessionID: req.SessionID}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// copilot_list_models
func (s *Server) listModelsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_list_models",
		mcp.WithDescription("List model identifiers discovered from the Copilot CLI help output. Advisory only: names are not validated against the CLI."),
	)
	return tool, s.handleListModels
}

func (s *Server) handleListModels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.catalog.Discover(ctx)
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal models: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// copilot_create_session
func (s *Server) createSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_create_session",
		mcp.WithDescription("Create a new conversation session and make it current. Sessions live only for the lifetime of this server process."),
	)
	return tool, s.handleCreateSession
}

func (s *Server) handleCreateSession(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.sessions.Create()
	s.log.Info("session created", "session_id", id)
	data, _ := json.Marshal(map[string]string{"session_id": id})
	return mcp.NewToolResultText(string(data)), nil
}

// copilot_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_list_sessions",
		mcp.WithDescription("List all sessions with id, start time, last activity, and message count, in creation order."),
	)
	return tool, s.handleListSessions
}

func (s *Server) handleListSessions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := struct {
		Sessions []session.Summary `json:"sessions"`
		Current  string            `json:"current,omitempty"`
	}{Sessions: s.sessions.List(), Current: s.sessions.Current()}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// copilot_session_history
func (s *Server) sessionHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_session_history",
		mcp.WithDescription("Return the full prompt/response history of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
	return tool, s.handleSessionHistory
}

func (s *Server) handleSessionHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// copilot_status
func (s *Server) statusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("copilot_status",
		mcp.WithDescription("Check whether the GitHub Copilot CLI is installed and report its version."),
	)
	return tool, s.handleStatus
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := map[string]any{"installed": false}
	if version, err := s.probe.Version(ctx); err == nil {
		out["installed"] = true
		out["version"] = version
	}
	data, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(data)), nil
}
