// Package mcp exposes intake sessions as Model Context Protocol tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/casebrief/internal/intake"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that lets an assistant run an intake dialogue.
type Server struct {
	intake *intake.Service
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *intake.Service) *Server {
	s := &Server{intake: svc}

	s.mcp = server.NewMCPServer(
		"casebrief",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(startIntakeTool, s.handleStartIntake)
	s.mcp.AddTool(submitAnswerTool, s.handleSubmitAnswer)
	s.mcp.AddTool(getContextTool, s.handleGetContext)
	s.mcp.AddTool(selectExpertsTool, s.handleSelectExperts)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
