package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleStartIntake(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.intake.Start(ctx, request.GetString("user_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("starting intake failed: %v", err)), nil
	}
	return jsonResult(map[string]string{
		"session_id": sess.ID,
		"next":       "Ask the user to describe their business challenge, then call submit_answer without a slot.",
	})
}

func (s *Server) handleSubmitAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	resp, err := s.intake.Submit(ctx, sessionID, text, request.GetString("slot", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleGetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	collected, err := s.intake.Context(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading context failed: %v", err)), nil
	}
	return jsonResult(collected)
}

func (s *Server) handleSelectExperts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	panel, err := s.intake.SelectExperts(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("selecting experts failed: %v", err)), nil
	}
	return jsonResult(panel)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
