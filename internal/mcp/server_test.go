package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/db"
	"github.com/ziadkadry99/casebrief/internal/intake"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	svc, err := intake.NewService(intake.NewStore(database), intake.Options{Policy: collector.DefaultPolicy()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewServer(svc)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
		return ""
	}
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{startIntakeTool, "start_intake"},
		{submitAnswerTool, "submit_answer"},
		{getContextTool, "get_context"},
		{selectExpertsTool, "select_experts"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.intake == nil {
		t.Error("intake service not set")
	}
}

func TestIntakeOverTools(t *testing.T) {
	srv := newTestServer(t)

	result := call(t, srv.handleStartIntake, map[string]any{"user_id": "alice"})
	if result.IsError {
		t.Fatalf("start_intake error: %v", result.Content)
	}
	var started map[string]string
	if err := json.Unmarshal([]byte(resultText(t, result)), &started); err != nil {
		t.Fatal(err)
	}
	sessionID := started["session_id"]
	if sessionID == "" {
		t.Fatal("no session id returned")
	}

	result = call(t, srv.handleSubmitAnswer, map[string]any{"session_id": sessionID, "text": "Sales are down"})
	if result.IsError {
		t.Fatalf("submit_answer error: %v", result.Content)
	}
	var submitted struct {
		Status string `json:"status"`
		Slot   string `json:"slot"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &submitted); err != nil {
		t.Fatal(err)
	}
	if submitted.Status != "incomplete" || submitted.Slot != "persona" {
		t.Errorf("unexpected submit result %+v", submitted)
	}

	result = call(t, srv.handleGetContext, map[string]any{"session_id": sessionID})
	if result.IsError {
		t.Fatalf("get_context error: %v", result.Content)
	}
	if !strings.Contains(resultText(t, result), "Sales are down") {
		t.Errorf("context missing problem: %s", resultText(t, result))
	}

	result = call(t, srv.handleSelectExperts, map[string]any{"session_id": sessionID})
	if !result.IsError {
		t.Error("expected select_experts to fail before completion")
	}
}

func TestToolArgumentErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		h    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]any
	}{
		{"submit without session", srv.handleSubmitAnswer, map[string]any{"text": "x"}},
		{"submit without text", srv.handleSubmitAnswer, map[string]any{"session_id": "x"}},
		{"submit unknown session", srv.handleSubmitAnswer, map[string]any{"session_id": "nope", "text": "x"}},
		{"context without session", srv.handleGetContext, map[string]any{}},
		{"context unknown session", srv.handleGetContext, map[string]any{"session_id": "nope"}},
		{"experts without session", srv.handleSelectExperts, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := call(t, tt.h, tt.args); !result.IsError {
				t.Error("expected tool error")
			}
		})
	}
}
