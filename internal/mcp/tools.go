package mcp

import "github.com/mark3labs/mcp-go/mcp"

var startIntakeTool = mcp.NewTool("start_intake",
	mcp.WithDescription("Start a new business intake session. Returns the session id to pass to submit_answer."),
	mcp.WithString("user_id",
		mcp.Description("Identifier of the person being interviewed (default anonymous)"),
	),
)

var submitAnswerTool = mcp.NewTool("submit_answer",
	mcp.WithDescription("Submit the user's text to an intake session. Returns either the next follow-up question and the slot it targets, or status complete with the collected context."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_intake"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The user's words, verbatim"),
	),
	mcp.WithString("slot",
		mcp.Description("Slot the text answers; pass the slot from the previous question. Omit for the opening description."),
	),
)

var getContextTool = mcp.NewTool("get_context",
	mcp.WithDescription("Get the context collected so far for an intake session, one entry per slot."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_intake"),
	),
)

var selectExpertsTool = mcp.NewTool("select_experts",
	mcp.WithDescription("Pick 3 to 5 advisory roles for a completed intake session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id of a completed intake"),
	),
)
