package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type gmailSvc interface {
	searchMessagesSvc
	listLabelsSvc
	profileSvc
}

// CallRecorder counts tool invocations by tool and result.
type CallRecorder interface {
	RecordToolCall(tool, result string)
}

// NewServer creates an MCP server with Gmail tools. rec may be nil.
func NewServer(svc gmailSvc, getter messageGetter, rec CallRecorder) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmailcal-mcp", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_messages",
		Description: "Search Gmail messages using Gmail search syntax",
	}, instrument(rec, "search_messages", NewSearchMessages(svc).SearchMessages))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_message",
		Description: "Get full normalized message content for a message ID",
	}, instrument(rec, "get_message", NewGetMessage(getter).GetMessage))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_labels",
		Description: "List all Gmail labels of the account",
	}, instrument(rec, "list_labels", NewListLabels(svc).ListLabels))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_connection",
		Description: "Check Gmail API connection and credentials",
	}, instrument(rec, "check_connection", NewCheckConnection(svc).CheckConnection))

	return server
}

func instrument[In, Out any](
	rec CallRecorder,
	name string,
	h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error),
) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	if rec == nil {
		return h
	}

	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)

		result := "success"
		if err != nil {
			result = "error"
		}
		rec.RecordToolCall(name, result)

		return res, out, err
	}
}
