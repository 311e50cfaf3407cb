package gate_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/output"
	"github.com/teemow/mailgate/internal/sanitize"
	"github.com/teemow/mailgate/internal/server"
	"github.com/teemow/mailgate/internal/tools/batch"
	"github.com/teemow/mailgate/internal/tools/common"
)

// Tool names.
const (
	ToolSendEmail     = "mailgate_send_email"
	ToolListPending   = "mailgate_list_pending"
	ToolScreenInbound = "mailgate_screen_inbound"
	ToolApprove       = "mailgate_approve"
	ToolReject        = "mailgate_reject"
)

// RegisterGateTools registers the gate tools. Approve and reject are only
// registered when readOnly is false.
func RegisterGateTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	sendEmailTool := mcp.NewTool(ToolSendEmail,
		mcp.WithDescription("Send an email through the gate. Messages to approved recipients are sent immediately, all others are held until a human approves them."),
		mcp.WithString("inbox_id",
			mcp.Required(),
			mcp.Description("Sending inbox: a from address for SES, an account name for Gmail"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Plain text body"),
		),
		mcp.WithString("html",
			mcp.Description("Optional HTML body"),
		),
	)
	s.AddTool(sendEmailTool, common.InstrumentedToolHandler(ToolSendEmail, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendEmail(ctx, request, sc)
		}))

	listPendingTool := mcp.NewTool(ToolListPending,
		mcp.WithDescription("List outbound emails waiting for approval"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listPendingTool, common.InstrumentedToolHandler(ToolListPending, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListPending(ctx, request, sc)
		}))

	screenTool := mcp.NewTool(ToolScreenInbound,
		mcp.WithDescription("Sanitize an inbound email and check its sender against the trust policy. Returns the content for allowed senders only."),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Sender as it appears in the From header"),
		),
		mcp.WithString("subject",
			mcp.Description("Email subject"),
		),
		mcp.WithString("text",
			mcp.Description("Plain text body"),
		),
		mcp.WithString("html",
			mcp.Description("HTML body, used when no text body is given"),
		),
	)
	s.AddTool(screenTool, common.InstrumentedToolHandler(ToolScreenInbound, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScreenInbound(ctx, request, sc)
		}))

	// Approval is a human decision; only expose it when explicitly enabled
	if readOnly {
		return nil
	}

	approveTool := mcp.NewTool(ToolApprove,
		mcp.WithDescription("Send held emails and, by default, add their recipients to the approved list"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Pending id, or a JSON array of pending ids"),
		),
		mcp.WithBoolean("widen_allowlist",
			mcp.Description("Add the recipient to the approved list after sending (default: true)"),
		),
	)
	s.AddTool(approveTool, common.InstrumentedToolHandler(ToolApprove, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleApprove(ctx, request, sc)
		}))

	rejectTool := mcp.NewTool(ToolReject,
		mcp.WithDescription("Discard held emails without sending them"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Pending id, or a JSON array of pending ids"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(rejectTool, common.InstrumentedToolHandler(ToolReject, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReject(ctx, request, sc)
		}))

	return nil
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	inboxID, err := common.RequiredStringArg(args, "inbox_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := sc.Gate().Submit(ctx, inboxID, approval.OutboundMessage{
		To:      common.StringArg(args, "to"),
		Subject: common.StringArg(args, "subject"),
		Text:    common.StringArg(args, "text"),
		HTML:    common.StringArg(args, "html"),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(output.FormatSubmit(res)), nil
}

func handleListPending(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(output.FormatPending(sc.Workflow().ListPending())), nil
}

func handleScreenInbound(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	from, err := common.RequiredStringArg(args, "from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Bodies keep their whitespace; the sanitizer normalizes them
	text, _ := args["text"].(string)
	html, _ := args["html"].(string)

	res := sc.Screen().Inbound(ctx, sanitize.RawEmail{
		From:    from,
		Subject: common.StringArg(args, "subject"),
		Text:    text,
		HTML:    html,
	})

	if res.Verdict == approval.VerdictBlocked {
		return mcp.NewToolResultError(output.FormatMutation("inbound_blocked",
			output.F("from", res.Email.From),
			output.F("subject", res.Email.Subject),
			output.F("alerted", res.Alerted),
		)), nil
	}
	return mcp.NewToolResultText(res.Content), nil
}

func handleApprove(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseIDs(args["id"], "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := approval.ApproveOptions{WidenAllowlist: common.BoolArg(args, "widen_allowlist", true)}
	results := batch.Process(ctx, ids, func(ctx context.Context, id string) (string, error) {
		res, err := sc.Workflow().Approve(ctx, id, opts)
		if err != nil {
			return "", err
		}
		return output.FormatMutation("message_approved",
			output.F("messageId", res.MessageID),
			output.F("to", res.To),
			output.F("subject", res.Subject),
		), nil
	})

	return batchResult(results), nil
}

func handleReject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseIDs(request.GetArguments()["id"], "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Process(ctx, ids, func(ctx context.Context, id string) (string, error) {
		res, err := sc.Workflow().Reject(ctx, id)
		if err != nil {
			return "", err
		}
		return output.FormatMutation("message_rejected",
			output.F("pendingId", res.PendingID),
			output.F("to", res.To),
			output.F("subject", res.Subject),
		), nil
	})

	return batchResult(results), nil
}

// batchResult marks the tool result as an error only when every id failed.
func batchResult(results []batch.Result) *mcp.CallToolResult {
	text := batch.FormatResults(results, output.FormatCompact)
	if batch.Summarize(results).Successful == 0 {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}
