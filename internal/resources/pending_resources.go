package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/server"
)

// Resource URIs.
const (
	PendingQueueURI      = "mailgate://pending"
	pendingMessagePrefix = "mailgate://pending/"
	PendingMessageURI    = pendingMessagePrefix + "{id}"
)

// RegisterPendingResources exposes the pending queue as read-only resources.
func RegisterPendingResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	queueResource := mcp.NewResource(
		PendingQueueURI,
		"Pending Messages",
		mcp.WithResourceDescription("Outbound messages held for human approval, oldest first"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(queueResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handlePendingQueue(ctx, request, sc)
	})

	messageTemplate := mcp.NewResourceTemplate(
		PendingMessageURI,
		"Pending Message",
		mcp.WithTemplateDescription("A held message with its full body"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(messageTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handlePendingMessage(ctx, request, sc)
	})

	return nil
}

func handlePendingQueue(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	items := sc.Workflow().ListPending()
	if items == nil {
		items = []approval.PendingView{}
	}
	return jsonContents(request.Params.URI, map[string]interface{}{
		"count":   len(items),
		"pending": items,
	})
}

func handlePendingMessage(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, pendingMessagePrefix)
	if id == "" || id == request.Params.URI {
		return nil, fmt.Errorf("invalid pending message uri: %s", request.Params.URI)
	}

	msg, err := sc.Workflow().Get(id)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, msg)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
