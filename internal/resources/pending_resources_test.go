package resources

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider/stdout"
	"github.com/teemow/mailgate/internal/server"
)

type fixture struct {
	sc    *server.ServerContext
	store *pending.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := pending.NewStore(filepath.Join(dir, "pending.json"), nil)
	deps := approval.Deps{
		Store:  store,
		Sender: stdout.NewWithWriter(io.Discard),
		Policy: policy.NewEvaluator(policy.NewFileSource(filepath.Join(dir, "security.json")), nil),
	}
	gate, err := approval.NewGate(deps)
	require.NoError(t, err)
	workflow, err := approval.NewWorkflow(deps)
	require.NoError(t, err)
	screen, err := approval.NewScreen(deps)
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), server.Services{Gate: gate, Workflow: workflow, Screen: screen})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return &fixture{sc: sc, store: store}
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func contentsText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok, "unexpected content type %T", contents[0])
	assert.Equal(t, "application/json", text.MIMEType)
	return text.Text
}

func TestRegisterPendingResources(t *testing.T) {
	f := newFixture(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))
	require.NoError(t, RegisterPendingResources(s, f.sc))
}

func TestPendingQueue(t *testing.T) {
	f := newFixture(t)

	contents, err := handlePendingQueue(context.Background(), readRequest(PendingQueueURI), f.sc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"pending":[]}`, contentsText(t, contents))

	require.NoError(t, f.store.Enqueue(pending.Message{ID: "p-1", To: "a@b.test", Subject: "Hello", Text: "Body"}))

	contents, err = handlePendingQueue(context.Background(), readRequest(PendingQueueURI), f.sc)
	require.NoError(t, err)

	var got struct {
		Count   int                    `json:"count"`
		Pending []approval.PendingView `json:"pending"`
	}
	require.NoError(t, json.Unmarshal([]byte(contentsText(t, contents)), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "p-1", got.Pending[0].ID)
}

func TestPendingMessage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Enqueue(pending.Message{ID: "p-1", To: "a@b.test", Subject: "Hello", Text: "Full body"}))

	contents, err := handlePendingMessage(context.Background(), readRequest("mailgate://pending/p-1"), f.sc)
	require.NoError(t, err)
	assert.Contains(t, contentsText(t, contents), `"text": "Full body"`)

	_, err = handlePendingMessage(context.Background(), readRequest("mailgate://pending/missing"), f.sc)
	require.Error(t, err)
	assert.Equal(t, approval.KindNotFound, approval.KindOf(err))

	_, err = handlePendingMessage(context.Background(), readRequest("mailgate://other"), f.sc)
	assert.Error(t, err)
}
