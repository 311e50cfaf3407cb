package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/pending"
	"github.com/teemow/mailgate/internal/policy"
	"github.com/teemow/mailgate/internal/provider"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []provider.Message
	inbox []string
	err   error
}

func (f *fakeSender) Send(_ context.Context, inboxID string, msg provider.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	f.inbox = append(f.inbox, inboxID)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeSender) Name() string { return "fake" }

type fakeAlerter struct {
	calls []string
}

func (f *fakeAlerter) Dispatch(_ context.Context, channel, target, message string) bool {
	f.calls = append(f.calls, channel+"|"+target+"|"+message)
	return true
}

type memRecorder struct {
	decisions []history.Decision
}

func (m *memRecorder) Record(_ context.Context, d history.Decision) error {
	m.decisions = append(m.decisions, d)
	return nil
}

type harness struct {
	dir      string
	store    *pending.Store
	eval     *policy.Evaluator
	sender   *fakeSender
	alerts   *fakeAlerter
	recorder *memRecorder
	deps     Deps
}

var fixedNow = time.Date(2026, 3, 4, 15, 0, 0, 123456789, time.FixedZone("CST", -6*3600))

func newHarness(t *testing.T, securityJSON string) *harness {
	t.Helper()
	dir := t.TempDir()
	secPath := filepath.Join(dir, "agentmail-security.json")
	if securityJSON != "" {
		require.NoError(t, os.WriteFile(secPath, []byte(securityJSON), 0o600))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		dir:      dir,
		store:    pending.NewStore(filepath.Join(dir, "pending-emails.json"), logger),
		eval:     policy.NewEvaluator(policy.NewFileSource(secPath), logger),
		sender:   &fakeSender{},
		alerts:   &fakeAlerter{},
		recorder: &memRecorder{},
	}
	h.deps = Deps{
		Store:    h.store,
		Sender:   h.sender,
		Policy:   h.eval,
		Alerts:   h.alerts,
		History:  h.recorder,
		Logger:   logger,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}
	return h
}

func (h *harness) workflow(t *testing.T) *Workflow {
	t.Helper()
	w, err := NewWorkflow(h.deps)
	require.NoError(t, err)
	return w
}

func (h *harness) enqueue(t *testing.T, id, to string) pending.Message {
	t.Helper()
	msg := pending.Message{
		ID:        id,
		InboxID:   "agent@gate.test",
		To:        to,
		Subject:   "Subject " + id,
		Text:      "Body " + id,
		HTML:      "<p>Body</p>",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, h.store.Enqueue(msg))
	return msg
}

const allowlistConfig = `{
  "alertChannel": "signal",
  "alertTo": "+15550100",
  "outboundApprovalChannel": "signal",
  "outboundApprovalTo": "group:Approvers",
  "email": {
    "dmPolicy": "allowlist",
    "allowFrom": ["boss@corp.test"],
    "allowDomains": ["corp.test"],
    "approvedRecipients": ["known@partner.test"]
  }
}`

func TestApprove_SendsRemovesAndWidens(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	h.enqueue(t, "a", "other@x.test")
	held := h.enqueue(t, "b", "New@Stranger.test")

	res, err := h.workflow(t).Approve(context.Background(), "b", DefaultApproveOptions())
	require.NoError(t, err)

	assert.Equal(t, ApproveResult{
		MessageID: "msg-1",
		To:        "New@Stranger.test",
		Subject:   "Subject b",
		PendingID: "b",
		Widened:   true,
	}, res)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, provider.Message{To: held.To, Subject: held.Subject, Text: held.Text, HTML: held.HTML}, h.sender.sent[0])
	assert.Equal(t, []string{"agent@gate.test"}, h.sender.inbox)

	remaining := h.store.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, "a", remaining[0].ID)

	assert.True(t, h.eval.IsRecipientApproved("new@stranger.test"))

	require.Len(t, h.recorder.decisions, 1)
	assert.Equal(t, history.ActionSent, h.recorder.decisions[0].Action)
	assert.Equal(t, "msg-1", h.recorder.decisions[0].ProviderMessageID)
}

func TestApprove_SameRecipientTwiceWidensOnce(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	h.enqueue(t, "a", "new@stranger.test")
	h.enqueue(t, "b", "New Person <NEW@stranger.test>")
	w := h.workflow(t)

	first, err := w.Approve(context.Background(), "a", DefaultApproveOptions())
	require.NoError(t, err)
	second, err := w.Approve(context.Background(), "b", DefaultApproveOptions())
	require.NoError(t, err)

	assert.True(t, first.Widened)
	assert.False(t, second.Widened)
	assert.Len(t, h.sender.sent, 2)

	cfg, err := h.eval.Config()
	require.NoError(t, err)
	require.NotNil(t, cfg.Email)
	assert.Equal(t, []string{"known@partner.test", "new@stranger.test"}, cfg.Email.ApprovedRecipients)
}

func TestApprove_WithoutConfigKeepsPolicyOpen(t *testing.T) {
	h := newHarness(t, "")
	h.enqueue(t, "a", "new@y.test")

	res, err := h.workflow(t).Approve(context.Background(), "a", DefaultApproveOptions())
	require.NoError(t, err)

	assert.False(t, res.Widened)
	assert.True(t, h.eval.IsRecipientApproved("anyone@anywhere.test"))
	_, statErr := os.Stat(filepath.Join(h.dir, "agentmail-security.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApprove_NoWiden(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	h.enqueue(t, "a", "new@stranger.test")

	res, err := h.workflow(t).Approve(context.Background(), "a", ApproveOptions{})
	require.NoError(t, err)

	assert.False(t, res.Widened)
	assert.False(t, h.eval.IsRecipientApproved("new@stranger.test"))
}

func TestApprove_NotFound(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.workflow(t).Approve(context.Background(), "missing", DefaultApproveOptions())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, h.sender.sent)
}

func TestApprove_SendFailureLeavesMessageQueued(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	held := h.enqueue(t, "a", "new@stranger.test")
	sendErr := errors.New("503 service unavailable")
	h.sender.err = sendErr

	_, err := h.workflow(t).Approve(context.Background(), "a", DefaultApproveOptions())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, sendErr)
	assert.Len(t, h.sender.sent, 1)

	msgs := h.store.List()
	require.Len(t, msgs, 1)
	assert.Equal(t, held, msgs[0])
	assert.False(t, h.eval.IsRecipientApproved("new@stranger.test"))
	assert.Empty(t, h.recorder.decisions)
}

func TestApprove_TwiceSendsOnce(t *testing.T) {
	h := newHarness(t, "")
	h.enqueue(t, "a", "x@y.test")
	w := h.workflow(t)

	_, err := w.Approve(context.Background(), "a", DefaultApproveOptions())
	require.NoError(t, err)
	_, err = w.Approve(context.Background(), "a", DefaultApproveOptions())

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, h.sender.sent, 1)
}

type failingRemoveStore struct {
	*pending.Store
}

func (f failingRemoveStore) Remove(string) (pending.Message, error) {
	return pending.Message{}, errors.New("disk full")
}

func TestApprove_StorageFailure(t *testing.T) {
	h := newHarness(t, "")
	h.enqueue(t, "a", "x@y.test")
	h.deps.Store = failingRemoveStore{h.store}

	_, err := h.workflow(t).Approve(context.Background(), "a", DefaultApproveOptions())

	assert.ErrorIs(t, err, ErrStorageFailed)
	assert.Len(t, h.sender.sent, 1)
}

type failingWidenPolicy struct {
	*policy.Evaluator
}

func (failingWidenPolicy) AddApprovedRecipient(string) (bool, error) {
	return false, errors.New("read-only filesystem")
}

func TestApprove_WidenFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	h.enqueue(t, "a", "new@stranger.test")
	h.deps.Policy = failingWidenPolicy{h.eval}

	res, err := h.workflow(t).Approve(context.Background(), "a", DefaultApproveOptions())

	require.NoError(t, err)
	assert.False(t, res.Widened)
	assert.Empty(t, h.store.List())
}

func TestReject(t *testing.T) {
	h := newHarness(t, allowlistConfig)
	h.enqueue(t, "a", "new@stranger.test")
	w := h.workflow(t)

	res, err := w.Reject(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, RejectResult{PendingID: "a", To: "new@stranger.test", Subject: "Subject a"}, res)
	assert.Empty(t, h.sender.sent)
	assert.Empty(t, h.store.List())
	assert.False(t, h.eval.IsRecipientApproved("new@stranger.test"))
	require.Len(t, h.recorder.decisions, 1)
	assert.Equal(t, history.ActionRejected, h.recorder.decisions[0].Action)

	_, err = w.Reject(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPending_TruncatesSubject(t *testing.T) {
	h := newHarness(t, "")
	long := strings.Repeat("é", 45)
	require.NoError(t, h.store.Enqueue(pending.Message{ID: "1", To: "a@b.test", Subject: long, Text: "t"}))
	require.NoError(t, h.store.Enqueue(pending.Message{ID: "2", To: "c@d.test", Subject: "short", Text: "t"}))

	views := h.workflow(t).ListPending()

	require.Len(t, views, 2)
	assert.Equal(t, "1", views[0].ID)
	assert.Equal(t, strings.Repeat("é", 40), views[0].Subject)
	assert.Equal(t, "short", views[1].Subject)
}

func TestListPending_Empty(t *testing.T) {
	h := newHarness(t, "")
	views := h.workflow(t).ListPending()
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestWorkflow_Get(t *testing.T) {
	h := newHarness(t, "")
	held := h.enqueue(t, "a", "x@y.test")
	w := h.workflow(t)

	got, err := w.Get("a")
	require.NoError(t, err)
	assert.Equal(t, held, got)

	_, err = w.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewWorkflow_RequiresDeps(t *testing.T) {
	_, err := NewWorkflow(Deps{})
	assert.Error(t, err)
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindSendFailed, ID: "x", Err: io.EOF})

	assert.ErrorIs(t, err, ErrSendFailed)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, KindSendFailed, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
	assert.Equal(t, "send failed: x: EOF", (&Error{Kind: KindSendFailed, ID: "x", Err: io.EOF}).Error())
}
