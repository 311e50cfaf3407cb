package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/history"
	"github.com/teemow/mailgate/internal/sanitize"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("table")
	assert.Error(t, err)
}

func TestFormatMutation(t *testing.T) {
	got := FormatMutation("message_approved",
		F("messageId", "m-1"),
		F("to", "jane@example.com"),
		F("subject", "Hello"),
		F("widened", true),
	)
	assert.Equal(t, "message_approved:messageId:m-1|to:jane@example.com|subject:Hello", got)

	got = FormatMutation("message_queued",
		F("messageId", ""),
		F("pendingId", "p-1"),
		F("outcome", approval.OutcomeQueued),
	)
	assert.Equal(t, "message_queued:pendingId:p-1|outcome:queued", got)
}

func TestPrinter_MutationJSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, FormatJSON)

	require.NoError(t, p.Mutation("message_rejected", F("pendingId", "p-1"), F("to", ""), F("subject", "Hi")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "message_rejected", got["action"])
	assert.Equal(t, "p-1", got["pendingId"])
	assert.NotContains(t, got, "to")
}

func TestPrinter_Pending(t *testing.T) {
	created := time.Date(2026, 3, 4, 15, 0, 0, 123000000, time.FixedZone("CST", -6*3600))
	items := []approval.PendingView{
		{ID: "p-1", To: "jane@example.com", Subject: "Hello | world", CreatedAt: created},
		{ID: "p-2", To: "bob@example.org", Subject: "", CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatCompact).Pending(items))
	assert.Equal(t,
		"pending[2]{id|to|subject|created}:\n"+
			"p-1|jane@example.com|Hello / world|2026-03-04T21:00:00.123Z\n"+
			"p-2|bob@example.org|-|2026-03-04T21:00:00.123Z\n",
		buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatCompact).Pending(nil))
	assert.Equal(t, "pending[0]{}:\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Pending(nil))
	assert.JSONEq(t, `{"count":0,"pending":[]}`, buf.String())
}

func TestPrinter_History(t *testing.T) {
	at := time.Date(2026, 3, 4, 21, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatCompact).History([]history.Decision{
		{ID: 7, Action: history.ActionSent, Address: "jane@example.com", Subject: "Hi", At: at},
	}))
	assert.Equal(t,
		"history[1]{id|action|address|subject|at}:\n7|sent|jane@example.com|Hi|2026-03-04T21:00:00.000Z\n",
		buf.String())
}

func TestPrinter_Inbound(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, FormatCompact)

	require.NoError(t, p.Inbound(approval.InboundResult{
		Verdict: approval.VerdictDelivered,
		Content: "<email_content>\nFrom: a@b\nSubject: s\n\nbody\n</email_content>",
	}))
	assert.Equal(t, "<email_content>\nFrom: a@b\nSubject: s\n\nbody\n</email_content>\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Inbound(approval.InboundResult{
		Verdict: approval.VerdictBlocked,
		Email:   sanitize.SanitizedEmail{From: "spam@evil.test", Subject: "Win"},
		Alerted: true,
	}))
	assert.Equal(t, "inbound_blocked:from:spam@evil.test|subject:Win|alerted:true\n", buf.String())
}

func TestPrinter_Error(t *testing.T) {
	err := &approval.Error{Kind: approval.KindNotFound, ID: "p-9"}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatCompact).Error(err))
	assert.Equal(t, "error:not_found:pending message not found: p-9\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatCompact).Error(errors.New("boom")))
	assert.Equal(t, "error:error:boom\n", buf.String())

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Error(err))
	assert.JSONEq(t,
		`{"success":false,"error":{"kind":"not_found","message":"pending message not found: p-9"}}`,
		buf.String())
}

func TestFormatTime_Zero(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
}

func TestFormatSubmit(t *testing.T) {
	sent := approval.SubmitResult{Outcome: approval.OutcomeSent, MessageID: "m-1", To: "a@b.test", Subject: "Hi"}
	assert.Equal(t, "message_sent:messageId:m-1|to:a@b.test|subject:Hi", FormatSubmit(sent))

	queued := approval.SubmitResult{Outcome: approval.OutcomeQueued, PendingID: "p-1", To: "c@d.test", Subject: "Yo"}
	assert.Equal(t, "message_queued:pendingId:p-1|to:c@d.test|subject:Yo", FormatSubmit(queued))

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Submit(queued))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "message_queued", got["action"])
	assert.Equal(t, "p-1", got["pendingId"])
}
