package signal

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Runner that records invocations and replays canned output.
type recorder struct {
	calls  [][]string
	stdout map[string]string
	err    map[string]error
}

func (r *recorder) run(_ context.Context, args ...string) (string, string, error) {
	r.calls = append(r.calls, args)
	// args[2] is the subcommand after "-u USER".
	sub := args[2]
	if err := r.err[sub]; err != nil {
		return "", "boom from signal-cli", err
	}
	return r.stdout[sub], "", nil
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		wantErr   bool
		errString string
	}{
		{name: "valid phone number", userID: "+15551234567"},
		{name: "empty user ID", userID: "", wantErr: true, errString: "userID cannot be empty"},
		{name: "missing plus sign", userID: "15551234567", wantErr: true, errString: "must be a phone number starting with +"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := exec.LookPath("signal-cli"); err != nil && !tt.wantErr {
				t.Skip("signal-cli not installed")
			}

			client, err := NewClient(tt.userID)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, client.UserID())
		})
	}
}

func TestSendMessage(t *testing.T) {
	rec := &recorder{}
	c, err := NewClientWithRunner("+15550000000", rec.run)
	require.NoError(t, err)

	require.NoError(t, c.SendMessage(context.Background(), "+15551111111", "hello"))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"-u", "+15550000000", "send", "+15551111111", "-m", "hello"}, rec.calls[0])
}

func TestSendMessage_Validation(t *testing.T) {
	rec := &recorder{}
	c, err := NewClientWithRunner("+15550000000", rec.run)
	require.NoError(t, err)

	tests := []struct {
		name      string
		recipient string
		message   string
		errString string
	}{
		{name: "empty recipient", recipient: "", message: "hi", errString: "recipient cannot be empty"},
		{name: "empty message", recipient: "+1555", message: "", errString: "message cannot be empty"},
		{name: "not a phone number", recipient: "alice", message: "hi", errString: "starting with +"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SendMessage(context.Background(), tt.recipient, tt.message)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)

			var sigErr *SignalError
			require.ErrorAs(t, err, &sigErr)
			assert.Equal(t, "send", sigErr.Op)
		})
	}
	assert.Empty(t, rec.calls)
}

func TestSendMessage_CommandFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	rec := &recorder{err: map[string]error{"send": cause}}
	c, err := NewClientWithRunner("+15550000000", rec.run)
	require.NoError(t, err)

	err = c.SendMessage(context.Background(), "+15551111111", "hello")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom from signal-cli")
}

const listGroupsOutput = `Id: abc123== Name: Ops Team  Description:   Active: true  Blocked: false
Id: def456== Name: Family  Description: home  Active: true  Blocked: false
`

func TestListGroups(t *testing.T) {
	rec := &recorder{stdout: map[string]string{"listGroups": listGroupsOutput}}
	c, err := NewClientWithRunner("+15550000000", rec.run)
	require.NoError(t, err)

	groups, err := c.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "abc123==", groups[0].ID)
	assert.Equal(t, "Ops Team", groups[0].Name)
	assert.Equal(t, "Family", groups[1].Name)
}

func TestParseGroups_MultiLine(t *testing.T) {
	groups := parseGroups(strings.Join([]string{
		"Id: g1",
		"Name: First",
		"",
		"Id: g2",
		"Name: Second",
	}, "\n"))
	require.Len(t, groups, 2)
	assert.Equal(t, Group{ID: "g1", Name: "First", Members: []string{}}, groups[0])
	assert.Equal(t, "Second", groups[1].Name)
}

func TestSendGroupMessage(t *testing.T) {
	rec := &recorder{stdout: map[string]string{"listGroups": listGroupsOutput}}
	c, err := NewClientWithRunner("+15550000000", rec.run)
	require.NoError(t, err)

	require.NoError(t, c.SendGroupMessage(context.Background(), "Ops Team", "pending"))
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"-u", "+15550000000", "send", "-g", "abc123==", "-m", "pending"}, rec.calls[1])

	err = c.SendGroupMessage(context.Background(), "Nope", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
