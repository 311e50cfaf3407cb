package signal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes signal-cli with args and returns its stdout and stderr.
type Runner func(ctx context.Context, args ...string) (stdout, stderr string, err error)

// execRunner runs the signal-cli binary found on PATH.
func execRunner(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "signal-cli", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

// Client sends Signal messages through signal-cli.
type Client struct {
	userID string // The phone number registered with signal-cli (e.g., "+15551234567")
	run    Runner
}

func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	if !strings.HasPrefix(userID, "+") {
		return fmt.Errorf("userID must be a phone number starting with + (e.g., +15551234567)")
	}
	return nil
}

// NewClient creates a Client for a phone number already registered with
// signal-cli.
func NewClient(userID string) (*Client, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	if _, err := exec.LookPath("signal-cli"); err != nil {
		return nil, &SignalError{
			Op:     "initialize",
			UserID: userID,
			Err:    fmt.Errorf("signal-cli not found in PATH. Please install signal-cli: https://github.com/AsamK/signal-cli"),
		}
	}

	return &Client{userID: userID, run: execRunner}, nil
}

// NewClientWithRunner creates a Client that invokes run instead of the
// signal-cli binary.
func NewClientWithRunner(userID string, run Runner) (*Client, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return &Client{userID: userID, run: run}, nil
}

// UserID returns the phone number associated with this client.
func (c *Client) UserID() string {
	return c.userID
}

// SendMessage sends a text message to a Signal user.
func (c *Client) SendMessage(ctx context.Context, recipient, message string) error {
	if recipient == "" {
		return &SignalError{Op: "send", UserID: c.userID, Err: fmt.Errorf("recipient cannot be empty")}
	}
	if message == "" {
		return &SignalError{Op: "send", UserID: c.userID, Err: fmt.Errorf("message cannot be empty")}
	}
	if !strings.HasPrefix(recipient, "+") {
		return &SignalError{
			Op:     "send",
			UserID: c.userID,
			Err:    fmt.Errorf("recipient must be a phone number starting with + (e.g., +15551234567)"),
		}
	}

	// signal-cli -u USER_ID send RECIPIENT -m MESSAGE
	_, stderr, err := c.run(ctx, "-u", c.userID, "send", recipient, "-m", message)
	if err != nil {
		return &SignalError{
			Op:     "send",
			UserID: c.userID,
			Err:    fmt.Errorf("failed to send message: %w (stderr: %s)", err, strings.TrimSpace(stderr)),
		}
	}
	return nil
}

// SendGroupMessage sends a text message to the group with the given name.
func (c *Client) SendGroupMessage(ctx context.Context, groupName, message string) error {
	if groupName == "" {
		return &SignalError{Op: "sendGroup", UserID: c.userID, Err: fmt.Errorf("groupName cannot be empty")}
	}
	if message == "" {
		return &SignalError{Op: "sendGroup", UserID: c.userID, Err: fmt.Errorf("message cannot be empty")}
	}

	groupID, err := c.groupID(ctx, groupName)
	if err != nil {
		return &SignalError{Op: "sendGroup", UserID: c.userID, Err: fmt.Errorf("group not found: %w", err)}
	}

	// signal-cli -u USER_ID send -g GROUP_ID -m MESSAGE
	_, stderr, err := c.run(ctx, "-u", c.userID, "send", "-g", groupID, "-m", message)
	if err != nil {
		return &SignalError{
			Op:     "sendGroup",
			UserID: c.userID,
			Err:    fmt.Errorf("failed to send group message: %w (stderr: %s)", err, strings.TrimSpace(stderr)),
		}
	}
	return nil
}

func (c *Client) groupID(ctx context.Context, groupName string) (string, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return "", err
	}
	for _, g := range groups {
		if g.Name == groupName {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("group %q not found", groupName)
}

// ListGroups returns the groups the user is a member of.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	stdout, stderr, err := c.run(ctx, "-u", c.userID, "listGroups")
	if err != nil {
		return nil, &SignalError{
			Op:     "listGroups",
			UserID: c.userID,
			Err:    fmt.Errorf("failed to list groups: %w (stderr: %s)", err, strings.TrimSpace(stderr)),
		}
	}
	return parseGroups(stdout), nil
}

// parseGroups reads listGroups output. Each group is a run of
// "Key: value" fields, either on one line separated by spaces or one per
// line, starting with "Id: ".
func parseGroups(output string) []Group {
	groups := []Group{}
	var current *Group

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Id: ") {
			if current != nil {
				groups = append(groups, *current)
			}
			rest := strings.TrimPrefix(line, "Id: ")
			id, tail, _ := strings.Cut(rest, " ")
			current = &Group{ID: id, Members: []string{}}
			if idx := strings.Index(tail, "Name: "); idx >= 0 {
				current.Name = nameField(tail[idx+len("Name: "):])
			}
			continue
		}
		if strings.HasPrefix(line, "Name: ") && current != nil {
			current.Name = strings.TrimPrefix(line, "Name: ")
		}
	}

	if current != nil {
		groups = append(groups, *current)
	}
	return groups
}

// nameField trims the fields signal-cli prints after a group name on
// single-line output.
func nameField(s string) string {
	if idx := strings.Index(s, "  Description: "); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "  Active: "); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
