package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Placeholders substituted in command arguments.
const (
	PlaceholderTarget  = "{target}"
	PlaceholderMessage = "{message}"
)

// CommandRunner executes name with args.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// CommandNotifier hands notices to an external program, for example a chat
// CLI:
//
//	clawdbot message send --channel slack --target {target} --message {message}
//
// Arguments are passed directly to the program, never through a shell.
type CommandNotifier struct {
	name string
	argv []string
	run  CommandRunner
}

// NewCommandNotifier creates a notifier registered under name that runs argv.
func NewCommandNotifier(name string, argv []string) (*CommandNotifier, error) {
	return NewCommandNotifierWithRunner(name, argv, execCommand)
}

// NewCommandNotifierWithRunner is NewCommandNotifier with a custom runner.
func NewCommandNotifierWithRunner(name string, argv []string, run CommandRunner) (*CommandNotifier, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("command notifier requires a program")
	}
	if name == "" {
		name = "command"
	}
	return &CommandNotifier{name: name, argv: argv, run: run}, nil
}

// Notify implements Notifier.
func (n *CommandNotifier) Notify(ctx context.Context, target, message string) error {
	args := make([]string, 0, len(n.argv)-1)
	for _, a := range n.argv[1:] {
		a = strings.ReplaceAll(a, PlaceholderTarget, target)
		a = strings.ReplaceAll(a, PlaceholderMessage, message)
		args = append(args, a)
	}
	if err := n.run(ctx, n.argv[0], args...); err != nil {
		return fmt.Errorf("%s notifier: %w", n.name, err)
	}
	return nil
}

// Name implements Notifier.
func (n *CommandNotifier) Name() string {
	return n.name
}
