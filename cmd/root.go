package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/output"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server.
func SetVersion(v string) {
	version = v
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	format     string
	debug      bool
}

// newRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func newRootCmd() (*cobra.Command, *globalOptions) {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mailgate",
		Short: "Outbound email gate with human approval",
		Long: `mailgate sits between an automated agent and real email delivery.

Mail to approved recipients is sent immediately. Everything else is held
in a pending queue until a human approves or rejects it. Inbound mail is
sanitized and checked against a sender allowlist before an agent sees it.

It can run as:
  - A CLI for sending, approving and screening mail
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "mailgate version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the YAML config file (default: $MAILGATE_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", string(output.FormatCompact), "Output format: compact or json")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newSendCmd(opts))
	rootCmd.AddCommand(newPendingCmd(opts))
	rootCmd.AddCommand(newInboundCmd(opts))
	rootCmd.AddCommand(newPolicyCmd(opts))
	rootCmd.AddCommand(newAuthCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd, opts
}

// Execute is the main entry point for the CLI application
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes args against a fresh command tree and returns the exit code.
// Failures are printed to stderr as error:<kind>:<message>.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd, opts := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		format, ferr := output.ParseFormat(opts.format)
		if ferr != nil {
			format = output.FormatCompact
		}
		if perr := output.New(stderr, format).Error(err); perr != nil {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}
