package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/sanitize"
)

func newInboundCmd(opts *globalOptions) *cobra.Command {
	var (
		from      string
		subject   string
		text      string
		html      string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "inbound",
		Short: "Screen an inbound message before an agent reads it",
		Long: `Screen an inbound message. Mail from an allowed sender is sanitized and
printed as an agent-safe content block. Mail from anyone else is withheld,
recorded, and reported to the alert channel.

With --stdin the body is read from standard input. It is treated as HTML
when --html is also given as "-".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == "" {
				return fmt.Errorf("--from is required")
			}
			if fromStdin {
				body, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read message body: %w", err)
				}
				if html == "-" {
					html = string(body)
				} else {
					text = string(body)
				}
			}

			return withRuntime(cmd, opts, func(rt *runtime) error {
				svc, err := rt.services(cmd.Context(), cmd.ErrOrStderr(), nil)
				if err != nil {
					return err
				}
				res := svc.Screen.Inbound(cmd.Context(), sanitize.RawEmail{
					From:    from,
					Subject: subject,
					Text:    text,
					HTML:    html,
				})
				return rt.printer.Inbound(res)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Sender, either an address or \"Name <address>\"")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&text, "text", "", "Plain text body")
	cmd.Flags().StringVar(&html, "html", "", "HTML body, used when there is no plain text")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the body from standard input")

	return cmd
}
