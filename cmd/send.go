package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/approval"
)

func newSendCmd(opts *globalOptions) *cobra.Command {
	var (
		to      string
		subject string
		text    string
		html    string
	)

	cmd := &cobra.Command{
		Use:   "send <inboxId>",
		Short: "Send a message through the gate",
		Long: `Send a message from the given inbox. Approved recipients get the message
immediately; anyone else is held in the pending queue and the configured
approval channel is notified.

For the gmail provider the inbox id is the account name. For ses an inbox
id containing '@' is used as the From address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				svc, err := rt.services(cmd.Context(), cmd.OutOrStdout(), nil)
				if err != nil {
					return err
				}
				res, err := svc.Gate.Submit(cmd.Context(), args[0], approval.OutboundMessage{
					To:      to,
					Subject: subject,
					Text:    text,
					HTML:    html,
				})
				if err != nil {
					return err
				}
				return rt.printer.Submit(res)
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&text, "text", "", "Plain text body")
	cmd.Flags().StringVar(&html, "html", "", "Optional HTML body")

	return cmd
}
