package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/output"
)

func newPolicyCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the trust configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check-sender <address>",
		Short: "Report whether an inbound sender would reach the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				return rt.printer.Mutation("sender_checked",
					output.F("address", args[0]),
					output.F("allowed", rt.policy().IsSenderAllowed(args[0])),
				)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check-recipient <address>",
		Short: "Report whether mail to a recipient goes out without approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				return rt.printer.Mutation("recipient_checked",
					output.F("address", args[0]),
					output.F("approved", rt.policy().IsRecipientApproved(args[0])),
				)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the security config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				cfg, err := rt.policy().Config()
				if err != nil {
					return err
				}
				if cfg == nil {
					return rt.printer.Mutation("policy_absent",
						output.F("path", rt.cfg.Paths.Security),
						output.F("mode", "unrestricted"),
					)
				}
				return rt.printer.Value(cfg)
			})
		},
	})

	return cmd
}
