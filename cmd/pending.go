package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/output"
)

func newPendingCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Review messages held for approval",
	}

	cmd.AddCommand(newPendingListCmd(opts))
	cmd.AddCommand(newPendingApproveCmd(opts))
	cmd.AddCommand(newPendingRejectCmd(opts))
	cmd.AddCommand(newPendingHistoryCmd(opts))

	return cmd
}

func newPendingListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List held messages, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				workflow, err := rt.reviewWorkflow()
				if err != nil {
					return err
				}
				return rt.printer.Pending(workflow.ListPending())
			})
		},
	}
}

func newPendingApproveCmd(opts *globalOptions) *cobra.Command {
	var noAllowlist bool

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Send a held message and approve its recipient",
		Long: `Send the held message with the given id. On success the recipient is
added to the approved list so future mail goes straight out; pass
--no-allowlist to send this one message only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				svc, err := rt.services(cmd.Context(), cmd.OutOrStdout(), nil)
				if err != nil {
					return err
				}
				res, err := svc.Workflow.Approve(cmd.Context(), args[0], approval.ApproveOptions{WidenAllowlist: !noAllowlist})
				if err != nil {
					return err
				}
				return rt.printer.Mutation("message_approved",
					output.F("messageId", res.MessageID),
					output.F("to", res.To),
					output.F("subject", res.Subject),
					output.F("pendingId", res.PendingID),
					output.F("widened", res.Widened),
				)
			})
		},
	}

	cmd.Flags().BoolVar(&noAllowlist, "no-allowlist", false, "Do not add the recipient to the approved list")

	return cmd
}

func newPendingRejectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Discard a held message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				workflow, err := rt.reviewWorkflow()
				if err != nil {
					return err
				}
				res, err := workflow.Reject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printer.Mutation("message_rejected",
					output.F("pendingId", res.PendingID),
					output.F("to", res.To),
					output.F("subject", res.Subject),
				)
			})
		},
	}
}

func newPendingHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded gate decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				store, err := rt.historyStore()
				if err != nil {
					return err
				}
				items, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return rt.printer.History(items)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of decisions to show (0 for all)")

	return cmd
}
