package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/output"
)

func newAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize send providers",
	}

	cmd.AddCommand(newAuthGmailCmd(opts))

	return cmd
}

func newAuthGmailCmd(opts *globalOptions) *cobra.Command {
	var (
		account string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Authorize a Gmail account for sending",
		Long: `Authorize a Gmail account for the gmail provider.

Run once without --code to print the consent URL. Open it, approve access,
then run again with the code Google shows. GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET must be set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				if account == "" {
					account = rt.cfg.Provider.Gmail.Account
				}

				conf, err := google.OAuthConfig()
				if err != nil {
					return err
				}

				tokens := google.NewTokenStore()
				if code == "" {
					return rt.printer.Mutation("auth_required",
						output.F("account", account),
						output.F("url", google.AuthURL(conf)),
						output.F("hasToken", tokens.HasToken(account)),
					)
				}

				if err := tokens.ExchangeAndSave(cmd.Context(), conf, account, code); err != nil {
					return err
				}
				rt.logger.Info("gmail token saved", logging.Account(account))
				return rt.printer.Mutation("token_saved", output.F("account", account))
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account name (default: provider.gmail.account)")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")

	return cmd
}
