// Package signal sends Signal messages by driving signal-cli.
//
// mailgate uses it to deliver blocked-sender alerts and pending-approval
// notices. The signal-cli binary must be installed and the sending number
// registered with it before use:
//
//	signal-cli -u YOUR_PHONE_NUMBER register
//	signal-cli -u YOUR_PHONE_NUMBER verify CODE_RECEIVED
//
// Credentials live in the signal-cli data directory (typically
// ~/.local/share/signal-cli/).
//
// Example usage:
//
//	client, err := signal.NewClient("+15551234567")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = client.SendMessage(ctx, "+15559876543", "[BLOCKED] Email from ...")
//	err = client.SendGroupMessage(ctx, "Ops", "Pending approval ...")
package signal
