// Package gmail delivers approved mail through the Gmail API.
//
// A Client is bound to one Google account and sends through
// users.messages.send. The account's send-as signature is fetched once and
// appended to every message. Sender maps the gate's inbox ids to accounts and
// creates clients lazily, one per account.
//
// Authentication uses the per-account tokens managed by the google package:
//
//	store := google.NewTokenStore()
//	sender := gmail.NewSender(store, "default", logger)
//	id, err := sender.Send(ctx, "work", provider.Message{
//	    To:      "recipient@example.com",
//	    Subject: "Hello",
//	    Text:    "This is a test email",
//	})
package gmail
