// Package google manages the OAuth2 tokens the Gmail send backend uses.
//
// Tokens are stored per account in the user cache directory
// (<cache>/mailgate/google-<account>.token). The OAuth client credentials
// come from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET; no credentials are
// compiled in.
package google
