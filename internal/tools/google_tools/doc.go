// Package google_tools provides MCP tools that authorize the Gmail send
// provider.
//
// The OAuth flow:
//  1. Call mailgate_gmail_auth_url to get the authorization URL
//  2. The user visits the URL and authorizes access
//  3. The user provides the authorization code
//  4. Call mailgate_gmail_save_code with the code to save the token
//
// The tools are registered only when the gmail provider is configured.
// Saved tokens are refreshed automatically when mail is sent.
package google_tools
