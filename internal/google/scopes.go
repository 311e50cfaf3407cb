package google

// DefaultOAuthScopes are the scopes the Gmail backend needs: sending mail and
// reading the send-as signature.
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.settings.basic",
}
