package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/mailgate/internal/fileutil"
)

// DefaultAccount is used when no account name is given.
const DefaultAccount = "default"

// ErrNoClientCredentials is returned when the OAuth client id or secret is
// not configured.
var ErrNoClientCredentials = errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// TokenStore reads and writes account tokens in Dir.
type TokenStore struct {
	Dir string
}

// NewTokenStore returns a store rooted at the user cache directory.
func NewTokenStore() *TokenStore {
	return &TokenStore{Dir: filepath.Join(userCacheDir(), "mailgate")}
}

func (s *TokenStore) tokenFilePath(account string) string {
	return filepath.Join(s.Dir, "google-"+account+".token")
}

// HasToken reports whether a token file exists for account.
func (s *TokenStore) HasToken(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(s.tokenFilePath(account))
	return err == nil
}

// Load reads the stored token for account.
func (s *TokenStore) Load(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.tokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token for account %s: %w", account, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("token file for account %s is empty", account)
	}
	return &tok, nil
}

// Save writes tok for account.
func (s *TokenStore) Save(account string, tok *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.tokenFilePath(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// OAuthConfig builds the OAuth client configuration from the environment.
func OAuthConfig() (*oauth2.Config, error) {
	id := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	secret := strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	if id == "" || secret == "" {
		return nil, ErrNoClientCredentials
	}

	return &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// AuthURL returns the consent URL the user opens to obtain a code.
func AuthURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAndSave trades an authorization code for a token and stores it.
func (s *TokenStore) ExchangeAndSave(ctx context.Context, conf *oauth2.Config, account, code string) error {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return s.Save(account, tok)
}

// HTTPClient returns an authenticated client for account. Refreshed tokens
// are not written back; the refresh token stays valid.
func (s *TokenStore) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	conf, err := OAuthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := s.Load(account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok)), nil
}

// AuthenticationErrorMessage explains how to obtain a token for account.
func AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token missing for account %q. Run 'mailgate auth gmail --account %s' to authorize sending.", account, account)
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
