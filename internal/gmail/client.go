package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/provider"
	"github.com/teemow/mailgate/internal/retry"
)

// API is the slice of the Gmail service the client needs.
type API interface {
	// SendRaw sends a base64url-encoded RFC 2822 message and returns its id.
	SendRaw(ctx context.Context, raw string) (string, error)

	// Signature returns the primary send-as signature, possibly empty.
	Signature(ctx context.Context) (string, error)
}

// serviceAPI adapts the generated Gmail UsersService to API.
type serviceAPI struct {
	users *gmail.UsersService
}

func (s *serviceAPI) SendRaw(ctx context.Context, raw string) (string, error) {
	sent, err := s.users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

func (s *serviceAPI) Signature(ctx context.Context) (string, error) {
	sendAs, err := s.users.Settings.SendAs.Get("me", "me").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return sendAs.Signature, nil
}

// Client sends mail for one account.
type Client struct {
	api     API
	account string
	retry   retry.Options
	logger  *slog.Logger

	sigOnce   sync.Once
	signature string
}

// NewClientForAccount creates a Client authenticated with the stored token
// for account.
func NewClientForAccount(ctx context.Context, tokens *google.TokenStore, account string, logger *slog.Logger) (*Client, error) {
	httpClient, err := tokens.HTTPClient(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", google.AuthenticationErrorMessage(account), err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return NewClientWithAPI(&serviceAPI{users: svc.Users}, account, logger), nil
}

// NewClientWithAPI returns a Client backed by api, used for testing.
func NewClientWithAPI(api API, account string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:     api,
		account: account,
		logger:  logging.WithAccount(logging.WithService(logger, "gmail"), account),
	}
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// SetRetryOptions replaces the retry policy for the signature lookup.
func (c *Client) SetRetryOptions(opts retry.Options) {
	c.retry = opts
}

// GetSignature returns the account signature. The lookup is retried on
// transient errors and its result cached; a failed lookup yields "" so that
// mail still goes out.
func (c *Client) GetSignature(ctx context.Context) string {
	c.sigOnce.Do(func() {
		opts := c.retry
		opts.Operation = "gmail_signature"
		opts.Logger = c.logger

		sig, err := retry.Do(ctx, c.api.Signature, opts)
		if err != nil {
			c.logger.Warn("failed to fetch signature, sending without it", logging.Err(err))
			return
		}
		c.signature = sig
	})
	return c.signature
}

// SendEmail sends msg and returns the Gmail message id. The send itself is
// not retried.
func (c *Client) SendEmail(ctx context.Context, msg provider.Message) (string, error) {
	if msg.To == "" {
		return "", provider.ErrNoRecipient
	}

	raw, err := buildRawMessage(msg, c.GetSignature(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	id, err := c.api.SendRaw(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return id, nil
}
