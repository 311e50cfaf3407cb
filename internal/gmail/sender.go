package gmail

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/provider"
)

// ClientFactory creates the Client for an account.
type ClientFactory func(ctx context.Context, account string) (*Client, error)

// Sender implements provider.Sender on top of per-account Clients. The inbox
// id names the account; an empty inbox id uses the default account.
type Sender struct {
	defaultAccount string
	factory        ClientFactory

	mu      sync.Mutex
	clients map[string]*Client
}

// NewSender returns a Sender that authenticates from tokens.
func NewSender(tokens *google.TokenStore, defaultAccount string, logger *slog.Logger) *Sender {
	return NewSenderWithFactory(defaultAccount, func(ctx context.Context, account string) (*Client, error) {
		return NewClientForAccount(ctx, tokens, account, logger)
	})
}

// NewSenderWithFactory returns a Sender using factory to build clients.
func NewSenderWithFactory(defaultAccount string, factory ClientFactory) *Sender {
	if defaultAccount == "" {
		defaultAccount = google.DefaultAccount
	}
	return &Sender{
		defaultAccount: defaultAccount,
		factory:        factory,
		clients:        make(map[string]*Client),
	}
}

func (s *Sender) client(ctx context.Context, inboxID string) (*Client, error) {
	account := strings.TrimSpace(inboxID)
	if account == "" {
		account = s.defaultAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[account]; ok {
		return c, nil
	}
	c, err := s.factory(ctx, account)
	if err != nil {
		return nil, err
	}
	s.clients[account] = c
	return c, nil
}

// Send delivers msg from the account named by inboxID.
func (s *Sender) Send(ctx context.Context, inboxID string, msg provider.Message) (string, error) {
	c, err := s.client(ctx, inboxID)
	if err != nil {
		return "", err
	}
	return c.SendEmail(ctx, msg)
}

// Name returns the provider name.
func (s *Sender) Name() string {
	return "gmail"
}
