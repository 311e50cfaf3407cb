// Package stdout implements a Sender that prints messages instead of
// delivering them. It is the default backend and is useful for dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/teemow/mailgate/internal/provider"
)

// Provider prints messages in a human-readable format.
type Provider struct {
	mu     sync.Mutex
	writer io.Writer
}

// New returns a Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter returns a Provider that writes to w.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints msg and returns a generated id.
func (p *Provider) Send(_ context.Context, inboxID string, msg provider.Message) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", provider.ErrNoRecipient
	}

	id := "stdout-" + uuid.NewString()

	var b strings.Builder
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Message-ID: %s\n", id)
	if inboxID != "" {
		fmt.Fprintf(&b, "Inbox: %s\n", inboxID)
	}
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")

	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	b.WriteString(body + "\n")
	b.WriteString("========================================\n")

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return "", fmt.Errorf("write message: %w", err)
	}
	return id, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
