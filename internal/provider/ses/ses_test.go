package ses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailgate/internal/provider"
	"github.com/teemow/mailgate/internal/retry"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func newTestProvider(mock *mockSESClient) *Provider {
	p := NewWithClient("sender@example.com", mock, nil)
	p.SetRetryOptions(retry.Options{InitialDelay: time.Millisecond})
	return p
}

func TestName(t *testing.T) {
	assert.Equal(t, "ses", NewWithClient("a@b.c", &mockSESClient{}, nil).Name())
}

func TestSend_TextOnly(t *testing.T) {
	mock := &mockSESClient{}
	p := newTestProvider(mock)

	id, err := p.Send(context.Background(), "inbox-1", provider.Message{
		To:      "to@example.com",
		Subject: "Test Subject",
		Text:    "Hello, World!",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-message-id", id)
	assert.Equal(t, 1, mock.callCount)

	input := mock.lastInput
	require.NotNil(t, input.Content.Simple)
	assert.Equal(t, "sender@example.com", aws.ToString(input.FromEmailAddress))
	assert.Equal(t, []string{"to@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Test Subject", aws.ToString(input.Content.Simple.Subject.Data))
	assert.Equal(t, "Hello, World!", aws.ToString(input.Content.Simple.Body.Text.Data))
	assert.Nil(t, input.Content.Simple.Body.Html)
}

func TestSend_WithHTMLAndInboxAddress(t *testing.T) {
	mock := &mockSESClient{}
	p := newTestProvider(mock)

	_, err := p.Send(context.Background(), "agent@example.org", provider.Message{
		To:      "to@example.com",
		Subject: "s",
		Text:    "plain",
		HTML:    "<p>rich</p>",
	})
	require.NoError(t, err)

	input := mock.lastInput
	assert.Equal(t, "agent@example.org", aws.ToString(input.FromEmailAddress))
	require.NotNil(t, input.Content.Simple.Body.Html)
	assert.Equal(t, "<p>rich</p>", aws.ToString(input.Content.Simple.Body.Html.Data))
}

func TestSend_RetriesTransientErrors(t *testing.T) {
	mock := &mockSESClient{}
	mock.sendFn = func(context.Context, *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error) {
		if mock.callCount < 2 {
			return nil, errors.New("api error Throttling: 429 rate exceeded")
		}
		return &sesv2.SendEmailOutput{MessageId: aws.String("after-retry")}, nil
	}
	p := newTestProvider(mock)

	id, err := p.Send(context.Background(), "", provider.Message{To: "to@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "after-retry", id)
	assert.Equal(t, 2, mock.callCount)
}

func TestSend_PermanentErrorNotRetried(t *testing.T) {
	mock := &mockSESClient{
		sendFn: func(context.Context, *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}
	p := newTestProvider(mock)

	_, err := p.Send(context.Background(), "", provider.Message{To: "to@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not verified")
	assert.Equal(t, 1, mock.callCount)
}

func TestSend_RequiresRecipient(t *testing.T) {
	mock := &mockSESClient{}
	p := newTestProvider(mock)

	_, err := p.Send(context.Background(), "", provider.Message{Subject: "x"})
	require.ErrorIs(t, err, provider.ErrNoRecipient)
	assert.Zero(t, mock.callCount)
}
