// Package ses implements a Sender that delivers mail via AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/teemow/mailgate/internal/logging"
	"github.com/teemow/mailgate/internal/provider"
	"github.com/teemow/mailgate/internal/retry"
)

// Config holds the configuration for creating a Provider.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Sender          string

	// Retry tunes transient-failure retries. Zero values use retry defaults.
	Retry retry.Options
}

// SendEmailAPI is the subset of the SES v2 client used by Provider.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Provider sends email via the AWS SES v2 API.
type Provider struct {
	sender string
	client SendEmailAPI
	retry  retry.Options
	logger *slog.Logger
}

// New loads AWS configuration and returns a Provider. Static keys are used
// when both are set; otherwise the default credential chain applies.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if cfg.Sender == "" {
		return nil, fmt.Errorf("ses: sender address is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	p := NewWithClient(cfg.Sender, sesv2.NewFromConfig(awsCfg), logger)
	p.retry = cfg.Retry
	return p, nil
}

// NewWithClient returns a Provider using client, used for testing.
func NewWithClient(sender string, client SendEmailAPI, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		sender: sender,
		client: client,
		logger: logger.With(logging.Service("ses")),
	}
}

// SetRetryOptions replaces the retry policy.
func (p *Provider) SetRetryOptions(opts retry.Options) {
	p.retry = opts
}

// Send delivers msg. An inboxID that is an email address overrides the
// configured sender; any other inboxID is ignored.
func (p *Provider) Send(ctx context.Context, inboxID string, msg provider.Message) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", provider.ErrNoRecipient
	}

	from := p.sender
	if strings.Contains(inboxID, "@") {
		from = inboxID
	}
	input := buildSimpleInput(from, msg)

	opts := p.retry
	opts.Operation = "ses_send"
	if opts.Logger == nil {
		opts.Logger = p.logger
	}

	out, err := retry.Do(ctx, func(ctx context.Context) (*sesv2.SendEmailOutput, error) {
		return p.client.SendEmail(ctx, input)
	}, opts)
	if err != nil {
		return "", fmt.Errorf("SES SendEmail failed: %w", err)
	}

	return aws.ToString(out.MessageId), nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ses"
}

func buildSimpleInput(sender string, msg provider.Message) *sesv2.SendEmailInput {
	body := &types.Body{
		Text: &types.Content{
			Data:    aws.String(msg.Text),
			Charset: aws.String("UTF-8"),
		},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{
			Data:    aws.String(msg.HTML),
			Charset: aws.String("UTF-8"),
		}
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}
}
