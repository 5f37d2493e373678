package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"eventhub/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// sesAPI is the subset of the SES client the mailer calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES; "noop" or unknown
// providers log instead of sending.
func NewMailer(config MailerConfig, logger *slog.Logger) domain.Mailer {
	if config.Provider != "ses" {
		if config.Provider != "noop" && config.Provider != "" {
			logger.Warn("unknown mail provider, using noop", "provider", config.Provider)
		}
		return &noopMailer{logger: logger}
	}
	if config.SES.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for SES; use only in development")
	}
	awsCfg := aws.Config{
		Region: config.SES.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(config.SES.AccessKeyID, config.SES.SecretAccessKey, ""),
		),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: config.SES.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		},
	}
	return newSESMailer(ses.NewFromConfig(awsCfg), config.FromAddress, config.FromName, logger)
}

func newSESMailer(client sesAPI, fromAddress, fromName string, logger *slog.Logger) *sesMailer {
	source := fromAddress
	if fromName != "" {
		source = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}
	return &sesMailer{client: client, source: source, logger: logger}
}

type sesMailer struct {
	client sesAPI
	source string
	logger *slog.Logger
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(s.source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = utf8Content(html)
	}
	if text != "" {
		input.Message.Body.Text = utf8Content(text)
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}
	s.logger.DebugContext(ctx, "email sent via SES", "message_id", aws.ToString(result.MessageId))
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", to, "subject", subject)
	return nil
}
