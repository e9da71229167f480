package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsGoConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// EmailNotifier sends a single email with HTML and plain-text bodies.
type EmailNotifier interface {
	SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error
}

// InitEmailService builds the notifier selected by EMAIL_PROVIDER.
func InitEmailService(ctx context.Context) (EmailNotifier, error) {
	log := applog.L.Named("InitEmailService")
	provider := strings.ToLower(config.Cfg.EmailProvider)

	switch provider {
	case "", "smtp":
		n, err := NewSMTPEmailNotifier(config.Cfg.SMTPHost, config.Cfg.SMTPPort, config.Cfg.SMTPUser, config.Cfg.SMTPPass, config.Cfg.EmailFrom)
		if err != nil {
			return nil, err
		}
		log.Info("SMTP email service initialized.", zap.String("host", config.Cfg.SMTPHost), zap.Int("port", config.Cfg.SMTPPort))
		return n, nil
	case "ses":
		n, err := NewSESEmailNotifier(ctx, config.Cfg.AWSRegion, config.Cfg.EmailFrom)
		if err != nil {
			return nil, err
		}
		log.Info("AWS SES email service initialized.", zap.String("sender", config.Cfg.EmailFrom), zap.String("region", config.Cfg.AWSRegion))
		return n, nil
	case "log":
		log.Warn("Email provider set to log; messages will not be delivered.")
		return LogEmailNotifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER %q", provider)
	}
}

// SMTPEmailNotifier delivers mail through an SMTP relay.
type SMTPEmailNotifier struct {
	client *mail.Client
	sender string
}

func NewSMTPEmailNotifier(host string, port int, user, pass, sender string) (*SMTPEmailNotifier, error) {
	if sender == "" {
		sender = user
	}
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(user),
		mail.WithPassword(pass),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPEmailNotifier{client: client, sender: sender}, nil
}

func (s *SMTPEmailNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	msg, err := buildMessage(s.sender, to, subject, bodyHTML, bodyText)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		applog.L.Error("Failed to send email via SMTP", zap.Error(err), zap.String("recipient", to))
		return fmt.Errorf("smtp send: %w", err)
	}
	applog.L.Info("Successfully sent email", zap.String("recipient", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from, to, subject, bodyHTML, bodyText string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from email address '%s': %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid to email address '%s': %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, bodyText)
	if bodyHTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, bodyHTML)
	}
	return msg, nil
}

// SESEmailNotifier implements EmailNotifier using AWS SES.
type SESEmailNotifier struct {
	client *sesv2.Client
	sender string
}

func NewSESEmailNotifier(ctx context.Context, region, sender string) (*SESEmailNotifier, error) {
	if region == "" || sender == "" {
		return nil, errors.New("AWS SES email service is not configured (missing AWS_REGION or EMAIL_FROM)")
	}
	cfg, err := awsGoConfig.LoadDefaultConfig(ctx, awsGoConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for SES: %w", err)
	}
	return &SESEmailNotifier{client: sesv2.NewFromConfig(cfg), sender: sender}, nil
}

func (s *SESEmailNotifier) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	if s.client == nil {
		return errors.New("SES client not initialized")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.sender,
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(bodyHTML),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(bodyText),
						Charset: aws.String("UTF-8"),
					},
				},
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		applog.L.Error("Failed to send email via SES", zap.Error(err), zap.String("recipient", to))
		return err
	}

	applog.L.Info("Successfully sent email", zap.String("recipient", to), zap.String("subject", subject))
	return nil
}

// LogEmailNotifier only logs messages. Used in development.
type LogEmailNotifier struct{}

func (LogEmailNotifier) SendEmail(_ context.Context, to, subject, _, bodyText string) error {
	applog.L.Info("--- SIMULATING EMAIL SEND ---",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", bodyText))
	return nil
}
