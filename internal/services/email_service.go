package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/opencampus/redressal/pkg/logger"
)

// EmailMessage is an outbound mail handed to the mailer queue.
type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
}

// EmailSender delivers a single message. Implementations must be safe for
// concurrent use by the mailer worker.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SESEmailSender delivers mail through AWS SES.
type SESEmailSender struct {
	client      *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewSESEmailSender(region, fromAddress string, logger *slog.Logger) (*SESEmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESEmailSender{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (s *SESEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(msg.TextBody),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("to", pkglogger.MaskedEmail(msg.To)),
		slog.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}

// LogEmailSender is the development fallback when no from-address is
// configured: delivery is recorded in the logs and nothing leaves the host.
type LogEmailSender struct {
	logger *slog.Logger
}

func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery skipped (no sender configured)",
		slog.String("to", pkglogger.MaskedEmail(msg.To)),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// VerificationCodeEmail builds the admin login code message.
func VerificationCodeEmail(to, code string, ttlMinutes int) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Your admin verification code",
		TextBody: fmt.Sprintf(
			"Your one-time verification code is: %s\n\n"+
				"It expires in %d minutes and can be used once.\n\n"+
				"If you did not request this code, you can ignore this email.\n",
			code, ttlMinutes),
	}
}

// AssignmentEmail notifies a faculty member of a newly assigned complaint.
func AssignmentEmail(to, complaintTitle string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "A complaint has been assigned to you",
		TextBody: fmt.Sprintf(
			"The complaint %q has been assigned to you.\n\n"+
				"Please log in to review and update its status.\n",
			complaintTitle),
	}
}
