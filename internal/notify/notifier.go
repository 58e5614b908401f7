// Package notify is the fire-and-forget user-facing notification surface.
// The workflow engine never consumes a return value from it.
package notify

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	commonaws "partner-onboarding/internal/common/aws"
	"partner-onboarding/internal/common/logger"
)

// Kind classifies a notification.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Surface receives user-facing messages.
type Surface interface {
	Notify(kind Kind, message string)
}

// LogSurface writes notifications to the structured log; the default surface
// when no richer channel is wired.
type LogSurface struct {
	log logger.Logger
}

func NewLogSurface(log logger.Logger) *LogSurface {
	return &LogSurface{log: log.WithFields(map[string]interface{}{"component": "notify"})}
}

func (s *LogSurface) Notify(kind Kind, message string) {
	fields := map[string]interface{}{"kind": string(kind)}
	switch kind {
	case Error:
		s.log.Error(message, fields)
	default:
		s.log.Info(message, fields)
	}
}

// Mailer sends the submission confirmation email through SES. Delivery
// failures are logged and swallowed; email is a courtesy, not a stage.
type Mailer struct {
	client *commonaws.SESClient
	sender string
	log    logger.Logger
}

func NewMailer(client *commonaws.SESClient, sender string, log logger.Logger) *Mailer {
	return &Mailer{
		client: client,
		sender: sender,
		log:    log.WithFields(map[string]interface{}{"component": "mailer"}),
	}
}

// SendSubmissionConfirmation emails the applicant that their application was
// received.
func (m *Mailer) SendSubmissionConfirmation(ctx context.Context, recipient, legalName string) {
	subject := "Your partner application has been received"
	body := "Hello " + legalName + ",\n\n" +
		"We received your partner application and it is now under review. " +
		"You will hear from us once the review completes.\n"

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(m.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	if err != nil {
		m.log.Warn("confirmation email failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	m.log.Info("confirmation email sent", nil)
}
