// Package verify implements the field-level verification side-channels:
// phone OTP delivery and national-ID recording. Neither alters the main
// wizard state machine; both are re-armable when the underlying field
// changes.
package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	commonaws "partner-onboarding/internal/common/aws"
	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/logger"
)

// SMSSender delivers a verification message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// SNSSender delivers SMS through AWS SNS.
type SNSSender struct {
	client   *commonaws.SNSClient
	senderID string
}

func NewSNSSender(client *commonaws.SNSClient, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID}
}

func (s *SNSSender) SendSMS(ctx context.Context, phone, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: awssdk.String(phone),
		Message:     awssdk.String(message),
	}
	if s.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(s.senderID),
			},
		}
	}
	_, err := s.client.Publish(ctx, input)
	return err
}

// PhoneVerifier issues one-time codes for phone ownership checks.
type PhoneVerifier struct {
	sender SMSSender
	log    logger.Logger
}

func NewPhoneVerifier(sender SMSSender, log logger.Logger) *PhoneVerifier {
	return &PhoneVerifier{
		sender: sender,
		log:    log.WithFields(map[string]interface{}{"component": "phone-verify"}),
	}
}

// SendCode generates a 6-digit code and delivers it to phone. The caller
// records the returned code on the form aggregate; it is never persisted.
func (p *PhoneVerifier) SendCode(ctx context.Context, phone string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Your partner verification code is %s", code)
	if err := p.sender.SendSMS(ctx, phone, message); err != nil {
		p.log.Warn("verification sms delivery failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}

	p.log.Info("verification code sent", nil)
	return code, nil
}

// CheckCode compares the entered code against the delivered one and its
// validity window. A mismatch or an expired code is recoverable; the user
// retries or requests a new code in place. A non-positive ttl disables
// expiry.
func CheckCode(sent, entered string, issuedAt time.Time, ttl time.Duration) error {
	if sent == "" {
		return stderrors.NewOTPNotRequestedError()
	}
	if ttl > 0 && time.Since(issuedAt) > ttl {
		return stderrors.NewOTPExpiredError()
	}
	if entered != sent {
		return stderrors.NewOTPMismatchError()
	}
	return nil
}

func newCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
