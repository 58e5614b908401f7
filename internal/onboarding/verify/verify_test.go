package verify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/logger"
)

type fakeSMSSender struct {
	sent []string
	fail bool
}

func (f *fakeSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	if f.fail {
		return fmt.Errorf("sms gateway down")
	}
	f.sent = append(f.sent, message)
	return nil
}

func TestPhoneVerifier_SendCode(t *testing.T) {
	sender := &fakeSMSSender{}
	v := NewPhoneVerifier(sender, logger.NewNoOpLogger())

	code, err := v.SendCode(context.Background(), "+2348012345678")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], code)
}

func TestPhoneVerifier_SendCodeDeliveryFailure(t *testing.T) {
	v := NewPhoneVerifier(&fakeSMSSender{fail: true}, logger.NewNoOpLogger())

	code, err := v.SendCode(context.Background(), "+2348012345678")
	assert.Error(t, err)
	assert.Empty(t, code)
}

func TestCheckCode(t *testing.T) {
	ttl := 10 * time.Minute
	fresh := time.Now().UTC()
	stale := fresh.Add(-ttl - time.Minute)

	tests := []struct {
		name     string
		sent     string
		entered  string
		issuedAt time.Time
		errCode  stderrors.ErrorCode
	}{
		{"match", "123456", "123456", fresh, ""},
		{"mismatch", "123456", "654321", fresh, stderrors.ErrCodeOTPMismatch},
		{"never requested", "", "123456", fresh, stderrors.ErrCodeOTPNotRequested},
		{"expired", "123456", "123456", stale, stderrors.ErrCodeOTPExpired},
		{"expired beats mismatch", "123456", "654321", stale, stderrors.ErrCodeOTPExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCode(tt.sent, tt.entered, tt.issuedAt, ttl)
			if tt.errCode == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, stderrors.HasCode(err, tt.errCode))
			}
		})
	}
}

func TestCheckCode_NoTTLNeverExpires(t *testing.T) {
	issuedAt := time.Now().UTC().Add(-24 * time.Hour)
	assert.NoError(t, CheckCode("123456", "123456", issuedAt, 0))
}

func TestCheckNIN(t *testing.T) {
	assert.NoError(t, CheckNIN("12345678901"))

	err := CheckNIN("12345")
	require.Error(t, err)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidNINFormat))

	err = CheckNIN("")
	require.Error(t, err)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidNINFormat))
}
