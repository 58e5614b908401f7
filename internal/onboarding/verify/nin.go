package verify

import (
	"fmt"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/onboarding/rules"
)

// CheckNIN format-checks a national identification number. The number is
// recorded for later KYC review; a passing check is advisory and never a
// hard gate beyond the format itself.
func CheckNIN(nin string) error {
	if !rules.ValidNIN(nin) {
		return stderrors.NewInvalidNINFormatError(fmt.Sprintf("got %d characters", len(nin)))
	}
	return nil
}
