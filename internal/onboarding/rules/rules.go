// Package rules encodes the per-step advancement policy of the onboarding
// wizard. Each step has an explicit hand-enumerated rule, not a generic
// schema; rules only ever inspect fields the branch resolver makes visible,
// so a hidden field can never block advancement.
package rules

import (
	"regexp"

	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)
	ninRegex   = regexp.MustCompile(`^[0-9]{11}$`)

	MinPasswordLength = 8
)

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool { return emailRegex.MatchString(s) }

// ValidPhone reports whether s is an acceptable phone number.
func ValidPhone(s string) bool { return phoneRegex.MatchString(s) }

// ValidNIN reports whether s is exactly 11 numeric digits.
func ValidNIN(s string) bool { return ninRegex.MatchString(s) }

// CanAdvance reports whether the given step's advancement rule holds. It is
// evaluated on every render of the current step and re-checked before a
// transition commits.
func CanAdvance(step int, st *models.FormState) bool {
	if !schema.ValidStep(step) {
		return false
	}
	if !requiredSatisfied(step, st) {
		return false
	}

	switch step {
	case schema.StepCountryCategory:
		// NIN verification itself is advisory; only the format gates.
		if st.Country == schema.CountryNG && !ValidNIN(st.NIN) {
			return false
		}
		return true
	case schema.StepCredentials:
		return ValidEmail(st.Email) &&
			ValidPhone(st.Phone) &&
			len(st.Password) >= MinPasswordLength
	case schema.StepCompliance:
		if !schema.BranchOf(st).IsCompany() && !ValidNIN(st.NIN) {
			return false
		}
		return true
	default:
		return true
	}
}

// MissingFields lists the required fields of step that are empty or, for the
// format-checked fields, malformed. Used to surface inline errors.
func MissingFields(step int, st *models.FormState) []schema.FieldKey {
	if !schema.ValidStep(step) {
		return nil
	}

	var missing []schema.FieldKey
	for _, key := range schema.RequiredFields(step, st).Sorted() {
		if !schema.FieldPopulated(st, key) {
			missing = append(missing, key)
			continue
		}
		if !wellFormed(key, st) {
			missing = append(missing, key)
		}
	}
	return missing
}

func requiredSatisfied(step int, st *models.FormState) bool {
	for key := range schema.RequiredFields(step, st) {
		if !schema.FieldPopulated(st, key) {
			return false
		}
	}
	return true
}

func wellFormed(key schema.FieldKey, st *models.FormState) bool {
	switch key {
	case schema.FieldEmail:
		return ValidEmail(st.Email)
	case schema.FieldPhone:
		return ValidPhone(st.Phone)
	case schema.FieldNIN:
		return ValidNIN(st.NIN)
	case schema.FieldPassword:
		return len(st.Password) >= MinPasswordLength
	}
	return true
}
