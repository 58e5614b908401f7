package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

// ==========================
// Format Validator Tests
// ==========================

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"first.last+tag@sub.example.co.uk", true},
		{"", false},
		{"no-at-sign.com", false},
		{"a@b", false},
		{"a@b.c", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+2348012345678", true},
		{"08012345678", true},
		{"+447911123456", true},
		{"", false},
		{"12345", false},
		{"+12345678901234567", false},
		{"080-1234-5678", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPhone(tt.phone))
		})
	}
}

func TestValidNIN(t *testing.T) {
	assert.True(t, ValidNIN("12345678901"))
	assert.False(t, ValidNIN("1234567890"))
	assert.False(t, ValidNIN("123456789012"))
	assert.False(t, ValidNIN("1234567890a"))
	assert.False(t, ValidNIN(""))
}

// ==========================
// Advancement Rule Tests
// ==========================

func completedStep0NG() *models.FormState {
	st := models.NewFormState()
	st.Country = schema.CountryNG
	st.Category = schema.CategoryInstaller
	st.PolicyAccepted = true
	st.NIN = "12345678901"
	return st
}

func completedStep1(st *models.FormState) *models.FormState {
	st.Email = "a@b.com"
	st.Phone = "+2348012345678"
	st.Password = "longenough"
	st.PrivacyAccepted = true
	return st
}

func TestCanAdvance_CountryCategory(t *testing.T) {
	st := models.NewFormState()
	assert.False(t, CanAdvance(schema.StepCountryCategory, st), "empty form cannot advance")

	st.Country = schema.CountryUK
	st.Category = schema.CategorySales
	assert.False(t, CanAdvance(schema.StepCountryCategory, st), "policy checkbox still missing")

	st.PolicyAccepted = true
	assert.True(t, CanAdvance(schema.StepCountryCategory, st), "UK branch needs no NIN")

	st.Country = schema.CountryNG
	assert.False(t, CanAdvance(schema.StepCountryCategory, st), "NG branch requires a NIN")

	st.NIN = "123"
	assert.False(t, CanAdvance(schema.StepCountryCategory, st), "malformed NIN blocks")

	st.NIN = "12345678901"
	assert.True(t, CanAdvance(schema.StepCountryCategory, st))
}

func TestCanAdvance_Credentials(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(st *models.FormState)
		advances bool
	}{
		{"all valid", func(st *models.FormState) {}, true},
		{"bad email", func(st *models.FormState) { st.Email = "not-an-email" }, false},
		{"bad phone", func(st *models.FormState) { st.Phone = "12345" }, false},
		{"short password", func(st *models.FormState) { st.Password = "short" }, false},
		{"privacy unchecked", func(st *models.FormState) { st.PrivacyAccepted = false }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := completedStep1(completedStep0NG())
			tt.mutate(st)
			assert.Equal(t, tt.advances, CanAdvance(schema.StepCredentials, st))
		})
	}
}

func TestCanAdvance_LegalIdentityVariants(t *testing.T) {
	st := completedStep0NG()
	st.PartnerType = schema.PartnerTypeIndividual
	st.LegalName = "Ada Obi"

	assert.False(t, CanAdvance(schema.StepLegalIdentity, st), "NG installer needs a COREN license")
	st.CORENLicense = "COREN-12345"
	assert.True(t, CanAdvance(schema.StepLegalIdentity, st))

	// Switching branch re-evaluates against a different required set.
	st.Country = schema.CountryUK
	assert.False(t, CanAdvance(schema.StepLegalIdentity, st), "UK installer needs MCS instead")
	st.MCSCertificate = "MCS-9876"
	assert.True(t, CanAdvance(schema.StepLegalIdentity, st))
}

func TestCanAdvance_Compliance(t *testing.T) {
	individual := completedStep0NG()
	individual.PartnerType = schema.PartnerTypeIndividual
	individual.ProofOfAddressFiles = []models.UploadedFile{{Name: "bill.pdf"}}

	individual.NIN = "not-a-nin"
	assert.False(t, CanAdvance(schema.StepCompliance, individual))

	individual.NIN = "12345678901"
	assert.True(t, CanAdvance(schema.StepCompliance, individual))

	company := completedStep0NG()
	company.PartnerType = schema.PartnerTypeCompany
	assert.False(t, CanAdvance(schema.StepCompliance, company))

	company.RegistrationNumber = "RC-445566"
	company.TaxID = "TIN-1199"
	company.InsuranceDescription = "Public liability, 10M NGN"
	assert.True(t, CanAdvance(schema.StepCompliance, company))
}

func TestCanAdvance_Consents(t *testing.T) {
	st := models.NewFormState()
	st.TermsAccepted = true
	st.DataConsentAccepted = true
	st.AntiBriberyAccepted = true
	assert.False(t, CanAdvance(schema.StepConsents, st), "all four checkboxes required")

	st.SanctionsAccepted = true
	assert.True(t, CanAdvance(schema.StepConsents, st))
}

func TestCanAdvance_ListingsGate(t *testing.T) {
	st := models.NewFormState()
	assert.True(t, CanAdvance(schema.StepListings, st), "listings optional outside the listing branch")

	st.PartnerClass = "retailer"
	assert.False(t, CanAdvance(schema.StepListings, st))

	st.ProductListings = []models.ProductListing{{Name: "400W panel", Category: "panels"}}
	assert.True(t, CanAdvance(schema.StepListings, st))
}

func TestCanAdvance_UnknownStep(t *testing.T) {
	st := models.NewFormState()
	assert.False(t, CanAdvance(-1, st))
	assert.False(t, CanAdvance(schema.StepCount, st))
}

// Hidden fields never block: a UK form with no NIN advances through step 0,
// and an installer with no inventory answer advances through capacity.
func TestCanAdvance_HiddenFieldsNeverBlock(t *testing.T) {
	uk := models.NewFormState()
	uk.Country = schema.CountryUK
	uk.Category = schema.CategoryInstaller
	uk.PolicyAccepted = true
	assert.True(t, CanAdvance(schema.StepCountryCategory, uk))

	uk.TeamSize = 3
	uk.InstallationsPerMonth = 10
	assert.True(t, CanAdvance(schema.StepCapacity, uk), "inventory capacity belongs to the sales branch only")
}

// ==========================
// Missing Field Reporting Tests
// ==========================

func TestMissingFields(t *testing.T) {
	st := models.NewFormState()
	st.Country = schema.CountryNG
	st.Category = schema.CategoryInstaller

	missing := MissingFields(schema.StepCountryCategory, st)
	assert.Contains(t, missing, schema.FieldPolicyAccepted)
	assert.Contains(t, missing, schema.FieldNIN)
	assert.NotContains(t, missing, schema.FieldCountry)

	st.PolicyAccepted = true
	st.NIN = "12345"
	missing = MissingFields(schema.StepCountryCategory, st)
	assert.Contains(t, missing, schema.FieldNIN, "populated but malformed still reports")

	st.NIN = "12345678901"
	assert.Empty(t, MissingFields(schema.StepCountryCategory, st))
}
