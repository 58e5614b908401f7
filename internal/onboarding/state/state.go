// Package state holds the form aggregate's reducer and its persistence:
// every mutation flows through Apply, every applied change is snapshotted by
// the debounced autosaver.
package state

import (
	"time"

	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

// Action is one mutation of the form aggregate.
type Action interface {
	isAction()
}

// SetFields replaces the value of each named field. Replacement is total per
// field; there are no partial patch semantics below field granularity.
type SetFields struct {
	Values map[schema.FieldKey]interface{}
}

// AppendFiles appends uploaded handles to a file field.
type AppendFiles struct {
	Key   schema.FieldKey
	Files []models.UploadedFile
}

// RemoveFile drops the handle at Index from a file field. Only the local
// reference is removed; the remote object is cleaned up out-of-band.
type RemoveFile struct {
	Key   schema.FieldKey
	Index int
}

// StepChanged moves the step pointer. Guarding the move is the caller's job
// (the session engine runs the validation gate before advancing).
type StepChanged struct {
	Step int
}

// OTPIssued records that a verification code was delivered for the current
// phone number. At starts the code's validity window.
type OTPIssued struct {
	Code string
	At   time.Time
}

// PhoneVerified marks the phone side-channel outcome.
type PhoneVerified struct {
	OK bool
}

// NINRecorded marks the national-ID side-channel outcome.
type NINRecorded struct {
	OK bool
}

// Submitted marks the aggregate's terminal status.
type Submitted struct{}

// Cleared resets the aggregate to an empty draft.
type Cleared struct{}

func (SetFields) isAction()     {}
func (AppendFiles) isAction()   {}
func (RemoveFile) isAction()    {}
func (StepChanged) isAction()   {}
func (OTPIssued) isAction()     {}
func (PhoneVerified) isAction() {}
func (NINRecorded) isAction()   {}
func (Submitted) isAction()     {}
func (Cleared) isAction()       {}

// Apply is the pure transition function (state, action) -> state. The input
// state is never mutated.
func Apply(st *models.FormState, action Action) *models.FormState {
	next := *st

	switch a := action.(type) {
	case SetFields:
		for key, value := range a.Values {
			setField(&next, key, value)
		}
	case AppendFiles:
		if slot := filesField(&next, a.Key); slot != nil {
			combined := make([]models.UploadedFile, 0, len(*slot)+len(a.Files))
			combined = append(combined, *slot...)
			combined = append(combined, a.Files...)
			*slot = combined
		}
	case RemoveFile:
		if slot := filesField(&next, a.Key); slot != nil && a.Index >= 0 && a.Index < len(*slot) {
			trimmed := make([]models.UploadedFile, 0, len(*slot)-1)
			trimmed = append(trimmed, (*slot)[:a.Index]...)
			trimmed = append(trimmed, (*slot)[a.Index+1:]...)
			*slot = trimmed
		}
	case StepChanged:
		if schema.ValidStep(a.Step) {
			next.CurrentStep = a.Step
		}
	case OTPIssued:
		next.OTPCode = a.Code
		next.OTPIssuedAt = a.At
		next.OTPSent = true
	case PhoneVerified:
		next.PhoneVerified = a.OK
		if a.OK {
			next.OTPCode = ""
			next.OTPIssuedAt = time.Time{}
		}
	case NINRecorded:
		next.NINVerified = a.OK
	case Submitted:
		next.ApplicationStatus = models.StatusSubmitted
	case Cleared:
		return models.NewFormState()
	}

	return &next
}

// setField is the total-replace write for one field. Changing the phone
// number re-arms the verification side-channel.
func setField(st *models.FormState, key schema.FieldKey, v interface{}) {
	switch key {
	case schema.FieldCountry:
		st.Country = asString(v)
	case schema.FieldCategory:
		st.Category = asString(v)
	case schema.FieldPolicyAccepted:
		st.PolicyAccepted = asBool(v)
	case schema.FieldNIN:
		if next := asString(v); next != st.NIN {
			st.NIN = next
			st.NINVerified = false
		}
	case schema.FieldEmail:
		st.Email = asString(v)
	case schema.FieldPhone:
		if next := asString(v); next != st.Phone {
			st.Phone = next
			st.PhoneVerified = false
			st.OTPSent = false
			st.OTPCode = ""
			st.OTPIssuedAt = time.Time{}
		}
	case schema.FieldPassword:
		st.Password = asString(v)
	case schema.FieldPrivacyAccepted:
		st.PrivacyAccepted = asBool(v)
	case schema.FieldPartnerType:
		st.PartnerType = asString(v)
	case schema.FieldLegalName:
		st.LegalName = asString(v)
	case schema.FieldTradingName:
		st.TradingName = asString(v)
	case schema.FieldRegistrationNumber:
		st.RegistrationNumber = asString(v)
	case schema.FieldDateOfIncorporation:
		st.DateOfIncorporation = asString(v)
	case schema.FieldCACNumber:
		st.CACNumber = asString(v)
	case schema.FieldCORENLicense:
		st.CORENLicense = asString(v)
	case schema.FieldNEMSALicense:
		st.NEMSALicense = asString(v)
	case schema.FieldSCUMLClearance:
		st.SCUMLClearance = asString(v)
	case schema.FieldVATNumber:
		st.VATNumber = asString(v)
	case schema.FieldCompaniesHouseNo:
		st.CompaniesHouseNo = asString(v)
	case schema.FieldMCSCertificate:
		st.MCSCertificate = asString(v)
	case schema.FieldNICEICCertificate:
		st.NICEICCertificate = asString(v)
	case schema.FieldAddressLine1:
		st.Address.Line1 = asString(v)
	case schema.FieldAddressLine2:
		st.Address.Line2 = asString(v)
	case schema.FieldAddressCity:
		st.Address.City = asString(v)
	case schema.FieldAddressState:
		st.Address.State = asString(v)
	case schema.FieldAddressPostalCode:
		st.Address.PostalCode = asString(v)
	case schema.FieldCoverageStates:
		st.CoverageStates = asStrings(v)
	case schema.FieldOperatingRadiusKM:
		st.OperatingRadiusKM = asInt(v)
	case schema.FieldWillingToTravel:
		st.WillingToTravel = asBool(v)
	case schema.FieldPartnerClass:
		st.PartnerClass = asString(v)
	case schema.FieldYearsInBusiness:
		st.YearsInBusiness = asInt(v)
	case schema.FieldBusinessDescription:
		st.BusinessDescription = asString(v)
	case schema.FieldWebsiteURL:
		st.WebsiteURL = asString(v)
	case schema.FieldReferralSource:
		st.ReferralSource = asString(v)
	case schema.FieldSpecialties:
		st.Specialties = asStrings(v)
	case schema.FieldServicesProvided:
		st.ServicesProvided = asStrings(v)
	case schema.FieldServicesNeeded:
		st.ServicesNeeded = asStrings(v)
	case schema.FieldTeamSize:
		st.TeamSize = asInt(v)
	case schema.FieldInstallationsPerMonth:
		st.InstallationsPerMonth = asInt(v)
	case schema.FieldMaxProjectValue:
		st.MaxProjectValue = asString(v)
	case schema.FieldInventoryCapacity:
		st.InventoryCapacity = asString(v)
	case schema.FieldDeliveryCapability:
		st.DeliveryCapability = asBool(v)
	case schema.FieldOffshoreExperienceYrs:
		st.OffshoreExperienceYrs = asInt(v)
	case schema.FieldTaxID:
		st.TaxID = asString(v)
	case schema.FieldInsuranceDescription:
		st.InsuranceDescription = asString(v)
	case schema.FieldBankName:
		st.BankName = asString(v)
	case schema.FieldAccountNumber:
		st.AccountNumber = asString(v)
	case schema.FieldAccountName:
		st.AccountName = asString(v)
	case schema.FieldSortCode:
		st.SortCode = asString(v)
	case schema.FieldBVN:
		st.BVN = asString(v)
	case schema.FieldPreferredCurrency:
		st.PreferredCurrency = asString(v)
	case schema.FieldCommissionAccepted:
		st.CommissionAccepted = asBool(v)
	case schema.FieldProductListings:
		st.ProductListings = asListings(v)
	case schema.FieldTermsAccepted:
		st.TermsAccepted = asBool(v)
	case schema.FieldDataConsentAccepted:
		st.DataConsentAccepted = asBool(v)
	case schema.FieldAntiBriberyAccepted:
		st.AntiBriberyAccepted = asBool(v)
	case schema.FieldSanctionsAccepted:
		st.SanctionsAccepted = asBool(v)
	}
}

// filesField maps a field key to its handle slice, or nil for non-file keys.
func filesField(st *models.FormState, key schema.FieldKey) *[]models.UploadedFile {
	switch key {
	case schema.FieldCertificationFiles:
		return &st.CertificationFiles
	case schema.FieldIDDocumentFiles:
		return &st.IDDocumentFiles
	case schema.FieldDivingCertFiles:
		return &st.DivingCertFiles
	case schema.FieldSafetyCertFiles:
		return &st.SafetyCertFiles
	case schema.FieldHazardousAreaCertFiles:
		return &st.HazardousAreaCertFiles
	case schema.FieldInsuranceFiles:
		return &st.InsuranceFiles
	case schema.FieldProofOfAddressFiles:
		return &st.ProofOfAddressFiles
	case schema.FieldListingFiles:
		return &st.ListingFiles
	}
	return nil
}

// FileField reports whether key names one of the document-upload fields.
func FileField(key schema.FieldKey) bool {
	var zero models.FormState
	return filesField(&zero, key) != nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64: // JSON numbers decode as float64
		return int(n)
	}
	return 0
}

func asStrings(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func asListings(v interface{}) []models.ProductListing {
	switch l := v.(type) {
	case []models.ProductListing:
		return l
	case []interface{}:
		out := make([]models.ProductListing, 0, len(l))
		for _, item := range l {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			out = append(out, models.ProductListing{
				Name:        asString(m["name"]),
				Category:    asString(m["category"]),
				PriceRange:  asString(m["priceRange"]),
				Description: asString(m["description"]),
			})
		}
		return out
	}
	return nil
}
