package schema

import "partner-onboarding/internal/models"

// StepCount is the number of wizard steps, indexed 0..StepCount-1.
const StepCount = 14

// Step indexes, named after what the page collects.
const (
	StepCountryCategory = iota
	StepCredentials
	StepLegalIdentity
	StepLocation
	StepClassification
	StepSpecialties
	StepServices
	StepCapacity
	StepCertifications
	StepCompliance
	StepCommercial
	StepListings
	StepConsents
	StepReview
)

// ValidStep reports whether idx names an existing step. Readers of persisted
// progress treat anything else as corrupt.
func ValidStep(idx int) bool {
	return idx >= 0 && idx < StepCount
}

// fieldGroup is one conditionally-active slice of a step's form.
type fieldGroup struct {
	when     func(st *models.FormState) bool // nil means always active
	visible  []FieldKey
	required []FieldKey
}

func (g fieldGroup) active(st *models.FormState) bool {
	return g.when == nil || g.when(st)
}

// StepDefinition is the immutable description of one wizard step. Never
// mutated at runtime.
type StepDefinition struct {
	Index  int
	Name   string
	groups []fieldGroup
}

func isNG(st *models.FormState) bool { return st.Country == CountryNG }
func isUK(st *models.FormState) bool { return st.Country == CountryUK }

func ngInstaller(st *models.FormState) bool {
	return st.Country == CountryNG && st.Category == CategoryInstaller
}
func ngSales(st *models.FormState) bool {
	return st.Country == CountryNG && st.Category == CategorySales
}
func ukInstaller(st *models.FormState) bool {
	return st.Country == CountryUK && st.Category == CategoryInstaller
}
func ukSales(st *models.FormState) bool {
	return st.Country == CountryUK && st.Category == CategorySales
}
func isCompany(st *models.FormState) bool {
	return BranchOf(st).IsCompany()
}
func isIndividual(st *models.FormState) bool {
	return !BranchOf(st).IsCompany()
}
func isInstaller(st *models.FormState) bool { return st.Category == CategoryInstaller }
func isSales(st *models.FormState) bool     { return st.Category == CategorySales }

// steps is the static registry. Branch predicates are pure and total: every
// country x category x partnerType x partnerClass combination resolves to a
// non-empty visible set on every step.
var steps = [StepCount]StepDefinition{
	{
		Index: StepCountryCategory,
		Name:  "country-category",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldCountry, FieldCategory, FieldPolicyAccepted},
				required: []FieldKey{FieldCountry, FieldCategory, FieldPolicyAccepted},
			},
			{
				when:     isNG,
				visible:  []FieldKey{FieldNIN},
				required: []FieldKey{FieldNIN},
			},
		},
	},
	{
		Index: StepCredentials,
		Name:  "credentials",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldEmail, FieldPhone, FieldPassword, FieldPrivacyAccepted},
				required: []FieldKey{FieldEmail, FieldPhone, FieldPassword, FieldPrivacyAccepted},
			},
		},
	},
	{
		Index: StepLegalIdentity,
		Name:  "legal-identity",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldPartnerType, FieldLegalName, FieldTradingName},
				required: []FieldKey{FieldPartnerType, FieldLegalName},
			},
			{
				when:     isCompany,
				visible:  []FieldKey{FieldRegistrationNumber, FieldDateOfIncorporation},
				required: []FieldKey{FieldRegistrationNumber},
			},
			{
				when:     ngInstaller,
				visible:  []FieldKey{FieldCORENLicense, FieldNEMSALicense},
				required: []FieldKey{FieldCORENLicense},
			},
			{
				when:     ngSales,
				visible:  []FieldKey{FieldCACNumber, FieldSCUMLClearance},
				required: []FieldKey{FieldCACNumber},
			},
			{
				when:     ukInstaller,
				visible:  []FieldKey{FieldMCSCertificate, FieldNICEICCertificate},
				required: []FieldKey{FieldMCSCertificate},
			},
			{
				when:     ukSales,
				visible:  []FieldKey{FieldVATNumber, FieldCompaniesHouseNo},
				required: []FieldKey{FieldVATNumber},
			},
		},
	},
	{
		Index: StepLocation,
		Name:  "location-coverage",
		groups: []fieldGroup{
			{
				visible: []FieldKey{
					FieldAddressLine1, FieldAddressLine2, FieldAddressCity,
					FieldAddressState, FieldCoverageStates, FieldOperatingRadiusKM,
					FieldWillingToTravel,
				},
				required: []FieldKey{FieldAddressLine1, FieldAddressCity, FieldAddressState, FieldCoverageStates},
			},
			{
				when:     isUK,
				visible:  []FieldKey{FieldAddressPostalCode},
				required: []FieldKey{FieldAddressPostalCode},
			},
		},
	},
	{
		Index: StepClassification,
		Name:  "classification",
		groups: []fieldGroup{
			{
				visible: []FieldKey{
					FieldPartnerClass, FieldYearsInBusiness, FieldBusinessDescription,
					FieldWebsiteURL, FieldReferralSource,
				},
				required: []FieldKey{FieldPartnerClass},
			},
		},
	},
	{
		Index: StepSpecialties,
		Name:  "specialties",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldSpecialties},
				required: []FieldKey{FieldSpecialties},
			},
		},
	},
	{
		Index: StepServices,
		Name:  "services",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldServicesProvided, FieldServicesNeeded},
				required: []FieldKey{FieldServicesProvided},
			},
		},
	},
	{
		Index: StepCapacity,
		Name:  "capacity",
		groups: []fieldGroup{
			{
				visible: []FieldKey{FieldMaxProjectValue, FieldDeliveryCapability},
			},
			{
				when:     isInstaller,
				visible:  []FieldKey{FieldTeamSize, FieldInstallationsPerMonth},
				required: []FieldKey{FieldTeamSize, FieldInstallationsPerMonth},
			},
			{
				when:     isSales,
				visible:  []FieldKey{FieldTeamSize, FieldInventoryCapacity},
				required: []FieldKey{FieldInventoryCapacity},
			},
		},
	},
	{
		Index: StepCertifications,
		Name:  "certifications",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldCertificationFiles, FieldIDDocumentFiles},
				required: []FieldKey{FieldCertificationFiles},
			},
			{
				when:     OffshoreSectionActive,
				visible:  []FieldKey{FieldDivingCertFiles, FieldSafetyCertFiles, FieldOffshoreExperienceYrs},
				required: []FieldKey{FieldSafetyCertFiles},
			},
			{
				when:     HazardousSectionActive,
				visible:  []FieldKey{FieldHazardousAreaCertFiles},
				required: []FieldKey{FieldHazardousAreaCertFiles},
			},
		},
	},
	{
		Index: StepCompliance,
		Name:  "compliance",
		groups: []fieldGroup{
			{
				when:     isCompany,
				visible:  []FieldKey{FieldRegistrationNumber, FieldTaxID, FieldInsuranceDescription, FieldInsuranceFiles},
				required: []FieldKey{FieldRegistrationNumber, FieldTaxID, FieldInsuranceDescription},
			},
			{
				when:     isIndividual,
				visible:  []FieldKey{FieldNIN, FieldProofOfAddressFiles},
				required: []FieldKey{FieldNIN, FieldProofOfAddressFiles},
			},
		},
	},
	{
		Index: StepCommercial,
		Name:  "commercial",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldBankName, FieldAccountNumber, FieldAccountName, FieldPreferredCurrency, FieldCommissionAccepted},
				required: []FieldKey{FieldBankName, FieldAccountNumber, FieldPreferredCurrency, FieldCommissionAccepted},
			},
			{
				when:    isNG,
				visible: []FieldKey{FieldBVN},
			},
			{
				when:    isUK,
				visible: []FieldKey{FieldSortCode},
			},
		},
	},
	{
		Index: StepListings,
		Name:  "product-listings",
		groups: []fieldGroup{
			{
				visible: []FieldKey{FieldProductListings, FieldListingFiles},
			},
			{
				when:     ProductListingActive,
				required: []FieldKey{FieldProductListings},
			},
		},
	},
	{
		Index: StepConsents,
		Name:  "legal-consents",
		groups: []fieldGroup{
			{
				visible:  []FieldKey{FieldTermsAccepted, FieldDataConsentAccepted, FieldAntiBriberyAccepted, FieldSanctionsAccepted},
				required: []FieldKey{FieldTermsAccepted, FieldDataConsentAccepted, FieldAntiBriberyAccepted, FieldSanctionsAccepted},
			},
		},
	},
	{
		Index: StepReview,
		Name:  "review",
		groups: []fieldGroup{
			{
				visible: []FieldKey{FieldCountry, FieldCategory, FieldLegalName, FieldEmail, FieldPhone},
			},
		},
	},
}

// Step returns the immutable definition for idx.
func Step(idx int) StepDefinition {
	return steps[idx]
}

// VisibleFields resolves the set of fields shown on step idx for the given
// answers. Pure and idempotent.
func VisibleFields(idx int, st *models.FormState) FieldSet {
	out := newFieldSet()
	for _, g := range steps[idx].groups {
		if g.active(st) {
			out.add(g.visible...)
			out.add(g.required...)
		}
	}
	return out
}

// RequiredFields resolves the set of fields that must be populated before
// step idx can advance. Always a subset of VisibleFields.
func RequiredFields(idx int, st *models.FormState) FieldSet {
	out := newFieldSet()
	for _, g := range steps[idx].groups {
		if g.active(st) {
			out.add(g.required...)
		}
	}
	return out
}
