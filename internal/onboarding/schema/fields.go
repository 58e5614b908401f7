package schema

import (
	"sort"

	"partner-onboarding/internal/models"
)

// FieldKey names one field of the form aggregate.
type FieldKey string

const (
	FieldCountry        FieldKey = "country"
	FieldCategory       FieldKey = "category"
	FieldPolicyAccepted FieldKey = "policyAccepted"
	FieldNIN            FieldKey = "nin"

	FieldEmail           FieldKey = "email"
	FieldPhone           FieldKey = "phone"
	FieldPassword        FieldKey = "password"
	FieldPrivacyAccepted FieldKey = "privacyAccepted"

	FieldPartnerType         FieldKey = "partnerType"
	FieldLegalName           FieldKey = "legalName"
	FieldTradingName         FieldKey = "tradingName"
	FieldRegistrationNumber  FieldKey = "registrationNumber"
	FieldDateOfIncorporation FieldKey = "dateOfIncorporation"
	FieldCACNumber           FieldKey = "cacNumber"
	FieldCORENLicense        FieldKey = "corenLicense"
	FieldNEMSALicense        FieldKey = "nemsaLicense"
	FieldSCUMLClearance      FieldKey = "scumlClearance"
	FieldVATNumber           FieldKey = "vatNumber"
	FieldCompaniesHouseNo    FieldKey = "companiesHouseNumber"
	FieldMCSCertificate      FieldKey = "mcsCertificate"
	FieldNICEICCertificate   FieldKey = "niceicCertificate"

	FieldAddressLine1      FieldKey = "addressLine1"
	FieldAddressLine2      FieldKey = "addressLine2"
	FieldAddressCity       FieldKey = "addressCity"
	FieldAddressState      FieldKey = "addressState"
	FieldAddressPostalCode FieldKey = "addressPostalCode"
	FieldCoverageStates    FieldKey = "coverageStates"
	FieldOperatingRadiusKM FieldKey = "operatingRadiusKm"
	FieldWillingToTravel   FieldKey = "willingToTravel"

	FieldPartnerClass        FieldKey = "partnerClass"
	FieldYearsInBusiness     FieldKey = "yearsInBusiness"
	FieldBusinessDescription FieldKey = "businessDescription"
	FieldWebsiteURL          FieldKey = "websiteUrl"
	FieldReferralSource      FieldKey = "referralSource"

	FieldSpecialties FieldKey = "specialties"

	FieldServicesProvided FieldKey = "servicesProvided"
	FieldServicesNeeded   FieldKey = "servicesNeeded"

	FieldTeamSize              FieldKey = "teamSize"
	FieldInstallationsPerMonth FieldKey = "installationsPerMonth"
	FieldMaxProjectValue       FieldKey = "maxProjectValue"
	FieldInventoryCapacity     FieldKey = "inventoryCapacity"
	FieldDeliveryCapability    FieldKey = "deliveryCapability"

	FieldCertificationFiles     FieldKey = "certificationFiles"
	FieldIDDocumentFiles        FieldKey = "idDocumentFiles"
	FieldDivingCertFiles        FieldKey = "divingCertFiles"
	FieldSafetyCertFiles        FieldKey = "safetyCertFiles"
	FieldHazardousAreaCertFiles FieldKey = "hazardousAreaCertFiles"
	FieldOffshoreExperienceYrs  FieldKey = "offshoreExperienceYears"

	FieldTaxID                FieldKey = "taxId"
	FieldInsuranceDescription FieldKey = "insuranceDescription"
	FieldInsuranceFiles       FieldKey = "insuranceFiles"
	FieldProofOfAddressFiles  FieldKey = "proofOfAddressFiles"

	FieldBankName           FieldKey = "bankName"
	FieldAccountNumber      FieldKey = "accountNumber"
	FieldAccountName        FieldKey = "accountName"
	FieldSortCode           FieldKey = "sortCode"
	FieldBVN                FieldKey = "bvn"
	FieldPreferredCurrency  FieldKey = "preferredCurrency"
	FieldCommissionAccepted FieldKey = "commissionAccepted"

	FieldProductListings FieldKey = "productListings"
	FieldListingFiles    FieldKey = "listingFiles"

	FieldTermsAccepted       FieldKey = "termsAccepted"
	FieldDataConsentAccepted FieldKey = "dataConsentAccepted"
	FieldAntiBriberyAccepted FieldKey = "antiBriberyAccepted"
	FieldSanctionsAccepted   FieldKey = "sanctionsAccepted"
)

// FieldSet is a set of field keys.
type FieldSet map[FieldKey]struct{}

func newFieldSet(keys ...FieldKey) FieldSet {
	s := make(FieldSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s FieldSet) Has(key FieldKey) bool {
	_, ok := s[key]
	return ok
}

func (s FieldSet) add(keys ...FieldKey) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Sorted returns the keys in stable order.
func (s FieldSet) Sorted() []FieldKey {
	out := make([]FieldKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FieldPopulated reports whether a field holds a usable value: non-empty for
// strings and slices, positive for counts, accepted for consent flags.
func FieldPopulated(st *models.FormState, key FieldKey) bool {
	switch key {
	case FieldCountry:
		return st.Country != ""
	case FieldCategory:
		return st.Category != ""
	case FieldPolicyAccepted:
		return st.PolicyAccepted
	case FieldNIN:
		return st.NIN != ""
	case FieldEmail:
		return st.Email != ""
	case FieldPhone:
		return st.Phone != ""
	case FieldPassword:
		return st.Password != ""
	case FieldPrivacyAccepted:
		return st.PrivacyAccepted
	case FieldPartnerType:
		return st.PartnerType != ""
	case FieldLegalName:
		return st.LegalName != ""
	case FieldTradingName:
		return st.TradingName != ""
	case FieldRegistrationNumber:
		return st.RegistrationNumber != ""
	case FieldDateOfIncorporation:
		return st.DateOfIncorporation != ""
	case FieldCACNumber:
		return st.CACNumber != ""
	case FieldCORENLicense:
		return st.CORENLicense != ""
	case FieldNEMSALicense:
		return st.NEMSALicense != ""
	case FieldSCUMLClearance:
		return st.SCUMLClearance != ""
	case FieldVATNumber:
		return st.VATNumber != ""
	case FieldCompaniesHouseNo:
		return st.CompaniesHouseNo != ""
	case FieldMCSCertificate:
		return st.MCSCertificate != ""
	case FieldNICEICCertificate:
		return st.NICEICCertificate != ""
	case FieldAddressLine1:
		return st.Address.Line1 != ""
	case FieldAddressLine2:
		return st.Address.Line2 != ""
	case FieldAddressCity:
		return st.Address.City != ""
	case FieldAddressState:
		return st.Address.State != ""
	case FieldAddressPostalCode:
		return st.Address.PostalCode != ""
	case FieldCoverageStates:
		return len(st.CoverageStates) > 0
	case FieldOperatingRadiusKM:
		return st.OperatingRadiusKM > 0
	case FieldWillingToTravel:
		return st.WillingToTravel
	case FieldPartnerClass:
		return st.PartnerClass != ""
	case FieldYearsInBusiness:
		return st.YearsInBusiness > 0
	case FieldBusinessDescription:
		return st.BusinessDescription != ""
	case FieldWebsiteURL:
		return st.WebsiteURL != ""
	case FieldReferralSource:
		return st.ReferralSource != ""
	case FieldSpecialties:
		return len(st.Specialties) > 0
	case FieldServicesProvided:
		return len(st.ServicesProvided) > 0
	case FieldServicesNeeded:
		return len(st.ServicesNeeded) > 0
	case FieldTeamSize:
		return st.TeamSize > 0
	case FieldInstallationsPerMonth:
		return st.InstallationsPerMonth > 0
	case FieldMaxProjectValue:
		return st.MaxProjectValue != ""
	case FieldInventoryCapacity:
		return st.InventoryCapacity != ""
	case FieldDeliveryCapability:
		return st.DeliveryCapability
	case FieldCertificationFiles:
		return len(st.CertificationFiles) > 0
	case FieldIDDocumentFiles:
		return len(st.IDDocumentFiles) > 0
	case FieldDivingCertFiles:
		return len(st.DivingCertFiles) > 0
	case FieldSafetyCertFiles:
		return len(st.SafetyCertFiles) > 0
	case FieldHazardousAreaCertFiles:
		return len(st.HazardousAreaCertFiles) > 0
	case FieldOffshoreExperienceYrs:
		return st.OffshoreExperienceYrs > 0
	case FieldTaxID:
		return st.TaxID != ""
	case FieldInsuranceDescription:
		return st.InsuranceDescription != ""
	case FieldInsuranceFiles:
		return len(st.InsuranceFiles) > 0
	case FieldProofOfAddressFiles:
		return len(st.ProofOfAddressFiles) > 0
	case FieldBankName:
		return st.BankName != ""
	case FieldAccountNumber:
		return st.AccountNumber != ""
	case FieldAccountName:
		return st.AccountName != ""
	case FieldSortCode:
		return st.SortCode != ""
	case FieldBVN:
		return st.BVN != ""
	case FieldPreferredCurrency:
		return st.PreferredCurrency != ""
	case FieldCommissionAccepted:
		return st.CommissionAccepted
	case FieldProductListings:
		return len(st.ProductListings) > 0
	case FieldListingFiles:
		return len(st.ListingFiles) > 0
	case FieldTermsAccepted:
		return st.TermsAccepted
	case FieldDataConsentAccepted:
		return st.DataConsentAccepted
	case FieldAntiBriberyAccepted:
		return st.AntiBriberyAccepted
	case FieldSanctionsAccepted:
		return st.SanctionsAccepted
	}
	return false
}
