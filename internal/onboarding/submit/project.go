package submit

import (
	"strings"

	"partner-onboarding/internal/models"
)

// Project normalizes the form aggregate into the write-once application
// record. Field names are regrouped to the review team's vocabulary; absent
// optionals are simply omitted from the data document.
func Project(st *models.FormState, identityID string) *models.Application {
	data := map[string]interface{}{
		"identityId": identityID,
		"legalIdentity": prune(map[string]interface{}{
			"legalName":           st.LegalName,
			"tradingName":         st.TradingName,
			"partnerType":         st.PartnerType,
			"registrationNumber":  st.RegistrationNumber,
			"dateOfIncorporation": st.DateOfIncorporation,
			"cacNumber":           st.CACNumber,
			"corenLicense":        st.CORENLicense,
			"nemsaLicense":        st.NEMSALicense,
			"scumlClearance":      st.SCUMLClearance,
			"vatNumber":           st.VATNumber,
			"companiesHouseNo":    st.CompaniesHouseNo,
			"mcsCertificate":      st.MCSCertificate,
			"niceicCertificate":   st.NICEICCertificate,
		}),
		"location": prune(map[string]interface{}{
			"addressLine1":    st.Address.Line1,
			"addressLine2":    st.Address.Line2,
			"city":            st.Address.City,
			"state":           st.Address.State,
			"postalCode":      st.Address.PostalCode,
			"coverageStates":  st.CoverageStates,
			"operatingRadius": st.OperatingRadiusKM,
			"willingToTravel": st.WillingToTravel,
		}),
		"classification": prune(map[string]interface{}{
			"partnerClass":        st.PartnerClass,
			"yearsInBusiness":     st.YearsInBusiness,
			"businessDescription": st.BusinessDescription,
			"websiteUrl":          st.WebsiteURL,
			"referralSource":      st.ReferralSource,
		}),
		"capabilities": prune(map[string]interface{}{
			"specialties":           st.Specialties,
			"servicesProvided":      st.ServicesProvided,
			"servicesNeeded":        st.ServicesNeeded,
			"teamSize":              st.TeamSize,
			"installationsPerMonth": st.InstallationsPerMonth,
			"maxProjectValue":       st.MaxProjectValue,
			"inventoryCapacity":     st.InventoryCapacity,
			"deliveryCapability":    st.DeliveryCapability,
			"offshoreExperience":    st.OffshoreExperienceYrs,
		}),
		"compliance": prune(map[string]interface{}{
			"nin":                  st.NIN,
			"taxId":                st.TaxID,
			"insuranceDescription": st.InsuranceDescription,
			"certificationFiles":   fileURLs(st.CertificationFiles),
			"idDocumentFiles":      fileURLs(st.IDDocumentFiles),
			"divingCertFiles":      fileURLs(st.DivingCertFiles),
			"safetyCertFiles":      fileURLs(st.SafetyCertFiles),
			"hazardousCertFiles":   fileURLs(st.HazardousAreaCertFiles),
			"insuranceFiles":       fileURLs(st.InsuranceFiles),
			"proofOfAddressFiles":  fileURLs(st.ProofOfAddressFiles),
		}),
		"banking": prune(map[string]interface{}{
			"bankName":          st.BankName,
			"accountNumber":     st.AccountNumber,
			"accountName":       st.AccountName,
			"sortCode":          st.SortCode,
			"bvn":               st.BVN,
			"preferredCurrency": st.PreferredCurrency,
		}),
		"consents": map[string]interface{}{
			"terms":       st.TermsAccepted,
			"dataConsent": st.DataConsentAccepted,
			"antiBribery": st.AntiBriberyAccepted,
			"sanctions":   st.SanctionsAccepted,
			"commission":  st.CommissionAccepted,
		},
	}

	if len(st.ProductListings) > 0 {
		listings := make([]map[string]interface{}, 0, len(st.ProductListings))
		for _, l := range st.ProductListings {
			listings = append(listings, prune(map[string]interface{}{
				"name":        l.Name,
				"category":    l.Category,
				"priceRange":  l.PriceRange,
				"description": l.Description,
			}))
		}
		data["productListings"] = listings
	}

	return &models.Application{
		PartnerCountry:    st.Country,
		Category:          st.Category,
		PartnerType:       st.PartnerType,
		PartnerClass:      st.PartnerClass,
		LegalName:         st.LegalName,
		Email:             st.Email,
		Phone:             st.Phone,
		PhoneVerified:     st.PhoneVerified,
		NINVerified:       st.NINVerified,
		ApplicationData:   data,
		ApplicationStatus: string(models.StatusSubmitted),
	}
}

// DisplayName derives a human-readable name for account creation.
func DisplayName(st *models.FormState) string {
	if st.LegalName != "" {
		return st.LegalName
	}
	if at := strings.IndexByte(st.Email, '@'); at > 0 {
		return st.Email[:at]
	}
	return st.Email
}

// prune drops zero values so absent optionals stay out of the document.
func prune(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		switch t := v.(type) {
		case string:
			if t == "" {
				delete(m, k)
			}
		case int:
			if t == 0 {
				delete(m, k)
			}
		case []string:
			if len(t) == 0 {
				delete(m, k)
			}
		}
	}
	return m
}

func fileURLs(files []models.UploadedFile) []string {
	if len(files) == 0 {
		return nil
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.URL)
	}
	return out
}
