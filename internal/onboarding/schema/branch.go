// Package schema declares the wizard's step registry and the branch
// resolver deciding which fields each step shows and requires.
package schema

import "partner-onboarding/internal/models"

// Countries and categories supported by the intake flow.
const (
	CountryNG = "NG"
	CountryUK = "UK"

	CategoryInstaller = "installer"
	CategorySales     = "sales"

	PartnerTypeCompany    = "company"
	PartnerTypeIndividual = "individual"
)

// Specialties that activate the extra certification section.
const (
	SpecialtyOffshore = "Offshore / Onshore"
	SpecialtyOilGas   = "Oil & Gas sector"
)

// Partner classes and provided services that activate the product-listing
// section.
var (
	listingPartnerClasses = map[string]bool{
		"distributor": true,
		"retailer":    true,
	}
	listingServices = map[string]bool{
		"Product sales":    true,
		"Equipment supply": true,
	}
)

// Branch is the explicit tuple that determines which step variant and which
// optional sections apply. Resolvers derive everything from this tuple plus
// the specialty and service answers; they are pure and re-runnable on every
// keystroke.
type Branch struct {
	Country      string
	Category     string
	PartnerType  string
	PartnerClass string
}

// BranchOf extracts the branch tuple from the accumulated answers.
func BranchOf(st *models.FormState) Branch {
	return Branch{
		Country:      st.Country,
		Category:     st.Category,
		PartnerType:  st.PartnerType,
		PartnerClass: st.PartnerClass,
	}
}

// IsCompany reports whether the company-compliance variant applies. An
// unanswered partner type resolves to the individual variant so no step is
// ever left without a field set.
func (b Branch) IsCompany() bool {
	return b.PartnerType == PartnerTypeCompany
}

// OffshoreSectionActive reports whether the diving/safety and hazardous-area
// certification fields apply.
func OffshoreSectionActive(st *models.FormState) bool {
	for _, s := range st.Specialties {
		if s == SpecialtyOffshore || s == SpecialtyOilGas {
			return true
		}
	}
	return false
}

// HazardousSectionActive reports whether the stricter hazardous-area
// certification group applies on top of the offshore group.
func HazardousSectionActive(st *models.FormState) bool {
	for _, s := range st.Specialties {
		if s == SpecialtyOilGas {
			return true
		}
	}
	return false
}

// ProductListingActive reports whether the product-listing section is part
// of this branch.
func ProductListingActive(st *models.FormState) bool {
	if listingPartnerClasses[st.PartnerClass] {
		return true
	}
	for _, s := range st.ServicesProvided {
		if listingServices[s] {
			return true
		}
	}
	return false
}
