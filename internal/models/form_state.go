package models

import "time"

// ApplicationStatus is the terminal status on the form aggregate.
type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "draft"
	StatusSubmitted ApplicationStatus = "submitted"
)

// UploadedFile is a handle to a stored document. It is owned by whichever
// FormState field slice it was appended to; removal is always an explicit
// user action.
type UploadedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// ProductListing is one entry of the optional product-listing section.
type ProductListing struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceRange  string `json:"priceRange,omitempty"`
	Description string `json:"description,omitempty"`
}

// Address is the nested business address block.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode,omitempty"`
}

// FormState is the aggregate root of the onboarding wizard: the current step
// pointer plus every collected answer and derived verification flag.
//
// CurrentStep only advances through the validation engine; it may be
// decremented freely. Secrets (password, OTP code) never serialize.
type FormState struct {
	CurrentStep int `json:"currentStep"`

	// Step 0: country, category, policy, national ID.
	Country        string `json:"country"`
	Category       string `json:"category"`
	PolicyAccepted bool   `json:"policyAccepted"`
	NIN            string `json:"nin,omitempty"`
	NINVerified    bool   `json:"ninVerified"`

	// Step 1: account credentials.
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	PhoneVerified   bool      `json:"phoneVerified"`
	OTPSent         bool      `json:"otpSent"`
	OTPCode         string    `json:"-"`
	OTPIssuedAt     time.Time `json:"-"`
	Password        string    `json:"-"`
	PrivacyAccepted bool      `json:"privacyAccepted"`

	// Step 2: legal identity. Which regulatory identifiers apply depends
	// on the country and category branch.
	PartnerType         string `json:"partnerType"`
	LegalName           string `json:"legalName"`
	TradingName         string `json:"tradingName,omitempty"`
	RegistrationNumber  string `json:"registrationNumber,omitempty"`
	DateOfIncorporation string `json:"dateOfIncorporation,omitempty"`
	CACNumber           string `json:"cacNumber,omitempty"`
	CORENLicense        string `json:"corenLicense,omitempty"`
	NEMSALicense        string `json:"nemsaLicense,omitempty"`
	SCUMLClearance      string `json:"scumlClearance,omitempty"`
	VATNumber           string `json:"vatNumber,omitempty"`
	CompaniesHouseNo    string `json:"companiesHouseNumber,omitempty"`
	MCSCertificate      string `json:"mcsCertificate,omitempty"`
	NICEICCertificate   string `json:"niceicCertificate,omitempty"`

	// Step 3: location and coverage.
	Address           Address  `json:"address"`
	CoverageStates    []string `json:"coverageStates,omitempty"`
	OperatingRadiusKM int      `json:"operatingRadiusKm,omitempty"`
	WillingToTravel   bool     `json:"willingToTravel"`

	// Step 4: classification.
	PartnerClass        string `json:"partnerClass"`
	YearsInBusiness     int    `json:"yearsInBusiness,omitempty"`
	BusinessDescription string `json:"businessDescription,omitempty"`
	WebsiteURL          string `json:"websiteUrl,omitempty"`
	ReferralSource      string `json:"referralSource,omitempty"`

	// Step 5: specialties.
	Specialties []string `json:"specialties,omitempty"`

	// Step 6: services offered and needed.
	ServicesProvided []string `json:"servicesProvided,omitempty"`
	ServicesNeeded   []string `json:"servicesNeeded,omitempty"`

	// Step 7: capacity.
	TeamSize              int    `json:"teamSize,omitempty"`
	InstallationsPerMonth int    `json:"installationsPerMonth,omitempty"`
	MaxProjectValue       string `json:"maxProjectValue,omitempty"`
	InventoryCapacity     string `json:"inventoryCapacity,omitempty"`
	DeliveryCapability    bool   `json:"deliveryCapability"`

	// Step 8: certifications and documents. The diving/safety and
	// hazardous-area groups only apply on the offshore / oil-and-gas branch.
	CertificationFiles     []UploadedFile `json:"certificationFiles,omitempty"`
	IDDocumentFiles        []UploadedFile `json:"idDocumentFiles,omitempty"`
	DivingCertFiles        []UploadedFile `json:"divingCertFiles,omitempty"`
	SafetyCertFiles        []UploadedFile `json:"safetyCertFiles,omitempty"`
	HazardousAreaCertFiles []UploadedFile `json:"hazardousAreaCertFiles,omitempty"`
	OffshoreExperienceYrs  int            `json:"offshoreExperienceYears,omitempty"`

	// Step 9: compliance. Company branch and individual branch require
	// different evidence.
	TaxID                string         `json:"taxId,omitempty"`
	InsuranceDescription string         `json:"insuranceDescription,omitempty"`
	InsuranceFiles       []UploadedFile `json:"insuranceFiles,omitempty"`
	ProofOfAddressFiles  []UploadedFile `json:"proofOfAddressFiles,omitempty"`

	// Step 10: banking and commercial terms.
	BankName           string `json:"bankName"`
	AccountNumber      string `json:"accountNumber"`
	AccountName        string `json:"accountName,omitempty"`
	SortCode           string `json:"sortCode,omitempty"`
	BVN                string `json:"bvn,omitempty"`
	PreferredCurrency  string `json:"preferredCurrency"`
	CommissionAccepted bool   `json:"commissionAccepted"`

	// Step 11: product listings (branch-conditional section).
	ProductListings []ProductListing `json:"productListings,omitempty"`
	ListingFiles    []UploadedFile   `json:"listingFiles,omitempty"`

	// Step 12: legal consents.
	TermsAccepted       bool `json:"termsAccepted"`
	DataConsentAccepted bool `json:"dataConsentAccepted"`
	AntiBriberyAccepted bool `json:"antiBriberyAccepted"`
	SanctionsAccepted   bool `json:"sanctionsAccepted"`

	ApplicationStatus ApplicationStatus `json:"applicationStatus"`
}

// NewFormState creates an empty draft at step 0.
func NewFormState() *FormState {
	return &FormState{ApplicationStatus: StatusDraft}
}

// SavedProgress is the persisted envelope for session resumption. The step
// always equals CurrentStep at the time of the last successful write.
type SavedProgress struct {
	FormData *FormState `json:"formData"`
	Step     int        `json:"step"`
	SavedAt  time.Time  `json:"savedAt"`
}
