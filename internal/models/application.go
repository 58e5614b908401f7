package models

// Application is the write-once record produced at submission: a normalized
// projection of the form aggregate with server-assigned id. Later lifecycle
// (KYC review, activation) belongs to other subsystems and never mutates it
// through this workflow.
type Application struct {
	ID                string                 `json:"id"`
	PartnerID         string                 `json:"partnerId"`
	PartnerCountry    string                 `json:"partnerCountry"`
	Category          string                 `json:"category"`
	PartnerType       string                 `json:"partnerType"`
	PartnerClass      string                 `json:"partnerClass"`
	LegalName         string                 `json:"legalName"`
	Email             string                 `json:"email"`
	Phone             string                 `json:"phone"`
	PhoneVerified     bool                   `json:"phoneVerified"`
	NINVerified       bool                   `json:"ninVerified"`
	ApplicationData   map[string]interface{} `json:"applicationData"`
	ApplicationStatus string                 `json:"applicationStatus"`
	CreatedAt         string                 `json:"createdAt"` // ISO 8601
}

// ProfilePatch is the mutation applied to the applicant's profile after the
// application record exists.
type ProfilePatch struct {
	IdentityID    string `json:"identityId"`
	UserRole      string `json:"userRole"`
	Category      string `json:"category"`
	PhoneVerified bool   `json:"phoneVerified"`
	NINVerified   bool   `json:"ninVerified"`
}
