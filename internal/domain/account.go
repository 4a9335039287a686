package domain

import "time"

type OrgType string

const (
	OrgSoloPractice  OrgType = "solo_practice"
	OrgGroupPractice OrgType = "group_practice"
	OrgDSO           OrgType = "dso"
	OrgHospital      OrgType = "hospital"
	OrgEducational   OrgType = "educational"
	OrgOther         OrgType = "other"
)

type OrgStatus string

const (
	OrgActive      OrgStatus = "active"
	OrgTrial       OrgStatus = "trial"
	OrgSuspended   OrgStatus = "suspended"
	OrgDeactivated OrgStatus = "deactivated"
)

type PlanType string

const (
	PlanBasic        PlanType = "basic"
	PlanProfessional PlanType = "professional"
	PlanPractice     PlanType = "practice"
	PlanEnterprise   PlanType = "enterprise"
)

// MaxUsers returns the seat limit for a plan. Unknown plans get a single seat.
func (p PlanType) MaxUsers() int {
	switch p {
	case PlanBasic:
		return 2
	case PlanProfessional:
		return 5
	case PlanPractice:
		return 15
	case PlanEnterprise:
		return 100
	default:
		return 1
	}
}

// TrialPeriod is how long a newly created organization stays on trial.
const TrialPeriod = 14 * 24 * time.Hour

// InvitationTTL is how long a pending invitation stays valid.
const InvitationTTL = 7 * 24 * time.Hour

type OrgFeatures struct {
	ShareLinks   bool `json:"shareLinks"`
	Templates    bool `json:"templates"`
	VoiceInput   bool `json:"voiceInput"`
	ExportPDF    bool `json:"exportPdf"`
	CustomAPIKey bool `json:"customApiKey"`
}

type OrgSettings struct {
	Theme    string      `json:"theme"`
	Features OrgFeatures `json:"features"`
	Model    string      `json:"model"`
}

// DefaultOrgSettings are applied to every new organization.
func DefaultOrgSettings() OrgSettings {
	return OrgSettings{
		Theme: "auto",
		Features: OrgFeatures{
			ShareLinks: true,
			Templates:  true,
			VoiceInput: true,
			ExportPDF:  true,
		},
		Model: "gpt-3.5-turbo",
	}
}

// Organization is a tenant: a dental practice sharing one chat collection.
type Organization struct {
	ID          OrgID       `json:"id"`
	Name        string      `json:"name"`
	OwnerID     UserID      `json:"ownerId"`
	Email       string      `json:"email"`
	Type        OrgType     `json:"type"`
	PlanType    PlanType    `json:"planType"`
	Status      OrgStatus   `json:"status"`
	MaxUsers    int         `json:"maxUsers"`
	Settings    OrgSettings `json:"settings"`
	CreatedAt   Timestamp   `json:"createdAt"`
	UpdatedAt   Timestamp   `json:"updatedAt"`
	TrialEndsAt Timestamp   `json:"trialEndsAt"`
}

// UserProfile is the per-user document in the remote store.
type UserProfile struct {
	ID             UserID    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	OrganizationID OrgID     `json:"organizationId,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
	LastLogin      Timestamp `json:"lastLogin"`
}

// Invitation is a pending request for a user to join an organization.
type Invitation struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	OrganizationID OrgID     `json:"organizationId"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      Timestamp `json:"createdAt"`
	ExpiresAt      Timestamp `json:"expiresAt"`
}
