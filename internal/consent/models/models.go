package models

import "time"

// Type labels the category of consent a user granted. Categories are bound
// to features elsewhere in the system; the ledger only records and reports.
type Type string

const (
	TypeTermsOfService Type = "terms_of_service"
	TypePrivacyPolicy  Type = "privacy_policy"
	TypeMarketing      Type = "marketing"
	TypeDataProcessing Type = "data_processing"
	TypeCookies        Type = "cookies"
)

// ValidTypes is the single source of truth for supported consent types.
var ValidTypes = map[Type]bool{
	TypeTermsOfService: true,
	TypePrivacyPolicy:  true,
	TypeMarketing:      true,
	TypeDataProcessing: true,
	TypeCookies:        true,
}

// IsValid checks if the consent type is one of the supported enum values.
func (t Type) IsValid() bool {
	return ValidTypes[t]
}

// BasisConsent is the legal basis recorded for explicit user grants.
const BasisConsent = "consent"

// Details captures the request context at grant time. The IP is anonymized
// before it gets here; the ledger is retained indefinitely.
type Details struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Record is one consent grant. The ledger is append-only and first-wins:
// at most one record exists per (UserID, Type) pair, and records are never
// updated or deleted (legal retention requirement).
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"consent_type"`
	Basis     string    `json:"basis"`
	Details   Details   `json:"details"`
	GrantedAt time.Time `json:"granted_at"`
}

// Stats reports ledger-wide counts grouped by consent type.
type Stats struct {
	Total  int          `json:"total"`
	ByType map[Type]int `json:"by_type"`
}
