package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// SubscriptionClaim is the optional subscription snapshot embedded in an
// access token at issuance time. When present the guard can gate modules
// without a database roundtrip.
type SubscriptionClaim struct {
	Status  string   `json:"status"`
	Modules []string `json:"modules"`
}

// AccessClaims is the payload of an access token. Sub, Email, Roles and
// OrganizationID are mandatory; a token missing any of them is rejected
// with CodeMissingClaims even when its signature checks out.
type AccessClaims struct {
	Sub            string             `json:"sub"`
	Email          string             `json:"email"`
	Roles          []string           `json:"roles"`
	OrganizationID string             `json:"organizationId"`
	ClinicID       string             `json:"clinicId,omitempty"`
	SessionID      string             `json:"sessionId,omitempty"`
	CabinetID      string             `json:"cabinetId,omitempty"`
	Subscription   *SubscriptionClaim `json:"subscription,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Sub and SessionID are
// mandatory.
type RefreshClaims struct {
	Sub       string `json:"sub"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) missingClaims() []string {
	var missing []string
	if c.Sub == "" {
		missing = append(missing, "sub")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if len(c.Roles) == 0 {
		missing = append(missing, "roles")
	}
	if c.OrganizationID == "" {
		missing = append(missing, "organizationId")
	}
	return missing
}

func (c *RefreshClaims) missingClaims() []string {
	var missing []string
	if c.Sub == "" {
		missing = append(missing, "sub")
	}
	if c.SessionID == "" {
		missing = append(missing, "sessionId")
	}
	return missing
}
