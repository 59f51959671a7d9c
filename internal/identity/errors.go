package identity

import "errors"

var (
	ErrMissingUserID            = errors.New("identity: user id is required")
	ErrMissingEmail             = errors.New("identity: email is required")
	ErrMissingRoles             = errors.New("identity: at least one role is required")
	ErrNilPermissions           = errors.New("identity: permissions must be non-nil (empty is fine)")
	ErrMissingOrganizationID    = errors.New("identity: organization id is required")
	ErrMissingSessionID         = errors.New("identity: session id is required")
	ErrSessionExpiryNotInFuture = errors.New("identity: session expiry must be in the future")
)
