package subscription

import (
	"time"

	"github.com/mehmetcc/denticore/internal/license"
)

// Record is the persisted subscription state for an organization. The guard
// falls back to it when an access token carries no subscription claim.
type Record struct {
	OrganizationID    string
	Status            license.Status
	Modules           []license.ModuleCode
	InGracePeriod     bool
	GracePeriodEndsAt *time.Time
	UpdatedAt         time.Time
}

// License converts the record into the engine's evaluation input.
func (r *Record) License() *license.Subscription {
	if r == nil {
		return nil
	}
	modules := make([]license.ModuleCode, len(r.Modules))
	copy(modules, r.Modules)
	return &license.Subscription{
		Status:            r.Status,
		Modules:           modules,
		InGracePeriod:     r.InGracePeriod,
		GracePeriodEndsAt: r.GracePeriodEndsAt,
	}
}
