package license

import "time"

// Status is the subscription lifecycle state. Anything outside the known set
// is treated as unknown and denied.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) Known() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// ModuleCode names a subscription feature unit.
type ModuleCode string

const (
	// core modules, always part of every plan
	ModuleScheduling    ModuleCode = "scheduling"
	ModulePatients      ModuleCode = "patients"
	ModuleBilling       ModuleCode = "billing"
	ModuleClinicalBasic ModuleCode = "clinical-basic"

	// premium add-ons
	ModuleClinicalAdvanced ModuleCode = "clinical-advanced"
	ModuleTeledentistry    ModuleCode = "teledentistry"
	ModuleLabIntegration   ModuleCode = "lab-integration"
	ModuleAnalytics        ModuleCode = "analytics"
	ModuleMarketing        ModuleCode = "marketing"
	ModuleMultiLocation    ModuleCode = "multi-location"
)

// CoreModules are available on every plan regardless of entitlements.
var CoreModules = []ModuleCode{
	ModuleScheduling,
	ModulePatients,
	ModuleBilling,
	ModuleClinicalBasic,
}

func IsCoreModule(m ModuleCode) bool {
	for _, c := range CoreModules {
		if c == m {
			return true
		}
	}
	return false
}

// Subscription is the license state evaluated per request: status, the
// enabled module set, and the grace-period flags that apply while suspended.
type Subscription struct {
	Status            Status
	Modules           []ModuleCode
	InGracePeriod     bool
	GracePeriodEndsAt *time.Time
}

// GraceActive reports whether the read-only grace window is currently open:
// suspended, flagged, and with an end date still in the future.
func (s *Subscription) GraceActive(now time.Time) bool {
	if s == nil || s.Status != StatusSuspended || !s.InGracePeriod {
		return false
	}
	return s.GracePeriodEndsAt != nil && s.GracePeriodEndsAt.After(now)
}

// HasModule reports direct membership in the enabled module set.
func (s *Subscription) HasModule(m ModuleCode) bool {
	if s == nil {
		return false
	}
	for _, enabled := range s.Modules {
		if enabled == m {
			return true
		}
	}
	return false
}
