package license

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

// DenialCode classifies why access was refused. The guard maps these to
// transport responses; the Reason strings are stable and user-facing.
type DenialCode string

const (
	DenialExpired             DenialCode = "subscription_expired"
	DenialSuspended           DenialCode = "subscription_suspended"
	DenialCancelled           DenialCode = "subscription_cancelled"
	DenialUnknownStatus       DenialCode = "subscription_unknown"
	DenialModuleNotEnabled    DenialCode = "module_not_enabled"
	DenialMissingDependencies DenialCode = "module_missing_dependencies"
)

const (
	reasonExpired       = "Your subscription has expired. Please renew your plan to regain access."
	reasonSuspended     = "Your subscription is suspended due to a payment failure. Please update your payment method."
	reasonGraceReadOnly = "Your subscription is suspended. Read-only access is available until the grace period ends."
	reasonCancelled     = "Your subscription has been cancelled. Please contact us to reactivate your account."
	reasonUnknown       = "Your subscription status could not be determined. Please contact support."
)

// Decision is the outcome of a license check.
type Decision struct {
	Allowed bool
	Code    DenialCode
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code DenialCode, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Engine evaluates subscription state. It is stateless; the clock is
// injectable for tests.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// IsReadMethod reports whether an HTTP-style method is read-only.
func IsReadMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// EvaluateAccess applies the subscription state machine:
// trial/active grant everything, suspended grants reads while the grace
// window is open, everything else is denied with its own reason.
// A nil subscription fails closed as unknown.
func (e *Engine) EvaluateAccess(sub *Subscription, method string) Decision {
	if sub == nil {
		return deny(DenialUnknownStatus, reasonUnknown)
	}
	switch sub.Status {
	case StatusTrial, StatusActive:
		return allow()
	case StatusSuspended:
		if sub.GraceActive(e.now()) {
			if IsReadMethod(method) {
				return allow()
			}
			return deny(DenialSuspended, reasonGraceReadOnly)
		}
		return deny(DenialSuspended, reasonSuspended)
	case StatusExpired:
		return deny(DenialExpired, reasonExpired)
	case StatusCancelled:
		return deny(DenialCancelled, reasonCancelled)
	default:
		return deny(DenialUnknownStatus, reasonUnknown)
	}
}

// CanPerformOperation is the boolean flavor of EvaluateAccess.
func (e *Engine) CanPerformOperation(sub *Subscription, method string) bool {
	return e.EvaluateAccess(sub, method).Allowed
}

// CanPerformWriteOperation reports whether a mutating method is allowed.
// Read methods are rejected here by definition.
func (e *Engine) CanPerformWriteOperation(sub *Subscription, method string) bool {
	if IsReadMethod(method) {
		return false
	}
	return e.EvaluateAccess(sub, method).Allowed
}

// EvaluateModuleAccess gates a request on a module entitlement. The
// subscription state machine applies first; then the module must be enabled
// (core modules always are) with its prerequisite closure satisfied. While
// the grace window is open, read access is granted even when the module
// entitlement would otherwise be incomplete, mirroring the read-only grace
// semantics.
func (e *Engine) EvaluateModuleAccess(sub *Subscription, module ModuleCode, method string) Decision {
	statusDecision := e.EvaluateAccess(sub, method)
	if !statusDecision.Allowed {
		return statusDecision
	}

	grace := sub.GraceActive(e.now()) && IsReadMethod(method)

	if !sub.HasModule(module) && !IsCoreModule(module) {
		if grace {
			return allow()
		}
		return deny(DenialModuleNotEnabled, moduleNotEnabledReason(module))
	}

	if missing := AllMissingDependencies(module, sub); len(missing) > 0 {
		if grace {
			return allow()
		}
		return deny(DenialMissingDependencies, missingDependenciesReason(module, missing))
	}

	return allow()
}

// CanAccessModule is the boolean flavor of EvaluateModuleAccess.
func (e *Engine) CanAccessModule(sub *Subscription, module ModuleCode, method string) bool {
	return e.EvaluateModuleAccess(sub, module, method).Allowed
}

func moduleNotEnabledReason(module ModuleCode) string {
	return "The " + string(module) + " module is not enabled on your plan."
}

// missingDependenciesReason is deterministic: the module list is sorted so
// the same inputs always produce the same text.
func missingDependenciesReason(module ModuleCode, missing []ModuleCode) string {
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = string(m)
	}
	sort.Strings(names)
	return "The " + string(module) + " module requires the following modules: " + strings.Join(names, ", ") + "."
}
