package engine

import "fastadmin/internal/admin"

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

// Authorize decides whether the principal may perform an action on a table.
// The gate is deliberately coarse: any active staff member may perform any
// admin action, superusers always may. A disabled account is denied before
// the superuser check, so deactivating a superuser locks them out. Per-table
// permission rows exist and are queryable (see
// auth.Service.EffectivePermissions) but are not consulted here; tightening
// the gate means consulting them before the staff check.
func Authorize(p *admin.Principal, table, action string) Decision {
	if p == nil {
		return Decision{Reason: "authentication required"}
	}
	if !p.Active {
		return Decision{Reason: "account is disabled"}
	}
	if p.Superuser {
		return allow
	}
	if !p.Staff {
		return Decision{Reason: "staff access required"}
	}
	return allow
}

// Require converts a denied decision into the matching API error.
func Require(p *admin.Principal, table, action string) *AppError {
	d := Authorize(p, table, action)
	if d.Allowed {
		return nil
	}
	if p == nil {
		return UnauthenticatedError()
	}
	return ForbiddenError(d.Reason)
}
