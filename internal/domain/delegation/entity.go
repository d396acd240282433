package delegation

import "time"

// Permission is one unit of HOD authority that can be delegated.
type Permission string

const (
	PermissionApproveRequests Permission = "approve_requests"
	PermissionRejectRequests  Permission = "reject_requests"
	PermissionRequestMoreInfo Permission = "request_more_info"
)

// AllPermissions returns every delegable permission.
func AllPermissions() []Permission {
	return []Permission{
		PermissionApproveRequests,
		PermissionRejectRequests,
		PermissionRequestMoreInfo,
	}
}

// IsValidPermission reports whether p names a delegable permission.
func IsValidPermission(p Permission) bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

// Grant is the time-bounded authority an HOD has handed to a faculty member.
// It lives on the faculty's user record; "active" is always derived from the
// window at call time, never persisted, so a grant expires with no write.
type Grant struct {
	GrantedBy   string
	StartDate   time.Time
	EndDate     time.Time
	Permissions []Permission
}

// ActiveAt reports whether the grant confers authority at instant now.
func (g *Grant) ActiveAt(now time.Time) bool {
	if g == nil || g.GrantedBy == "" {
		return false
	}
	if len(g.Permissions) == 0 {
		return false
	}
	return !now.Before(g.StartDate) && !now.After(g.EndDate)
}

// Has reports whether the grant includes permission p.
func (g *Grant) Has(p Permission) bool {
	if g == nil {
		return false
	}
	for _, granted := range g.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Status constants reported on delegation listings.
type Status string

const (
	StatusActive    Status = "active"
	StatusScheduled Status = "scheduled"
	StatusExpired   Status = "expired"
)

// StatusAt derives the grant's display status at instant now.
func (g *Grant) StatusAt(now time.Time) Status {
	if now.Before(g.StartDate) {
		return StatusScheduled
	}
	if now.After(g.EndDate) {
		return StatusExpired
	}
	return StatusActive
}
