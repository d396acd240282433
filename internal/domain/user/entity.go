package user

import (
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
)

type Role string

const (
	RoleFaculty Role = "faculty" // Submits departure requests
	RoleHOD     Role = "hod"     // Department-scoped approver
	RoleDean    Role = "dean"    // Approves requests submitted by HODs
	RoleAdmin   Role = "admin"   // Account management
)

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleFaculty, RoleHOD, RoleDean, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	IsActive     bool

	// Delegation is present only on faculty accounts that hold (or once held)
	// a grant from their HOD. Nil means never delegated or revoked.
	Delegation *delegation.Grant

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsHOD checks if user is a head of department
func (u *User) IsHOD() bool {
	return u.Role == RoleHOD
}

// IsDean checks if user is the dean
func (u *User) IsDean() bool {
	return u.Role == RoleDean
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasActiveDelegation reports whether the user carries delegated HOD authority
// at instant now. Always recomputed; a grant expires with no write.
func (u *User) HasActiveDelegation(now time.Time) bool {
	return u.Role == RoleFaculty && u.Delegation.ActiveAt(now)
}
