package delegation

import (
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

// GrantRequest is the payload an HOD submits to delegate authority.
type GrantRequest struct {
	FacultyID   string   `json:"faculty_id"`
	StartDate   string   `json:"start_date"` // "2006-01-02T15:04:05Z" or "2006-01-02"
	EndDate     string   `json:"end_date"`
	Permissions []string `json:"permissions"`
}

func (r GrantRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FacultyID) {
		errs = append(errs, validator.ValidationError{Field: "faculty_id", Message: "faculty_id is required"})
	}
	if _, ok := validator.ParseInstant(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a valid date"})
	}
	if _, ok := validator.ParseInstant(r.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a valid date"})
	}
	if len(r.Permissions) == 0 {
		errs = append(errs, validator.ValidationError{Field: "permissions", Message: "at least one permission is required"})
	}
	for _, p := range r.Permissions {
		if !IsValidPermission(Permission(p)) {
			errs = append(errs, validator.ValidationError{Field: "permissions", Message: "unknown permission: " + p})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Window returns the parsed delegation window. Call Validate first.
func (r GrantRequest) Window() (start, end time.Time) {
	start, _ = validator.ParseInstant(r.StartDate)
	end, _ = validator.ParseInstant(r.EndDate)
	return start, end
}

// PermissionSet converts the wire strings to typed permissions.
func (r GrantRequest) PermissionSet() []Permission {
	perms := make([]Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, Permission(p))
	}
	return perms
}

// ExtendRequest is the payload an HOD submits to push a grant's end date out.
type ExtendRequest struct {
	FacultyID  string `json:"faculty_id"`
	NewEndDate string `json:"new_end_date"`
}

func (r ExtendRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FacultyID) {
		errs = append(errs, validator.ValidationError{Field: "faculty_id", Message: "faculty_id is required"})
	}
	if _, ok := validator.ParseInstant(r.NewEndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "new_end_date", Message: "must be a valid date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// GrantView is one row of an HOD's delegation listing. Active is computed at
// query time from the grant window, never read from storage.
type GrantView struct {
	FacultyID   string       `json:"faculty_id"`
	FacultyName string       `json:"faculty_name"`
	Email       string       `json:"email"`
	Department  string       `json:"department"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Permissions []Permission `json:"permissions"`
	Active      bool         `json:"active"`
	Status      Status       `json:"status"`
}

// EligibleFaculty is a department member with no currently-active grant.
type EligibleFaculty struct {
	FacultyID   string `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`
	Email       string `json:"email"`
	// PreviouslyDelegated marks faculty whose earlier grant lapsed or was revoked.
	PreviouslyDelegated bool `json:"previously_delegated"`
}
