package user

import (
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

// CreateAccountRequest is the admin payload for provisioning an account.
type CreateAccountRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (r CreateAccountRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "must be a valid email address"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, validator.ValidationError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if !IsValidRole(Role(r.Role)) {
		errs = append(errs, validator.ValidationError{Field: "role", Message: "must be one of faculty, hod, dean, admin"})
	}
	if (Role(r.Role) == RoleFaculty || Role(r.Role) == RoleHOD) && validator.IsEmpty(r.Department) {
		errs = append(errs, validator.ValidationError{Field: "department", Message: "department is required for faculty and hod accounts"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{Field: "email", Message: "must be a valid email address"})
	}
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{Field: "password", Message: "password is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoginResponse pairs the access token with the authenticated user.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        View   `json:"user"`
}

// View is the user projection returned over the wire. The password hash never
// leaves the domain layer.
type View struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`

	Delegation *DelegationView `json:"delegation,omitempty"`
}

// DelegationView projects the grant columns with the derived active flag.
type DelegationView struct {
	GrantedBy   string                  `json:"granted_by"`
	StartDate   time.Time               `json:"start_date"`
	EndDate     time.Time               `json:"end_date"`
	Permissions []delegation.Permission `json:"permissions"`
	Active      bool                    `json:"active"`
}

// ToView projects u for responses; now feeds the derived delegation state.
func (u User) ToView(now time.Time) View {
	v := View{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
	if u.Delegation != nil {
		v.Delegation = &DelegationView{
			GrantedBy:   u.Delegation.GrantedBy,
			StartDate:   u.Delegation.StartDate,
			EndDate:     u.Delegation.EndDate,
			Permissions: u.Delegation.Permissions,
			Active:      u.Delegation.ActiveAt(now),
		}
	}
	return v
}
