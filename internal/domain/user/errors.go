package user

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailExists           = errors.New("email already registered")
	ErrAccountInactive       = errors.New("account is deactivated")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRole           = errors.New("invalid role")
	ErrDepartmentRequired    = errors.New("department is required for this role")
	ErrActiveHODExists       = errors.New("department already has an active hod")
	ErrActiveDeanExists      = errors.New("an active dean already exists")
	ErrAdminAccessRequired   = errors.New("admin access required")
	ErrHODAccessRequired     = errors.New("hod access required")
	ErrInvalidPasswordLength = errors.New("password must be at least 8 characters")
)
