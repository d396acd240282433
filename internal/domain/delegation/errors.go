package delegation

import "errors"

var (
	ErrAlreadyDelegated   = errors.New("faculty already has an active delegation")
	ErrNotGrantingHOD     = errors.New("only the granting hod may modify this delegation")
	ErrNoGrantToExtend    = errors.New("no delegation grant to extend")
	ErrInvalidWindow      = errors.New("delegation end date must be after start date")
	ErrEndDateNotLater    = errors.New("new end date must be after the current end date")
	ErrNoPermissions      = errors.New("at least one permission is required")
	ErrUnknownPermission  = errors.New("unknown delegation permission")
	ErrGranteeNotFaculty  = errors.New("delegation grantee must be a faculty member")
	ErrGrantorNotHOD      = errors.New("delegation grantor must be an hod")
	ErrDepartmentMismatch = errors.New("faculty must belong to the hod's department")
)
