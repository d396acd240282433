package response

import (
	"errors"
	"net/http"

	"github.com/akanaz/exitpass-backend-go/internal/domain/authz"
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Authorization denials carry the reason as the error code. A denial on
	// an already-decided request is a state conflict, not missing rights.
	var denied *authz.DeniedError
	if errors.As(err, &denied) {
		if denied.Reason == authz.ReasonAlreadyProcessed {
			Conflict(w, "Request has already been processed")
			return
		}
		ForbiddenWithCode(w, string(denied.Reason), denied.Error())
		return
	}

	switch {
	// User domain errors
	case errors.Is(err, user.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrAccountInactive):
		Forbidden(w, "Account is deactivated")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrActiveHODExists):
		Conflict(w, "Department already has an active head of department")
	case errors.Is(err, user.ErrActiveDeanExists):
		Conflict(w, "An active dean already exists")
	case errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")
	case errors.Is(err, user.ErrHODAccessRequired):
		Forbidden(w, "HOD access required")
	case errors.Is(err, user.ErrInvalidRole):
		BadRequest(w, "Invalid role", nil)

	// Departure request domain errors
	case errors.Is(err, departure.ErrRequestNotFound):
		NotFound(w, "Departure request not found")
	case errors.Is(err, departure.ErrAlreadyProcessed):
		Conflict(w, "Request has already been processed")
	case errors.Is(err, departure.ErrDuplicateExitPass):
		Conflict(w, "Exit pass number collision, please retry")

	// Delegation domain errors
	case errors.Is(err, delegation.ErrAlreadyDelegated):
		Conflict(w, "Faculty member already holds an active delegation")
	case errors.Is(err, delegation.ErrNotGrantingHOD):
		Forbidden(w, "Only the granting HOD may modify this delegation")
	case errors.Is(err, delegation.ErrGrantorNotHOD):
		BadRequest(w, "Only an HOD may manage delegations", nil)
	case errors.Is(err, delegation.ErrNoGrantToExtend):
		BadRequest(w, "No delegation grant to extend", nil)
	case errors.Is(err, delegation.ErrGranteeNotFaculty):
		BadRequest(w, "Delegation target must be a faculty member", nil)
	case errors.Is(err, delegation.ErrDepartmentMismatch):
		BadRequest(w, "Delegation target must belong to your department", nil)
	case errors.Is(err, delegation.ErrInvalidWindow):
		BadRequest(w, "Delegation end date must be after the start date", nil)
	case errors.Is(err, delegation.ErrEndDateNotLater):
		BadRequest(w, "New end date must be later than the current end date", nil)
	case errors.Is(err, delegation.ErrNoPermissions):
		BadRequest(w, "At least one permission is required", nil)
	case errors.Is(err, delegation.ErrUnknownPermission):
		BadRequest(w, "Unknown delegation permission", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
