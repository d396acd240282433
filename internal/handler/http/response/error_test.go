package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akanaz/exitpass-backend-go/internal/domain/authz"
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid credentials", user.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"inactive account", user.ErrAccountInactive, http.StatusForbidden, "FORBIDDEN"},
		{"request not found", departure.ErrRequestNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already processed", departure.ErrAlreadyProcessed, http.StatusConflict, "CONFLICT"},
		{"duplicate exit pass", departure.ErrDuplicateExitPass, http.StatusConflict, "CONFLICT"},
		{"active delegation exists", delegation.ErrAlreadyDelegated, http.StatusConflict, "CONFLICT"},
		{"wrong granting hod", delegation.ErrNotGrantingHOD, http.StatusForbidden, "FORBIDDEN"},
		// Grant preconditions and a missing grant are bad input, not missing
		// rights and not a missing resource.
		{"grantor not hod", delegation.ErrGrantorNotHOD, http.StatusBadRequest, "BAD_REQUEST"},
		{"no grant to extend", delegation.ErrNoGrantToExtend, http.StatusBadRequest, "BAD_REQUEST"},
		{"grantee not faculty", delegation.ErrGranteeNotFaculty, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleErrorAuthzDenials(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, &authz.DeniedError{Action: authz.ActionApprove, Reason: authz.ReasonWrongDepartment})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "WRONG_DEPARTMENT", resp.Error.Code)

	// A denial on an already-decided request is a state conflict.
	rec = httptest.NewRecorder()
	HandleError(rec, &authz.DeniedError{Action: authz.ActionApprove, Reason: authz.ReasonAlreadyProcessed})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
