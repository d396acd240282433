package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/middleware"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type DelegationHandler interface {
	Grant(w http.ResponseWriter, r *http.Request)
	Revoke(w http.ResponseWriter, r *http.Request)
	Extend(w http.ResponseWriter, r *http.Request)
	ListEligibleFaculty(w http.ResponseWriter, r *http.Request)
	ListMyDelegations(w http.ResponseWriter, r *http.Request)
}

type DelegationHandlerImpl struct {
	delegationService delegation.Service
}

func NewDelegationHandler(delegationService delegation.Service) DelegationHandler {
	return &DelegationHandlerImpl{delegationService: delegationService}
}

// Grant implements DelegationHandler.
func (h *DelegationHandlerImpl) Grant(w http.ResponseWriter, r *http.Request) {
	hodID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req delegation.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Grant delegation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	view, err := h.delegationService.Grant(r.Context(), hodID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Delegation granted successfully", view)
}

// Revoke implements DelegationHandler.
func (h *DelegationHandlerImpl) Revoke(w http.ResponseWriter, r *http.Request) {
	hodID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	facultyID := chi.URLParam(r, "facultyId")
	if facultyID == "" {
		response.BadRequest(w, "Faculty ID is required", nil)
		return
	}

	if err := h.delegationService.Revoke(r.Context(), hodID, facultyID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Delegation revoked successfully", nil)
}

// Extend implements DelegationHandler.
func (h *DelegationHandlerImpl) Extend(w http.ResponseWriter, r *http.Request) {
	hodID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req delegation.ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Extend delegation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.FacultyID = chi.URLParam(r, "facultyId")
	if req.FacultyID == "" {
		response.BadRequest(w, "Faculty ID is required", nil)
		return
	}

	view, err := h.delegationService.Extend(r.Context(), hodID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Delegation extended successfully", view)
}

// ListEligibleFaculty implements DelegationHandler.
func (h *DelegationHandlerImpl) ListEligibleFaculty(w http.ResponseWriter, r *http.Request) {
	hodID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	eligible, err := h.delegationService.ListEligibleFaculty(r.Context(), hodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, eligible)
}

// ListMyDelegations implements DelegationHandler.
func (h *DelegationHandlerImpl) ListMyDelegations(w http.ResponseWriter, r *http.Request) {
	hodID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	views, err := h.delegationService.ListMyDelegations(r.Context(), hodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, views)
}
