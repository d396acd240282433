package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/middleware"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AccountHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type AccountHandlerImpl struct {
	userService user.Service
}

func NewAccountHandler(userService user.Service) AccountHandler {
	return &AccountHandlerImpl{userService: userService}
}

// Create implements AccountHandler.
func (h *AccountHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req user.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create account decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	view, err := h.userService.CreateAccount(r.Context(), adminID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Account created successfully", view)
}

// Deactivate implements AccountHandler.
func (h *AccountHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == "" {
		response.BadRequest(w, "User ID is required", nil)
		return
	}

	if err := h.userService.DeactivateAccount(r.Context(), adminID, userID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Account deactivated successfully", nil)
}

// List implements AccountHandler.
func (h *AccountHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	q := r.URL.Query()
	views, err := h.userService.ListAccounts(r.Context(), adminID, q.Get("department"), user.Role(q.Get("role")))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, views)
}
