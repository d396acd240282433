package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/middleware"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type DepartureHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListDepartmentQueue(w http.ResponseWriter, r *http.Request)
	ListDeanQueue(w http.ResponseWriter, r *http.Request)

	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	RequestMoreInfo(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
}

type DepartureHandlerImpl struct {
	departureService departure.Service
}

func NewDepartureHandler(departureService departure.Service) DepartureHandler {
	return &DepartureHandlerImpl{departureService: departureService}
}

// Create implements DepartureHandler.
func (h *DepartureHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req departure.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.FacultyID = userID

	view, err := h.departureService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Departure request submitted successfully", view)
}

// Get implements DepartureHandler.
func (h *DepartureHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	view, err := h.departureService.Get(r.Context(), userID, requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, view)
}

// ListMine implements DepartureHandler.
func (h *DepartureHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.departureService.ListMine)
}

// ListDepartmentQueue implements DepartureHandler.
func (h *DepartureHandlerImpl) ListDepartmentQueue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.departureService.ListDepartmentQueue)
}

// ListDeanQueue implements DepartureHandler.
func (h *DepartureHandlerImpl) ListDeanQueue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.departureService.ListDeanQueue)
}

func (h *DepartureHandlerImpl) list(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID string, filter departure.Filter) (departure.ListResponse, error)) {
	userID, ok := middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	filter := parseFilter(r).Normalize()
	resp, err := fn(r.Context(), userID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int((resp.Total + int64(filter.Limit) - 1) / int64(filter.Limit))
	response.SuccessWithMeta(w, resp.Requests, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: resp.Total,
		TotalPages: totalPages,
	})
}

// Approve implements DepartureHandler.
func (h *DepartureHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	view, err := h.departureService.Approve(r.Context(), userID, requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Departure request approved successfully", view)
}

// Reject implements DepartureHandler.
func (h *DepartureHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	var req departure.RejectRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reject request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	view, err := h.departureService.Reject(r.Context(), userID, requestID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Departure request rejected", view)
}

// RequestMoreInfo implements DepartureHandler.
func (h *DepartureHandlerImpl) RequestMoreInfo(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	var req departure.MoreInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RequestMoreInfo decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	view, err := h.departureService.RequestMoreInfo(r.Context(), userID, requestID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "More information requested", view)
}

// Cancel implements DepartureHandler.
func (h *DepartureHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	var req departure.CancelRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Cancel request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	view, err := h.departureService.Cancel(r.Context(), userID, requestID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Departure request cancelled", view)
}

// Edit implements DepartureHandler.
func (h *DepartureHandlerImpl) Edit(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := h.transitionParams(w, r)
	if !ok {
		return
	}

	var req departure.EditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Edit request decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	view, err := h.departureService.Edit(r.Context(), userID, requestID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Departure request updated", view)
}

func (h *DepartureHandlerImpl) transitionParams(w http.ResponseWriter, r *http.Request) (userID, requestID string, ok bool) {
	userID, ok = middleware.UserID(r)
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return "", "", false
	}
	requestID = chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return "", "", false
	}
	return userID, requestID, true
}

func parseFilter(r *http.Request) departure.Filter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return departure.Filter{
		Status: departure.Status(q.Get("status")),
		Page:   page,
		Limit:  limit,
	}
}
