// Package departure implements the request lifecycle state machine. Every
// transition resolves the actor's effective authority (role, department,
// delegation state) through the authz rule table, then applies the status
// change as a compare-and-swap so concurrent decisions against the same
// request cannot both commit. Side effects (audit, email, in-app
// notification) run after the commit and never roll it back.
package departure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/domain/authz"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/notification"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/email"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/exitpass"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/metrics"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/qr"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

type Service struct {
	users         user.Repository
	requests      departure.Repository
	audit         audit.Repository
	notifications notification.Repository
	email         email.Sender
	qr            qr.Encoder
	passes        *exitpass.Generator
	clock         clock.Clock
}

func NewService(
	users user.Repository,
	requests departure.Repository,
	auditRepo audit.Repository,
	notifications notification.Repository,
	sender email.Sender,
	encoder qr.Encoder,
	passes *exitpass.Generator,
	clk clock.Clock,
) *Service {
	return &Service{
		users:         users,
		requests:      requests,
		audit:         auditRepo,
		notifications: notifications,
		email:         sender,
		qr:            encoder,
		passes:        passes,
		clock:         clk,
	}
}

var _ departure.Service = (*Service)(nil)

func (s *Service) Create(ctx context.Context, req departure.CreateRequestRequest) (departure.View, error) {
	if err := req.Validate(); err != nil {
		return departure.View{}, err
	}

	owner, err := s.users.GetByID(ctx, req.FacultyID)
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to load requester: %w", err)
	}
	if !owner.IsActive {
		return departure.View{}, user.ErrAccountInactive
	}

	date, _ := validator.IsValidDate(req.DepartureDate)
	request := departure.Request{
		FacultyID:        owner.ID,
		LeaveType:        departure.LeaveType(req.LeaveType),
		DepartureDate:    date,
		Reason:           req.Reason,
		Destination:      req.Destination,
		Urgency:          departure.Urgency(req.UrgencyLevel),
		WorkloadCoverage: req.WorkloadCoverage,
		AttachmentURL:    req.AttachmentURL,
		Status:           departure.StatusPending,
	}
	if request.LeaveType == departure.LeavePartial {
		request.DepartureTime = req.DepartureTime
	}

	created, err := s.requests.Create(ctx, request)
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to create departure request: %w", err)
	}

	s.appendAudit(ctx, created.ID, owner.ID, audit.ActionRequestSubmitted, map[string]any{
		"leave_type":     string(created.LeaveType),
		"departure_date": created.DepartureDate.Format("2006-01-02"),
		"urgency_level":  string(created.Urgency),
	})
	dateStr, timeStr := created.LeaveWindowDisplay()
	if err := s.email.SendRequestSubmitted(owner.Email, owner.Name, dateStr, timeStr); err != nil {
		metrics.ObserveNotificationFailure("email")
		slog.Error("failed to send submission email", "request_id", created.ID, "error", err)
	}

	created.FacultyName = &owner.Name
	created.FacultyDepartment = &owner.Department
	return created.ToView(), nil
}

func (s *Service) Get(ctx context.Context, actorID, requestID string) (departure.View, error) {
	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionView, Now: s.clock.Now(),
	}); err != nil {
		return departure.View{}, err
	}

	request.FacultyName = &owner.Name
	request.FacultyDepartment = &owner.Department
	return request.ToView(), nil
}

func (s *Service) ListMine(ctx context.Context, actorID string, filter departure.Filter) (departure.ListResponse, error) {
	requests, total, err := s.requests.ListByFaculty(ctx, actorID, filter.Normalize())
	if err != nil {
		return departure.ListResponse{}, fmt.Errorf("failed to list requests: %w", err)
	}
	return toListResponse(requests, total), nil
}

func (s *Service) ListDepartmentQueue(ctx context.Context, actorID string, filter departure.Filter) (departure.ListResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return departure.ListResponse{}, fmt.Errorf("failed to load actor: %w", err)
	}

	now := s.clock.Now()
	if !actor.IsHOD() && !actor.HasActiveDelegation(now) {
		return departure.ListResponse{}, &authz.DeniedError{Action: authz.ActionView, Reason: authz.ReasonNoDelegation}
	}

	requests, total, err := s.requests.ListByDepartment(ctx, actor.Department, filter.Normalize())
	if err != nil {
		return departure.ListResponse{}, fmt.Errorf("failed to list department queue: %w", err)
	}
	return toListResponse(requests, total), nil
}

func (s *Service) ListDeanQueue(ctx context.Context, actorID string, filter departure.Filter) (departure.ListResponse, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return departure.ListResponse{}, fmt.Errorf("failed to load actor: %w", err)
	}
	if !actor.IsDean() {
		return departure.ListResponse{}, &authz.DeniedError{Action: authz.ActionView, Reason: authz.ReasonRoleNotPermitted}
	}

	requests, total, err := s.requests.ListHODRequests(ctx, filter.Normalize())
	if err != nil {
		return departure.ListResponse{}, fmt.Errorf("failed to list dean queue: %w", err)
	}
	return toListResponse(requests, total), nil
}

// Approve moves a pending or more-info request to approved, stamps the
// acting capacity and issues the exit pass.
func (s *Service) Approve(ctx context.Context, actorID, requestID string) (departure.View, error) {
	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	now := s.clock.Now()
	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionApprove, Now: now,
	}); err != nil {
		metrics.ObserveTransition("approve", "denied")
		return departure.View{}, err
	}

	capacity := actingCapacity(actor)
	passNumber := s.passes.New()
	payload, err := s.qrPayload(request, owner, actor, capacity, passNumber, now)
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to build qr payload: %w", err)
	}

	applied, err := s.requests.ApplyStatus(ctx, departure.StatusUpdate{
		ID:             request.ID,
		Expected:       []departure.Status{departure.StatusPending, departure.StatusMoreInfoNeeded},
		Status:         departure.StatusApproved,
		ApprovedBy:     &actor.ID,
		ActingCapacity: &capacity,
		ApprovedAt:     &now,
		ExitPassNumber: &passNumber,
		QRCode:         &payload,
	})
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to apply approval: %w", err)
	}
	if !applied {
		// Lost the race: another decision committed first.
		metrics.ObserveTransition("approve", "conflict")
		return departure.View{}, departure.ErrAlreadyProcessed
	}
	metrics.ObserveTransition("approve", "ok")

	s.appendAudit(ctx, request.ID, actor.ID, audit.ActionApproved, map[string]any{
		"acting_capacity":  string(capacity),
		"exit_pass_number": passNumber,
	})
	s.notifyDecision(ctx, request, owner, actor, notification.TypeRequestApproved,
		"Request approved",
		fmt.Sprintf("Your early departure request was approved. Exit pass %s issued.", passNumber))
	s.sendApprovalEmail(request, owner, actor, passNumber, payload)

	return s.reload(ctx, request.ID, owner)
}

// Reject moves a pending or more-info request to rejected. The decider is
// recorded in the same approver fields; RejectedAt marks the outcome.
func (s *Service) Reject(ctx context.Context, actorID, requestID string, req departure.RejectRequestRequest) (departure.View, error) {
	if err := req.Validate(); err != nil {
		return departure.View{}, err
	}

	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	now := s.clock.Now()
	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionReject, Now: now,
	}); err != nil {
		metrics.ObserveTransition("reject", "denied")
		return departure.View{}, err
	}

	capacity := actingCapacity(actor)
	applied, err := s.requests.ApplyStatus(ctx, departure.StatusUpdate{
		ID:              request.ID,
		Expected:        []departure.Status{departure.StatusPending, departure.StatusMoreInfoNeeded},
		Status:          departure.StatusRejected,
		ApprovedBy:      &actor.ID,
		ActingCapacity:  &capacity,
		RejectedAt:      &now,
		RejectionReason: &req.RejectionReason,
		HODComments:     req.HODComments,
	})
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to apply rejection: %w", err)
	}
	if !applied {
		metrics.ObserveTransition("reject", "conflict")
		return departure.View{}, departure.ErrAlreadyProcessed
	}
	metrics.ObserveTransition("reject", "ok")

	s.appendAudit(ctx, request.ID, actor.ID, audit.ActionRejected, map[string]any{
		"acting_capacity":  string(capacity),
		"rejection_reason": req.RejectionReason,
	})
	s.notifyDecision(ctx, request, owner, actor, notification.TypeRequestRejected,
		"Request rejected", "Your early departure request was rejected: "+req.RejectionReason)
	dateStr, _ := request.LeaveWindowDisplay()
	if err := s.email.SendRequestRejected(owner.Email, owner.Name, dateStr, req.RejectionReason); err != nil {
		metrics.ObserveNotificationFailure("email")
		slog.Error("failed to send rejection email", "request_id", request.ID, "error", err)
	}

	return s.reload(ctx, request.ID, owner)
}

// RequestMoreInfo parks a pending request until the owner clarifies. No email
// is sent for this transition.
func (s *Service) RequestMoreInfo(ctx context.Context, actorID, requestID string, req departure.MoreInfoRequest) (departure.View, error) {
	if err := req.Validate(); err != nil {
		return departure.View{}, err
	}

	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionRequestMoreInfo, Now: s.clock.Now(),
	}); err != nil {
		metrics.ObserveTransition("request_more_info", "denied")
		return departure.View{}, err
	}

	applied, err := s.requests.ApplyStatus(ctx, departure.StatusUpdate{
		ID:          request.ID,
		Expected:    []departure.Status{departure.StatusPending},
		Status:      departure.StatusMoreInfoNeeded,
		HODComments: &req.HODComments,
	})
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to request more info: %w", err)
	}
	if !applied {
		metrics.ObserveTransition("request_more_info", "conflict")
		return departure.View{}, departure.ErrAlreadyProcessed
	}
	metrics.ObserveTransition("request_more_info", "ok")

	s.appendAudit(ctx, request.ID, actor.ID, audit.ActionRequestedMoreInfo, map[string]any{
		"hod_comments": req.HODComments,
	})
	s.notifyDecision(ctx, request, owner, actor, notification.TypeMoreInfoNeeded,
		"More information needed", req.HODComments)

	return s.reload(ctx, request.ID, owner)
}

// Cancel is the owner's withdrawal of a pending request. It terminates in
// rejected with a synthesized reason; CancelledBySelf keeps the distinction
// recoverable without string matching.
func (s *Service) Cancel(ctx context.Context, actorID, requestID string, req departure.CancelRequestRequest) (departure.View, error) {
	if err := req.Validate(); err != nil {
		return departure.View{}, err
	}

	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	now := s.clock.Now()
	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionCancel, Now: now,
	}); err != nil {
		metrics.ObserveTransition("cancel", "denied")
		return departure.View{}, err
	}

	reason := "Cancelled by faculty: " + req.CancellationReason
	applied, err := s.requests.ApplyStatus(ctx, departure.StatusUpdate{
		ID:              request.ID,
		Expected:        []departure.Status{departure.StatusPending},
		Status:          departure.StatusRejected,
		RejectedAt:      &now,
		RejectionReason: &reason,
		CancelledBySelf: true,
	})
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to cancel request: %w", err)
	}
	if !applied {
		metrics.ObserveTransition("cancel", "conflict")
		return departure.View{}, departure.ErrAlreadyProcessed
	}
	metrics.ObserveTransition("cancel", "ok")

	s.appendAudit(ctx, request.ID, actor.ID, audit.ActionCancelled, map[string]any{
		"cancellation_reason": req.CancellationReason,
	})

	return s.reload(ctx, request.ID, owner)
}

// Edit mutates the mutable fields of the owner's pending request in place.
func (s *Service) Edit(ctx context.Context, actorID, requestID string, req departure.EditRequestRequest) (departure.View, error) {
	if err := req.Validate(); err != nil {
		return departure.View{}, err
	}

	actor, request, owner, err := s.load(ctx, actorID, requestID)
	if err != nil {
		return departure.View{}, err
	}

	if err := authz.Check(authz.Input{
		Actor: actor, Owner: owner, Request: request,
		Action: authz.ActionEdit, Now: s.clock.Now(),
	}); err != nil {
		metrics.ObserveTransition("edit", "denied")
		return departure.View{}, err
	}

	// The write is guarded on the request still being pending; a decision
	// landing after the authz check above loses nothing to this edit.
	update, diff := buildEdit(request, req)
	if err := s.requests.Edit(ctx, update); err != nil {
		if errors.Is(err, departure.ErrAlreadyProcessed) {
			metrics.ObserveTransition("edit", "conflict")
			return departure.View{}, err
		}
		return departure.View{}, fmt.Errorf("failed to edit request: %w", err)
	}
	metrics.ObserveTransition("edit", "ok")

	s.appendAudit(ctx, request.ID, actor.ID, audit.ActionEdited, diff)

	return s.reload(ctx, request.ID, owner)
}

// load fetches actor, request and request owner, rejecting inactive actors.
func (s *Service) load(ctx context.Context, actorID, requestID string) (user.User, departure.Request, user.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return user.User{}, departure.Request{}, user.User{}, fmt.Errorf("failed to load actor: %w", err)
	}
	if !actor.IsActive {
		return user.User{}, departure.Request{}, user.User{}, user.ErrAccountInactive
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return user.User{}, departure.Request{}, user.User{}, err
	}

	owner, err := s.users.GetByID(ctx, request.FacultyID)
	if err != nil {
		return user.User{}, departure.Request{}, user.User{}, fmt.Errorf("failed to load request owner: %w", err)
	}

	return actor, request, owner, nil
}

func (s *Service) reload(ctx context.Context, requestID string, owner user.User) (departure.View, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return departure.View{}, fmt.Errorf("failed to reload request: %w", err)
	}
	request.FacultyName = &owner.Name
	request.FacultyDepartment = &owner.Department
	return request.ToView(), nil
}

// actingCapacity derives the authority a decision is recorded under, once,
// at transition time. authz has already established that a faculty actor
// holds an active grant.
func actingCapacity(actor user.User) departure.ActingCapacity {
	switch actor.Role {
	case user.RoleHOD:
		return departure.CapacityHOD
	case user.RoleDean:
		return departure.CapacityDean
	default:
		return departure.CapacityDelegatedFaculty
	}
}

// qrPayload builds the JSON stored on the request and rendered as the gate QR.
func (s *Service) qrPayload(request departure.Request, owner, approver user.User, capacity departure.ActingCapacity, passNumber string, approvedAt time.Time) (string, error) {
	dateStr, timeStr := request.LeaveWindowDisplay()
	payload := map[string]any{
		"exit_pass_number": passNumber,
		"faculty_id":       owner.ID,
		"faculty_name":     owner.Name,
		"department":       owner.Department,
		"leave_type":       string(request.LeaveType),
		"departure_date":   dateStr,
		"departure_time":   timeStr,
		"approved_by":      approver.Name,
		"approved_by_role": string(capacity),
		"approved_at":      approvedAt.Format(time.RFC3339),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Service) sendApprovalEmail(request departure.Request, owner, approver user.User, passNumber, payload string) {
	png, err := s.qr.EncodePNG(payload)
	if err != nil {
		metrics.ObserveNotificationFailure("email")
		slog.Error("failed to encode exit pass qr", "request_id", request.ID, "error", err)
		return
	}
	dateStr, timeStr := request.LeaveWindowDisplay()
	if err := s.email.SendRequestApproved(owner.Email, owner.Name, passNumber, dateStr, timeStr, approver.Name, png); err != nil {
		metrics.ObserveNotificationFailure("email")
		slog.Error("failed to send approval email", "request_id", request.ID, "error", err)
	}
}

func (s *Service) notifyDecision(ctx context.Context, request departure.Request, owner, actor user.User, typ notification.Type, title, message string) {
	n := &notification.Notification{
		RecipientID: owner.ID,
		SenderID:    &actor.ID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        map[string]any{"request_id": request.ID},
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		metrics.ObserveNotificationFailure("in_app")
		slog.Error("failed to create notification", "request_id", request.ID, "error", err)
	}
}

func (s *Service) appendAudit(ctx context.Context, entityID, actorID, action string, details map[string]any) {
	if err := s.audit.Append(ctx, entityID, actorID, action, details); err != nil {
		metrics.ObserveNotificationFailure("audit")
		slog.Error("failed to append audit event", "action", action, "entity_id", entityID, "error", err)
	}
}

// buildEdit folds the non-nil payload fields into a store update and an
// audit diff of old vs new values.
func buildEdit(current departure.Request, req departure.EditRequestRequest) (departure.Update, map[string]any) {
	update := departure.Update{ID: current.ID}
	diff := map[string]any{}

	if req.LeaveType != nil {
		lt := departure.LeaveType(*req.LeaveType)
		update.LeaveType = &lt
		diff["leave_type"] = map[string]string{"from": string(current.LeaveType), "to": *req.LeaveType}
	}
	if req.DepartureDate != nil {
		date, _ := validator.IsValidDate(*req.DepartureDate)
		update.DepartureDate = &date
		diff["departure_date"] = map[string]string{
			"from": current.DepartureDate.Format("2006-01-02"),
			"to":   *req.DepartureDate,
		}
	}
	if req.DepartureTime != nil {
		update.DepartureTime = req.DepartureTime
		diff["departure_time"] = map[string]any{"from": current.DepartureTime, "to": *req.DepartureTime}
	}
	if req.Reason != nil {
		update.Reason = req.Reason
		diff["reason"] = map[string]string{"from": current.Reason, "to": *req.Reason}
	}
	if req.Destination != nil {
		update.Destination = req.Destination
		diff["destination"] = map[string]string{"from": current.Destination, "to": *req.Destination}
	}
	if req.UrgencyLevel != nil {
		u := departure.Urgency(*req.UrgencyLevel)
		update.Urgency = &u
		diff["urgency_level"] = map[string]string{"from": string(current.Urgency), "to": *req.UrgencyLevel}
	}
	if req.WorkloadCoverage != nil {
		update.WorkloadCoverage = req.WorkloadCoverage
		diff["workload_coverage"] = map[string]any{"from": current.WorkloadCoverage, "to": *req.WorkloadCoverage}
	}
	if req.AttachmentURL != nil {
		update.AttachmentURL = req.AttachmentURL
		diff["attachment_url"] = map[string]any{"from": current.AttachmentURL, "to": *req.AttachmentURL}
	}

	return update, diff
}

func toListResponse(requests []departure.Request, total int64) departure.ListResponse {
	views := make([]departure.View, 0, len(requests))
	for _, r := range requests {
		views = append(views, r.ToView())
	}
	return departure.ListResponse{Requests: views, Total: total}
}
