// Package delegation implements the delegation engine: time-bounded grants
// of HOD approval authority to faculty members. Grant activity is derived
// from the clock on every check (lazy expiry); nothing here caches or
// persists an "active" flag.
package delegation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/metrics"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

type Service struct {
	users user.Repository
	audit audit.Repository
	clock clock.Clock
}

func NewService(users user.Repository, auditRepo audit.Repository, clk clock.Clock) *Service {
	return &Service{users: users, audit: auditRepo, clock: clk}
}

var _ delegation.Service = (*Service)(nil)

func (s *Service) Grant(ctx context.Context, hodID string, req delegation.GrantRequest) (delegation.GrantView, error) {
	hod, err := s.users.GetByID(ctx, hodID)
	if err != nil {
		return delegation.GrantView{}, fmt.Errorf("failed to load grantor: %w", err)
	}
	faculty, err := s.users.GetByID(ctx, req.FacultyID)
	if err != nil {
		return delegation.GrantView{}, fmt.Errorf("failed to load grantee: %w", err)
	}

	if !hod.IsHOD() {
		return delegation.GrantView{}, delegation.ErrGrantorNotHOD
	}
	if faculty.Role != user.RoleFaculty {
		return delegation.GrantView{}, delegation.ErrGranteeNotFaculty
	}
	if faculty.Department != hod.Department {
		return delegation.GrantView{}, delegation.ErrDepartmentMismatch
	}

	start, end := req.Window()
	if !end.After(start) {
		return delegation.GrantView{}, delegation.ErrInvalidWindow
	}
	perms := req.PermissionSet()
	if len(perms) == 0 {
		return delegation.GrantView{}, delegation.ErrNoPermissions
	}
	for _, p := range perms {
		if !delegation.IsValidPermission(p) {
			return delegation.GrantView{}, delegation.ErrUnknownPermission
		}
	}

	// A lapsed grant does not block a new one; only a currently-active one does.
	now := s.clock.Now()
	if faculty.HasActiveDelegation(now) {
		metrics.ObserveDelegationOp("grant", "conflict")
		return delegation.GrantView{}, delegation.ErrAlreadyDelegated
	}

	grant := delegation.Grant{
		GrantedBy:   hod.ID,
		StartDate:   start,
		EndDate:     end,
		Permissions: perms,
	}
	if err := s.users.SetDelegation(ctx, faculty.ID, grant); err != nil {
		return delegation.GrantView{}, fmt.Errorf("failed to store delegation: %w", err)
	}
	metrics.ObserveDelegationOp("grant", "ok")

	s.appendAudit(ctx, faculty.ID, hod.ID, audit.ActionDelegationGranted, map[string]any{
		"start_date":  start.Format(time.RFC3339),
		"end_date":    end.Format(time.RFC3339),
		"permissions": req.Permissions,
	})

	return s.grantView(faculty, grant, now), nil
}

func (s *Service) Revoke(ctx context.Context, hodID, facultyID string) error {
	faculty, err := s.users.GetByID(ctx, facultyID)
	if err != nil {
		return fmt.Errorf("failed to load grantee: %w", err)
	}

	// Only the granting HOD may revoke; this holds even for lapsed grants,
	// where revoking just clears the stale record.
	if faculty.Delegation == nil || faculty.Delegation.GrantedBy != hodID {
		return delegation.ErrNotGrantingHOD
	}

	if err := s.users.ClearDelegation(ctx, facultyID); err != nil {
		return fmt.Errorf("failed to clear delegation: %w", err)
	}
	metrics.ObserveDelegationOp("revoke", "ok")

	s.appendAudit(ctx, facultyID, hodID, audit.ActionDelegationRevoked, nil)
	return nil
}

func (s *Service) Extend(ctx context.Context, hodID string, req delegation.ExtendRequest) (delegation.GrantView, error) {
	faculty, err := s.users.GetByID(ctx, req.FacultyID)
	if err != nil {
		return delegation.GrantView{}, fmt.Errorf("failed to load grantee: %w", err)
	}

	// A grant record must exist; a lapsed one may still be extended, which
	// re-activates it if the new end date is in the future.
	if faculty.Delegation == nil {
		return delegation.GrantView{}, delegation.ErrNoGrantToExtend
	}
	if faculty.Delegation.GrantedBy != hodID {
		return delegation.GrantView{}, delegation.ErrNotGrantingHOD
	}

	end, ok := validator.ParseInstant(req.NewEndDate)
	if !ok || !end.After(faculty.Delegation.EndDate) {
		return delegation.GrantView{}, delegation.ErrEndDateNotLater
	}

	if err := s.users.ExtendDelegation(ctx, faculty.ID, end); err != nil {
		return delegation.GrantView{}, fmt.Errorf("failed to extend delegation: %w", err)
	}
	metrics.ObserveDelegationOp("extend", "ok")

	s.appendAudit(ctx, faculty.ID, hodID, audit.ActionDelegationExtended, map[string]any{
		"previous_end_date": faculty.Delegation.EndDate.Format(time.RFC3339),
		"new_end_date":      end.Format(time.RFC3339),
	})

	grant := *faculty.Delegation
	grant.EndDate = end
	return s.grantView(faculty, grant, s.clock.Now()), nil
}

func (s *Service) ListEligibleFaculty(ctx context.Context, hodID string) ([]delegation.EligibleFaculty, error) {
	hod, err := s.users.GetByID(ctx, hodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hod: %w", err)
	}
	if !hod.IsHOD() {
		return nil, delegation.ErrGrantorNotHOD
	}

	members, err := s.users.ListFacultyByDepartment(ctx, hod.Department)
	if err != nil {
		return nil, fmt.Errorf("failed to list department faculty: %w", err)
	}

	now := s.clock.Now()
	var eligible []delegation.EligibleFaculty
	for _, f := range members {
		if !f.IsActive || f.HasActiveDelegation(now) {
			continue
		}
		eligible = append(eligible, delegation.EligibleFaculty{
			FacultyID:           f.ID,
			FacultyName:         f.Name,
			Email:               f.Email,
			PreviouslyDelegated: f.Delegation != nil,
		})
	}
	return eligible, nil
}

func (s *Service) ListMyDelegations(ctx context.Context, hodID string) ([]delegation.GrantView, error) {
	hod, err := s.users.GetByID(ctx, hodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hod: %w", err)
	}
	if !hod.IsHOD() {
		return nil, delegation.ErrGrantorNotHOD
	}

	delegated, err := s.users.ListDelegatedBy(ctx, hodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}

	now := s.clock.Now()
	views := make([]delegation.GrantView, 0, len(delegated))
	for _, f := range delegated {
		if f.Delegation == nil {
			continue
		}
		views = append(views, s.grantView(f, *f.Delegation, now))
	}
	return views, nil
}

func (s *Service) grantView(faculty user.User, grant delegation.Grant, now time.Time) delegation.GrantView {
	return delegation.GrantView{
		FacultyID:   faculty.ID,
		FacultyName: faculty.Name,
		Email:       faculty.Email,
		Department:  faculty.Department,
		StartDate:   grant.StartDate,
		EndDate:     grant.EndDate,
		Permissions: grant.Permissions,
		Active:      grant.ActiveAt(now),
		Status:      grant.StatusAt(now),
	}
}

// appendAudit records the event; failures are logged, never escalated.
func (s *Service) appendAudit(ctx context.Context, entityID, actorID, action string, details map[string]any) {
	if err := s.audit.Append(ctx, entityID, actorID, action, details); err != nil {
		metrics.ObserveNotificationFailure("audit")
		slog.Error("failed to append audit event", "action", action, "entity_id", entityID, "error", err)
	}
}
