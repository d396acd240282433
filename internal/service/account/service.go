// Package account implements authentication and admin account management.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/jwt"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/metrics"
)

type Service struct {
	users user.Repository
	audit audit.Repository
	jwt   jwt.Service
	clock clock.Clock
}

func NewService(users user.Repository, auditRepo audit.Repository, jwtService jwt.Service, clk clock.Clock) *Service {
	return &Service{users: users, audit: auditRepo, jwt: jwtService, clock: clk}
}

var _ user.Service = (*Service)(nil)

func (s *Service) Login(ctx context.Context, req user.LoginRequest) (user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return user.LoginResponse{}, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Same error as a wrong password; do not leak which emails exist.
			return user.LoginResponse{}, user.ErrInvalidCredentials
		}
		return user.LoginResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return user.LoginResponse{}, user.ErrInvalidCredentials
	}
	if !u.IsActive {
		return user.LoginResponse{}, user.ErrAccountInactive
	}

	token, _, err := s.jwt.GenerateAccessToken(u)
	if err != nil {
		return user.LoginResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return user.LoginResponse{
		AccessToken: token,
		User:        u.ToView(s.clock.Now()),
	}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (user.View, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.View{}, err
	}
	if !u.IsActive {
		return user.View{}, user.ErrAccountInactive
	}
	return u.ToView(s.clock.Now()), nil
}

// CreateAccount provisions a user. A department holds at most one active HOD
// and the institution at most one active dean; both are checked here before
// the insert.
func (s *Service) CreateAccount(ctx context.Context, adminID string, req user.CreateAccountRequest) (user.View, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return user.View{}, err
	}
	if err := req.Validate(); err != nil {
		return user.View{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return user.View{}, user.ErrEmailExists
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return user.View{}, fmt.Errorf("failed to check email: %w", err)
	}

	role := user.Role(req.Role)
	switch role {
	case user.RoleHOD:
		if _, err := s.users.FindActiveHOD(ctx, req.Department); err == nil {
			return user.View{}, user.ErrActiveHODExists
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return user.View{}, fmt.Errorf("failed to check department hod: %w", err)
		}
	case user.RoleDean:
		if _, err := s.users.FindActiveDean(ctx); err == nil {
			return user.View{}, user.ErrActiveDeanExists
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return user.View{}, fmt.Errorf("failed to check dean: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.View{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.users.Create(ctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   req.Department,
		IsActive:     true,
	})
	if err != nil {
		return user.View{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.appendAudit(ctx, created.ID, adminID, audit.ActionAccountCreated, map[string]any{
		"role":       req.Role,
		"department": req.Department,
	})

	return created.ToView(s.clock.Now()), nil
}

// DeactivateAccount disables login and all workflow participation. Requests
// the user already submitted or decided are untouched.
func (s *Service) DeactivateAccount(ctx context.Context, adminID, userID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	s.appendAudit(ctx, userID, adminID, audit.ActionAccountDeactivated, nil)
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, adminID, department string, role user.Role) ([]user.View, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if role != "" && !user.IsValidRole(role) {
		return nil, user.ErrInvalidRole
	}

	users, err := s.users.List(ctx, department, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	now := s.clock.Now()
	views := make([]user.View, 0, len(users))
	for _, u := range users {
		views = append(views, u.ToView(now))
	}
	return views, nil
}

func (s *Service) requireAdmin(ctx context.Context, adminID string) error {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to load admin: %w", err)
	}
	if !admin.IsActive {
		return user.ErrAccountInactive
	}
	if !admin.IsAdmin() {
		return user.ErrAdminAccessRequired
	}
	return nil
}

func (s *Service) appendAudit(ctx context.Context, entityID, actorID, action string, details map[string]any) {
	if err := s.audit.Append(ctx, entityID, actorID, action, details); err != nil {
		metrics.ObserveNotificationFailure("audit")
		slog.Error("failed to append audit event", "action", action, "entity_id", entityID, "error", err)
	}
}
