// Package memory holds in-memory repository implementations backing the
// service unit tests. Behavior mirrors the postgresql package, including the
// compare-and-swap semantics of status updates.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[string]user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]user.User)}
}

var _ user.Repository = (*UserRepository)(nil)

// Seed inserts a user as-is, keeping the caller's ID. Test setup helper.
func (r *UserRepository) Seed(u user.User) user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = u
	return u
}

func (r *UserRepository) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *UserRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsActive = false
	r.users[id] = u
	return nil
}

func (r *UserRepository) List(_ context.Context, department string, role user.Role) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if department != "" && u.Department != department {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) FindActiveHOD(_ context.Context, department string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == user.RoleHOD && u.Department == department && u.IsActive {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *UserRepository) FindActiveDean(_ context.Context) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == user.RoleDean && u.IsActive {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *UserRepository) SetDelegation(_ context.Context, facultyID string, grant delegation.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[facultyID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Delegation = &grant
	r.users[facultyID] = u
	return nil
}

func (r *UserRepository) ClearDelegation(_ context.Context, facultyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[facultyID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Delegation = nil
	r.users[facultyID] = u
	return nil
}

func (r *UserRepository) ExtendDelegation(_ context.Context, facultyID string, newEnd time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[facultyID]
	if !ok || u.Delegation == nil {
		return user.ErrUserNotFound
	}
	grant := *u.Delegation
	grant.EndDate = newEnd
	u.Delegation = &grant
	r.users[facultyID] = u
	return nil
}

func (r *UserRepository) ListFacultyByDepartment(_ context.Context, department string) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.Role == user.RoleFaculty && u.Department == department {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) ListDelegatedBy(_ context.Context, hodID string) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.Delegation != nil && u.Delegation.GrantedBy == hodID {
			out = append(out, u)
		}
	}
	return out, nil
}
