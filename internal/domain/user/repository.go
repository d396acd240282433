package user

import (
	"context"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
)

// Repository - interface for the users table, delegation columns included.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, department string, role Role) ([]User, error)

	// FindActiveHOD returns the single active HOD of a department, or
	// ErrUserNotFound when the department has none.
	FindActiveHOD(ctx context.Context, department string) (User, error)
	// FindActiveDean returns the single active dean, or ErrUserNotFound.
	FindActiveDean(ctx context.Context) (User, error)

	// Delegation columns live on the faculty row; all three writes are
	// unconditional at this layer, preconditions are the service's job.
	SetDelegation(ctx context.Context, facultyID string, grant delegation.Grant) error
	ClearDelegation(ctx context.Context, facultyID string) error
	ExtendDelegation(ctx context.Context, facultyID string, newEnd time.Time) error
	// ListFacultyByDepartment returns faculty rows of one department.
	ListFacultyByDepartment(ctx context.Context, department string) ([]User, error)
	// ListDelegatedBy returns faculty whose grant record names hodID,
	// including lapsed grants (end date present, window passed).
	ListDelegatedBy(ctx context.Context, hodID string) ([]User, error)
}
