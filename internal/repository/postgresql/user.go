package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.Repository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `
	id, name, email, password_hash, role, department, is_active,
	delegation_granted_by, delegation_start_date, delegation_end_date, delegation_permissions,
	created_at, updated_at
`

// scanUser reads one user row. The delegation columns are nullable as a
// group; a non-null granted_by means a grant record exists (possibly lapsed).
func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var grantedBy *string
	var startDate, endDate *time.Time
	var permissions []string

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Department, &u.IsActive,
		&grantedBy, &startDate, &endDate, &permissions,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}

	if grantedBy != nil && startDate != nil && endDate != nil {
		perms := make([]delegation.Permission, 0, len(permissions))
		for _, p := range permissions {
			perms = append(perms, delegation.Permission(p))
		}
		u.Delegation = &delegation.Grant{
			GrantedBy:   *grantedBy,
			StartDate:   *startDate,
			EndDate:     *endDate,
			Permissions: perms,
		}
	}

	return u, nil
}

// Create implements user.Repository.
func (r *userRepositoryImpl) Create(ctx context.Context, u user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (name, email, password_hash, role, department, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Department, u.IsActive,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

// GetByID implements user.Repository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail implements user.Repository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// Deactivate implements user.Repository.
func (r *userRepositoryImpl) Deactivate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// List implements user.Repository.
func (r *userRepositoryImpl) List(ctx context.Context, department string, role user.Role) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []interface{}{}
	if department != "" {
		args = append(args, department)
		query += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if role != "" {
		args = append(args, role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// FindActiveHOD implements user.Repository.
func (r *userRepositoryImpl) FindActiveHOD(ctx context.Context, department string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'hod' AND department = $1 AND is_active = TRUE`

	u, err := scanUser(q.QueryRow(ctx, query, department))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to find active hod: %w", err)
	}
	return u, nil
}

// FindActiveDean implements user.Repository.
func (r *userRepositoryImpl) FindActiveDean(ctx context.Context) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'dean' AND is_active = TRUE`

	u, err := scanUser(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to find active dean: %w", err)
	}
	return u, nil
}

// SetDelegation implements user.Repository.
func (r *userRepositoryImpl) SetDelegation(ctx context.Context, facultyID string, grant delegation.Grant) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET delegation_granted_by = $1,
			delegation_start_date = $2,
			delegation_end_date = $3,
			delegation_permissions = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	perms := make([]string, 0, len(grant.Permissions))
	for _, p := range grant.Permissions {
		perms = append(perms, string(p))
	}

	tag, err := q.Exec(ctx, query, grant.GrantedBy, grant.StartDate, grant.EndDate, perms, facultyID)
	if err != nil {
		return fmt.Errorf("failed to set delegation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ClearDelegation implements user.Repository.
func (r *userRepositoryImpl) ClearDelegation(ctx context.Context, facultyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET delegation_granted_by = NULL,
			delegation_start_date = NULL,
			delegation_end_date = NULL,
			delegation_permissions = NULL,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, facultyID)
	if err != nil {
		return fmt.Errorf("failed to clear delegation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ExtendDelegation implements user.Repository.
func (r *userRepositoryImpl) ExtendDelegation(ctx context.Context, facultyID string, newEnd time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET delegation_end_date = $1, updated_at = NOW()
		WHERE id = $2 AND delegation_granted_by IS NOT NULL
	`

	tag, err := q.Exec(ctx, query, newEnd, facultyID)
	if err != nil {
		return fmt.Errorf("failed to extend delegation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ListFacultyByDepartment implements user.Repository.
func (r *userRepositoryImpl) ListFacultyByDepartment(ctx context.Context, department string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'faculty' AND department = $1 ORDER BY name`

	rows, err := q.Query(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("failed to list department faculty: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListDelegatedBy implements user.Repository.
func (r *userRepositoryImpl) ListDelegatedBy(ctx context.Context, hodID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE delegation_granted_by = $1 ORDER BY delegation_end_date DESC`

	rows, err := q.Query(ctx, query, hodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegated faculty: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]user.User, error) {
	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
