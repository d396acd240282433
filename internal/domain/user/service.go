package user

import "context"

// Service is the account management and authentication boundary. Account
// mutation is admin-only; the adminID parameter is the acting user resolved
// from the access token.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Me(ctx context.Context, userID string) (View, error)

	CreateAccount(ctx context.Context, adminID string, req CreateAccountRequest) (View, error)
	DeactivateAccount(ctx context.Context, adminID, userID string) error
	ListAccounts(ctx context.Context, adminID, department string, role Role) ([]View, error)
}
