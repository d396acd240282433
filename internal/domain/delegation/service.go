package delegation

import "context"

// Service manages the single current delegation grant on a faculty account.
type Service interface {
	Grant(ctx context.Context, hodID string, req GrantRequest) (GrantView, error)
	Revoke(ctx context.Context, hodID, facultyID string) error
	Extend(ctx context.Context, hodID string, req ExtendRequest) (GrantView, error)
	ListEligibleFaculty(ctx context.Context, hodID string) ([]EligibleFaculty, error)
	ListMyDelegations(ctx context.Context, hodID string) ([]GrantView, error)
}
