package audit

import "context"

// Repository appends and reads the audit trail. Append failures never fail
// the transition that produced them; callers log and continue.
type Repository interface {
	Append(ctx context.Context, entityID, actorID, action string, details map[string]any) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}
