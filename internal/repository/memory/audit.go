package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
)

type AuditRepository struct {
	mu     sync.Mutex
	events []audit.Event

	// FailAppend makes every Append return an error, for testing that
	// transitions survive audit trail outages.
	FailAppend bool
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ audit.Repository = (*AuditRepository)(nil)

func (r *AuditRepository) Append(_ context.Context, entityID, actorID, action string, details map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAppend {
		return errors.New("audit store unavailable")
	}
	r.events = append(r.events, audit.Event{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (r *AuditRepository) ListByEntity(_ context.Context, entityID string) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Event
	for _, ev := range r.events {
		if ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}
