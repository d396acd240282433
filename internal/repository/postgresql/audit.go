package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/database"
)

type auditRepositoryImpl struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepositoryImpl{db: db}
}

// Append implements audit.Repository.
func (r *auditRepositoryImpl) Append(ctx context.Context, entityID, actorID, action string, details map[string]any) error {
	q := GetQuerier(ctx, r.db)

	var payload []byte
	if details != nil {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (entity_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := q.Exec(ctx, query, entityID, actorID, action, payload); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// ListByEntity implements audit.Repository.
func (r *auditRepositoryImpl) ListByEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, entity_id, actor_id, action, details, created_at
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var ev audit.Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.EntityID, &ev.ActorID, &ev.Action, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
