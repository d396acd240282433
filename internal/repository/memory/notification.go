package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akanaz/exitpass-backend-go/internal/domain/notification"
)

type NotificationRepository struct {
	mu            sync.Mutex
	notifications []*notification.Notification

	// FailCreate makes every Create return an error, for testing that
	// transitions survive in-app notification outages.
	FailCreate bool
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

var _ notification.Repository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate {
		return errors.New("notification store unavailable")
	}
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	stored := *n
	r.notifications = append(r.notifications, &stored)
	return nil
}

func (r *NotificationRepository) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, page, limit int) ([]*notification.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var filtered []*notification.Notification
	for _, n := range r.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		filtered = append(filtered, n)
	}

	total := int64(len(filtered))
	start := (page - 1) * limit
	if start >= len(filtered) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (r *NotificationRepository) UnreadCount(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAsRead(_ context.Context, ids []string, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, n := range r.notifications {
		if n.RecipientID != recipientID || n.IsRead {
			continue
		}
		for _, id := range ids {
			if n.ID == id {
				n.IsRead = true
				n.ReadAt = &now
			}
		}
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}
