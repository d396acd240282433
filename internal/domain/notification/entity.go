package notification

import "time"

// Type represents the type of notification
type Type string

const (
	TypeRequestSubmitted  Type = "request_submitted"
	TypeRequestApproved   Type = "request_approved"
	TypeRequestRejected   Type = "request_rejected"
	TypeMoreInfoNeeded    Type = "more_info_needed"
	TypeDelegationGranted Type = "delegation_granted"
	TypeDelegationRevoked Type = "delegation_revoked"
)

// Notification is one in-app inbox entry for a user.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	SenderID    *string        `json:"sender_id,omitempty"`
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	IsRead      bool           `json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
