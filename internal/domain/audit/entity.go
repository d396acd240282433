package audit

import "time"

// Action names mirror the workflow transitions and delegation lifecycle.
const (
	ActionRequestSubmitted  = "request_submitted"
	ActionApproved          = "approved"
	ActionRejected          = "rejected"
	ActionRequestedMoreInfo = "requested_more_info"
	ActionCancelled         = "cancelled"
	ActionEdited            = "edited"

	ActionDelegationGranted  = "delegation_granted"
	ActionDelegationRevoked  = "delegation_revoked"
	ActionDelegationExtended = "delegation_extended"

	ActionAccountCreated     = "account_created"
	ActionAccountDeactivated = "account_deactivated"
)

// Event is one append-only audit trail entry. EntityID is the departure
// request or faculty account the action touched.
type Event struct {
	ID        string
	EntityID  string
	ActorID   string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}
