// Package authz decides whether an actor may perform an action on a
// departure request. The decision is a single pass over an ordered rule
// table; every denial carries a machine-readable reason so the HTTP layer can
// distinguish "not allowed" from "already decided" from "bad input".
package authz

import (
	"fmt"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRequestMoreInfo Action = "request_more_info"
	ActionEdit            Action = "edit"
	ActionCancel          Action = "cancel"
	ActionView            Action = "view"
)

type Reason string

const (
	ReasonSelfApproval      Reason = "SELF_APPROVAL"
	ReasonNotOwner          Reason = "NOT_OWNER"
	ReasonWrongDepartment   Reason = "WRONG_DEPARTMENT"
	ReasonNoDelegation      Reason = "NO_DELEGATION"
	ReasonMissingPermission Reason = "MISSING_PERMISSION"
	ReasonAlreadyProcessed  Reason = "ALREADY_PROCESSED"
	ReasonPeerRoleBlocked   Reason = "PEER_ROLE_BLOCKED"
	ReasonNotHODRequest     Reason = "NOT_HOD_REQUEST"
	ReasonRoleNotPermitted  Reason = "ROLE_NOT_PERMITTED"
)

// Decision is the evaluator's verdict. Reason is empty on allow.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// IsConflict reports whether the denial describes an invalid state for the
// transition rather than missing rights; the HTTP layer maps it to 409.
func (d Decision) IsConflict() bool {
	return !d.Allowed && d.Reason == ReasonAlreadyProcessed
}

// DeniedError surfaces a denial as an error the response layer can unwrap.
type DeniedError struct {
	Action Action
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("action %s denied: %s", e.Action, e.Reason)
}

// Input is everything a rule may look at. Owner is the request owner's
// account; Now feeds the delegation window check.
type Input struct {
	Actor   user.User
	Owner   user.User
	Request departure.Request
	Action  Action
	Now     time.Time
}

func (in Input) isDecision() bool {
	return in.Action == ActionApprove || in.Action == ActionReject || in.Action == ActionRequestMoreInfo
}

func (in Input) isOwner() bool {
	return in.Actor.ID == in.Request.FacultyID
}

// Evaluate walks the rule table in order and returns the first verdict. The
// table ends with an unconditional deny, so every action is decided
// explicitly.
func Evaluate(in Input) Decision {
	for _, r := range ruleTable {
		if !r.applies(in) {
			continue
		}
		if d := r.verdict(in); d != nil {
			return *d
		}
	}
	return deny(ReasonRoleNotPermitted)
}

// Check is Evaluate with the denial folded into an error.
func Check(in Input) error {
	if d := Evaluate(in); !d.Allowed {
		return &DeniedError{Action: in.Action, Reason: d.Reason}
	}
	return nil
}
