package authz

import (
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

// rule is one ordered entry of the table: applies gates the rule, verdict
// returns nil to pass evaluation on to the next rule.
type rule struct {
	name    string
	applies func(Input) bool
	verdict func(Input) *Decision
}

func decided(d Decision) *Decision { return &d }

// actionPermission maps a decision action to the delegation permission a
// delegated faculty member must hold for it.
var actionPermission = map[Action]delegation.Permission{
	ActionApprove:         delegation.PermissionApproveRequests,
	ActionReject:          delegation.PermissionRejectRequests,
	ActionRequestMoreInfo: delegation.PermissionRequestMoreInfo,
}

// ruleTable is evaluated top to bottom; order is load-bearing. The ownership
// ban precedes everything, the status gates precede the role rules so a
// decided request reports ALREADY_PROCESSED rather than a rights problem.
var ruleTable = []rule{
	{
		name:    "self-approval ban",
		applies: func(in Input) bool { return in.isDecision() },
		verdict: func(in Input) *Decision {
			if in.isOwner() {
				return decided(deny(ReasonSelfApproval))
			}
			return nil
		},
	},
	{
		name:    "edit/cancel owner only",
		applies: func(in Input) bool { return in.Action == ActionEdit || in.Action == ActionCancel },
		verdict: func(in Input) *Decision {
			if !in.isOwner() {
				return decided(deny(ReasonNotOwner))
			}
			if in.Request.Status != departure.StatusPending {
				return decided(deny(ReasonAlreadyProcessed))
			}
			return decided(allow)
		},
	},
	{
		name:    "view",
		applies: func(in Input) bool { return in.Action == ActionView },
		verdict: func(in Input) *Decision {
			switch {
			case in.isOwner():
				return decided(allow)
			case in.Actor.IsAdmin():
				return decided(allow)
			case in.Actor.IsHOD() && in.Actor.Department == in.Owner.Department:
				return decided(allow)
			case in.Actor.IsDean() && in.Owner.IsHOD():
				return decided(allow)
			case in.Actor.HasActiveDelegation(in.Now) && in.Actor.Department == in.Owner.Department:
				return decided(allow)
			}
			return decided(deny(ReasonNotOwner))
		},
	},
	{
		name:    "approve/reject status gate",
		applies: func(in Input) bool { return in.Action == ActionApprove || in.Action == ActionReject },
		verdict: func(in Input) *Decision {
			if in.Request.Status != departure.StatusPending && in.Request.Status != departure.StatusMoreInfoNeeded {
				return decided(deny(ReasonAlreadyProcessed))
			}
			return nil
		},
	},
	{
		name:    "request-more-info status gate",
		applies: func(in Input) bool { return in.Action == ActionRequestMoreInfo },
		verdict: func(in Input) *Decision {
			if in.Request.Status != departure.StatusPending {
				return decided(deny(ReasonAlreadyProcessed))
			}
			return nil
		},
	},
	{
		name:    "hod decides own department, not peers",
		applies: func(in Input) bool { return in.isDecision() && in.Actor.IsHOD() },
		verdict: func(in Input) *Decision {
			if in.Actor.Department != in.Owner.Department {
				return decided(deny(ReasonWrongDepartment))
			}
			if in.Owner.IsHOD() {
				return decided(deny(ReasonPeerRoleBlocked))
			}
			return decided(allow)
		},
	},
	{
		name:    "dean decides hod requests only",
		applies: func(in Input) bool { return in.isDecision() && in.Actor.IsDean() },
		verdict: func(in Input) *Decision {
			if !in.Owner.IsHOD() {
				return decided(deny(ReasonNotHODRequest))
			}
			return decided(allow)
		},
	},
	{
		name:    "delegated faculty decides with granted permission",
		applies: func(in Input) bool { return in.isDecision() && in.Actor.Role == user.RoleFaculty },
		verdict: func(in Input) *Decision {
			if !in.Actor.HasActiveDelegation(in.Now) {
				return decided(deny(ReasonNoDelegation))
			}
			if !in.Actor.Delegation.Has(actionPermission[in.Action]) {
				return decided(deny(ReasonMissingPermission))
			}
			if in.Actor.Department != in.Owner.Department {
				return decided(deny(ReasonWrongDepartment))
			}
			return decided(allow)
		},
	},
}
