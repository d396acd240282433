package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func facultyUser(id, department string) user.User {
	return user.User{ID: id, Role: user.RoleFaculty, Department: department, IsActive: true}
}

func hodUser(id, department string) user.User {
	return user.User{ID: id, Role: user.RoleHOD, Department: department, IsActive: true}
}

func deanUser(id string) user.User {
	return user.User{ID: id, Role: user.RoleDean, IsActive: true}
}

func delegatedFaculty(id, department, grantedBy string, perms ...delegation.Permission) user.User {
	u := facultyUser(id, department)
	u.Delegation = &delegation.Grant{
		GrantedBy:   grantedBy,
		StartDate:   testNow.Add(-24 * time.Hour),
		EndDate:     testNow.Add(24 * time.Hour),
		Permissions: perms,
	}
	return u
}

func pendingRequest(ownerID string) departure.Request {
	return departure.Request{ID: "req-1", FacultyID: ownerID, Status: departure.StatusPending}
}

func evaluate(actor, owner user.User, req departure.Request, action Action) Decision {
	return Evaluate(Input{Actor: actor, Owner: owner, Request: req, Action: action, Now: testNow})
}

func TestHODApprovesOwnDepartmentRequest(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	owner := facultyUser("fac-1", "CS")

	d := evaluate(hod, owner, pendingRequest(owner.ID), ActionApprove)
	assert.True(t, d.Allowed)
}

func TestHODCannotDecideOtherDepartment(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	owner := facultyUser("fac-1", "EE")

	d := evaluate(hod, owner, pendingRequest(owner.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonWrongDepartment, d.Reason)
}

func TestHODCannotDecidePeerHODRequest(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	peer := hodUser("hod-2", "CS")

	d := evaluate(hod, peer, pendingRequest(peer.ID), ActionReject)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonPeerRoleBlocked, d.Reason)
}

func TestSelfApprovalDeniedRegardlessOfRole(t *testing.T) {
	for _, actor := range []user.User{
		hodUser("actor-1", "CS"),
		deanUser("actor-1"),
		delegatedFaculty("actor-1", "CS", "hod-1", delegation.PermissionApproveRequests),
	} {
		d := evaluate(actor, actor, pendingRequest(actor.ID), ActionApprove)
		require.False(t, d.Allowed, "role %s", actor.Role)
		assert.Equal(t, ReasonSelfApproval, d.Reason)
	}
}

func TestDeanDecidesHODRequestsOnly(t *testing.T) {
	dean := deanUser("dean-1")
	hod := hodUser("hod-1", "CS")
	faculty := facultyUser("fac-1", "CS")

	d := evaluate(dean, hod, pendingRequest(hod.ID), ActionApprove)
	assert.True(t, d.Allowed)

	d = evaluate(dean, faculty, pendingRequest(faculty.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonNotHODRequest, d.Reason)
}

func TestDelegatedFacultyDecidesWithGrantedPermission(t *testing.T) {
	actor := delegatedFaculty("fac-2", "CS", "hod-1", delegation.PermissionApproveRequests)
	owner := facultyUser("fac-1", "CS")

	d := evaluate(actor, owner, pendingRequest(owner.ID), ActionApprove)
	assert.True(t, d.Allowed)

	// reject_requests was not granted
	d = evaluate(actor, owner, pendingRequest(owner.ID), ActionReject)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonMissingPermission, d.Reason)
}

func TestFacultyWithoutDelegationCannotDecide(t *testing.T) {
	actor := facultyUser("fac-2", "CS")
	owner := facultyUser("fac-1", "CS")

	d := evaluate(actor, owner, pendingRequest(owner.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonNoDelegation, d.Reason)
}

func TestExpiredDelegationDeniesWithoutAnyWrite(t *testing.T) {
	actor := delegatedFaculty("fac-2", "CS", "hod-1", delegation.PermissionApproveRequests)
	actor.Delegation.EndDate = testNow.Add(-time.Hour)
	owner := facultyUser("fac-1", "CS")

	d := evaluate(actor, owner, pendingRequest(owner.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonNoDelegation, d.Reason)
}

func TestDelegatedFacultyWrongDepartment(t *testing.T) {
	actor := delegatedFaculty("fac-2", "CS", "hod-1", delegation.PermissionApproveRequests)
	owner := facultyUser("fac-1", "EE")

	d := evaluate(actor, owner, pendingRequest(owner.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonWrongDepartment, d.Reason)
}

func TestDecidedRequestReportsAlreadyProcessed(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	owner := facultyUser("fac-1", "CS")

	req := pendingRequest(owner.ID)
	req.Status = departure.StatusApproved

	d := evaluate(hod, owner, req, ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonAlreadyProcessed, d.Reason)
	assert.True(t, d.IsConflict())
}

func TestApproveAllowedFromMoreInfoNeeded(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	owner := facultyUser("fac-1", "CS")

	req := pendingRequest(owner.ID)
	req.Status = departure.StatusMoreInfoNeeded

	assert.True(t, evaluate(hod, owner, req, ActionApprove).Allowed)
	assert.True(t, evaluate(hod, owner, req, ActionReject).Allowed)

	// more-info is only reachable from pending
	d := evaluate(hod, owner, req, ActionRequestMoreInfo)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonAlreadyProcessed, d.Reason)
}

func TestEditAndCancelAreOwnerOnlyAndPendingOnly(t *testing.T) {
	owner := facultyUser("fac-1", "CS")
	stranger := facultyUser("fac-2", "CS")
	req := pendingRequest(owner.ID)

	assert.True(t, evaluate(owner, owner, req, ActionEdit).Allowed)
	assert.True(t, evaluate(owner, owner, req, ActionCancel).Allowed)

	d := evaluate(stranger, owner, req, ActionEdit)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonNotOwner, d.Reason)

	req.Status = departure.StatusMoreInfoNeeded
	d = evaluate(owner, owner, req, ActionCancel)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonAlreadyProcessed, d.Reason)
}

func TestViewAccess(t *testing.T) {
	owner := facultyUser("fac-1", "CS")
	req := pendingRequest(owner.ID)

	assert.True(t, evaluate(owner, owner, req, ActionView).Allowed)
	assert.True(t, evaluate(user.User{ID: "adm-1", Role: user.RoleAdmin, IsActive: true}, owner, req, ActionView).Allowed)
	assert.True(t, evaluate(hodUser("hod-1", "CS"), owner, req, ActionView).Allowed)
	assert.True(t, evaluate(delegatedFaculty("fac-2", "CS", "hod-1", delegation.PermissionApproveRequests), owner, req, ActionView).Allowed)

	d := evaluate(hodUser("hod-2", "EE"), owner, req, ActionView)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonNotOwner, d.Reason)

	// dean sees hod-owned requests, not faculty-owned ones
	d = evaluate(deanUser("dean-1"), owner, req, ActionView)
	assert.False(t, d.Allowed)

	hodOwner := hodUser("hod-1", "CS")
	assert.True(t, evaluate(deanUser("dean-1"), hodOwner, pendingRequest(hodOwner.ID), ActionView).Allowed)
}

func TestDefaultDeny(t *testing.T) {
	admin := user.User{ID: "adm-1", Role: user.RoleAdmin, IsActive: true}
	owner := facultyUser("fac-1", "CS")

	d := evaluate(admin, owner, pendingRequest(owner.ID), ActionApprove)
	require.False(t, d.Allowed)
	assert.Equal(t, ReasonRoleNotPermitted, d.Reason)
}

func TestCheckWrapsDenialAsError(t *testing.T) {
	hod := hodUser("hod-1", "CS")
	owner := facultyUser("fac-1", "EE")

	err := Check(Input{Actor: hod, Owner: owner, Request: pendingRequest(owner.ID), Action: ActionApprove, Now: testNow})
	require.Error(t, err)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ReasonWrongDepartment, denied.Reason)

	require.NoError(t, Check(Input{Actor: hod, Owner: facultyUser("fac-2", "CS"), Request: pendingRequest("fac-2"), Action: ActionApprove, Now: testNow}))
}
