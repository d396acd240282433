package delegation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/repository/memory"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	users   *memory.UserRepository
	audit   *memory.AuditRepository
	clock   *clock.Mock
	service *Service

	hod     user.User
	faculty user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	auditRepo := memory.NewAuditRepository()
	mockClock := clock.NewMock(testNow)

	f := &fixture{
		users:   users,
		audit:   auditRepo,
		clock:   mockClock,
		service: NewService(users, auditRepo, mockClock),
	}
	f.hod = users.Seed(user.User{ID: "hod-1", Name: "Dr. Rao", Email: "rao@uni.edu", Role: user.RoleHOD, Department: "CS", IsActive: true})
	f.faculty = users.Seed(user.User{ID: "fac-1", Name: "A. Verma", Email: "verma@uni.edu", Role: user.RoleFaculty, Department: "CS", IsActive: true})
	return f
}

func grantRequest(facultyID string) delegation.GrantRequest {
	return delegation.GrantRequest{
		FacultyID:   facultyID,
		StartDate:   "2025-03-10",
		EndDate:     "2025-03-20",
		Permissions: []string{"approve_requests", "request_more_info"},
	}
}

func TestGrantStoresWindowAndPermissions(t *testing.T) {
	f := newFixture(t)

	view, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	assert.Equal(t, f.faculty.ID, view.FacultyID)
	assert.True(t, view.Active)
	assert.Equal(t, delegation.StatusActive, view.Status)

	stored, err := f.users.GetByID(context.Background(), f.faculty.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Delegation)
	assert.Equal(t, f.hod.ID, stored.Delegation.GrantedBy)
	assert.True(t, stored.Delegation.Has(delegation.PermissionApproveRequests))
	assert.False(t, stored.Delegation.Has(delegation.PermissionRejectRequests))

	events, err := f.audit.ListByEntity(context.Background(), f.faculty.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionDelegationGranted, events[0].Action)
}

func TestGrantRejectsActiveDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	_, err = f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	assert.ErrorIs(t, err, delegation.ErrAlreadyDelegated)
}

func TestGrantAllowedAfterPreviousGrantLapses(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	// Move past the window; no revoke, no write. The stale record does not
	// block a new grant.
	f.clock.Set(time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC))

	req := grantRequest(f.faculty.ID)
	req.StartDate = "2025-03-21"
	req.EndDate = "2025-03-31"
	view, err := f.service.Grant(context.Background(), f.hod.ID, req)
	require.NoError(t, err)
	assert.True(t, view.Active)
}

func TestGrantValidatesRolesAndDepartment(t *testing.T) {
	f := newFixture(t)
	otherDept := f.users.Seed(user.User{ID: "fac-2", Role: user.RoleFaculty, Department: "EE", IsActive: true})
	otherHOD := f.users.Seed(user.User{ID: "hod-2", Role: user.RoleHOD, Department: "EE", IsActive: true})

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(otherDept.ID))
	assert.ErrorIs(t, err, delegation.ErrDepartmentMismatch)

	_, err = f.service.Grant(context.Background(), f.hod.ID, grantRequest(otherHOD.ID))
	assert.ErrorIs(t, err, delegation.ErrGranteeNotFaculty)

	_, err = f.service.Grant(context.Background(), f.faculty.ID, grantRequest(f.faculty.ID))
	assert.ErrorIs(t, err, delegation.ErrGrantorNotHOD)
}

func TestGrantRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)

	req := grantRequest(f.faculty.ID)
	req.StartDate = "2025-03-20"
	req.EndDate = "2025-03-10"
	_, err := f.service.Grant(context.Background(), f.hod.ID, req)
	assert.ErrorIs(t, err, delegation.ErrInvalidWindow)
}

func TestRevokeByGrantingHOD(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(context.Background(), f.hod.ID, f.faculty.ID))

	stored, err := f.users.GetByID(context.Background(), f.faculty.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Delegation)
}

func TestRevokeRejectsOtherHOD(t *testing.T) {
	f := newFixture(t)
	f.users.Seed(user.User{ID: "hod-2", Role: user.RoleHOD, Department: "EE", IsActive: true})

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	err = f.service.Revoke(context.Background(), "hod-2", f.faculty.ID)
	assert.ErrorIs(t, err, delegation.ErrNotGrantingHOD)
}

func TestExtendPushesEndDateOut(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	view, err := f.service.Extend(context.Background(), f.hod.ID, delegation.ExtendRequest{
		FacultyID:  f.faculty.ID,
		NewEndDate: "2025-03-25",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC), view.EndDate)
}

func TestExtendRejectsEarlierEndDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	_, err = f.service.Extend(context.Background(), f.hod.ID, delegation.ExtendRequest{
		FacultyID:  f.faculty.ID,
		NewEndDate: "2025-03-15",
	})
	assert.ErrorIs(t, err, delegation.ErrEndDateNotLater)
}

func TestExtendLapsedGrantReactivates(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 3, 25, 9, 0, 0, 0, time.UTC))

	view, err := f.service.Extend(context.Background(), f.hod.ID, delegation.ExtendRequest{
		FacultyID:  f.faculty.ID,
		NewEndDate: "2025-03-30",
	})
	require.NoError(t, err)
	assert.True(t, view.Active, "extending past now reactivates the lapsed grant")
}

func TestExtendWithoutGrant(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Extend(context.Background(), f.hod.ID, delegation.ExtendRequest{
		FacultyID:  f.faculty.ID,
		NewEndDate: "2025-03-25",
	})
	assert.ErrorIs(t, err, delegation.ErrNoGrantToExtend)
}

func TestListEligibleFacultyExcludesActiveGrants(t *testing.T) {
	f := newFixture(t)
	other := f.users.Seed(user.User{ID: "fac-2", Name: "B. Iyer", Role: user.RoleFaculty, Department: "CS", IsActive: true})
	f.users.Seed(user.User{ID: "fac-3", Role: user.RoleFaculty, Department: "CS", IsActive: false})

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	eligible, err := f.service.ListEligibleFaculty(context.Background(), f.hod.ID)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, other.ID, eligible[0].FacultyID)
	assert.False(t, eligible[0].PreviouslyDelegated)
}

func TestListEligibleFacultyMarksLapsedGrants(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))

	eligible, err := f.service.ListEligibleFaculty(context.Background(), f.hod.ID)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.True(t, eligible[0].PreviouslyDelegated)
}

func TestListMyDelegationsComputesStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	require.NoError(t, err)

	views, err := f.service.ListMyDelegations(context.Background(), f.hod.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, delegation.StatusActive, views[0].Status)

	f.clock.Set(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
	views, err = f.service.ListMyDelegations(context.Background(), f.hod.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, delegation.StatusExpired, views[0].Status)
	assert.False(t, views[0].Active)
}

func TestAuditFailureDoesNotFailGrant(t *testing.T) {
	f := newFixture(t)
	f.audit.FailAppend = true

	_, err := f.service.Grant(context.Background(), f.hod.ID, grantRequest(f.faculty.ID))
	assert.NoError(t, err)
}
