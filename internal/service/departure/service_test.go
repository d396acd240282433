package departure

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akanaz/exitpass-backend-go/internal/domain/audit"
	"github.com/akanaz/exitpass-backend-go/internal/domain/authz"
	"github.com/akanaz/exitpass-backend-go/internal/domain/delegation"
	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/exitpass"
	"github.com/akanaz/exitpass-backend-go/internal/repository/memory"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// fakeSender records outgoing mail; Fail makes every send error.
type fakeSender struct {
	submitted, approved, rejected int
	Fail                          bool
}

func (s *fakeSender) SendRequestSubmitted(_, _, _, _ string) error {
	s.submitted++
	if s.Fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (s *fakeSender) SendRequestApproved(_, _, _, _, _, _ string, _ []byte) error {
	s.approved++
	if s.Fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (s *fakeSender) SendRequestRejected(_, _, _, _ string) error {
	s.rejected++
	if s.Fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type fakeEncoder struct{ Fail bool }

func (e fakeEncoder) EncodePNG(string) ([]byte, error) {
	if e.Fail {
		return nil, errors.New("encode failed")
	}
	return []byte("png"), nil
}

type fixture struct {
	users         *memory.UserRepository
	requests      *memory.DepartureRequestRepository
	audit         *memory.AuditRepository
	notifications *memory.NotificationRepository
	email         *fakeSender
	clock         *clock.Mock
	service       *Service

	faculty user.User
	hod     user.User
	dean    user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	requests := memory.NewDepartureRequestRepository(users)
	auditRepo := memory.NewAuditRepository()
	notifications := memory.NewNotificationRepository()
	sender := &fakeSender{}
	mockClock := clock.NewMock(testNow)

	f := &fixture{
		users:         users,
		requests:      requests,
		audit:         auditRepo,
		notifications: notifications,
		email:         sender,
		clock:         mockClock,
		service: NewService(
			users, requests, auditRepo, notifications,
			sender, fakeEncoder{}, exitpass.NewGenerator(mockClock.Now), mockClock,
		),
	}
	f.faculty = users.Seed(user.User{ID: "fac-1", Name: "A. Verma", Email: "verma@uni.edu", Role: user.RoleFaculty, Department: "CS", IsActive: true})
	f.hod = users.Seed(user.User{ID: "hod-1", Name: "Dr. Rao", Email: "rao@uni.edu", Role: user.RoleHOD, Department: "CS", IsActive: true})
	f.dean = users.Seed(user.User{ID: "dean-1", Name: "Dean Gupta", Email: "dean@uni.edu", Role: user.RoleDean, IsActive: true})
	return f
}

func (f *fixture) submit(t *testing.T, facultyID string) departure.View {
	t.Helper()
	tm := "14:30"
	view, err := f.service.Create(context.Background(), departure.CreateRequestRequest{
		FacultyID:     facultyID,
		LeaveType:     "partial",
		DepartureDate: "2025-03-12",
		DepartureTime: &tm,
		Reason:        "Medical appointment",
		Destination:   "City hospital",
		UrgencyLevel:  "high",
	})
	require.NoError(t, err)
	return view
}

func TestCreateSubmitsPendingRequest(t *testing.T) {
	f := newFixture(t)

	view := f.submit(t, f.faculty.ID)
	assert.Equal(t, departure.StatusPending, view.Status)
	assert.Equal(t, "2025-03-12", view.DepartureDate)
	assert.Nil(t, view.ExitPassNumber)
	assert.Equal(t, 1, f.email.submitted)

	events, err := f.audit.ListByEntity(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRequestSubmitted, events[0].Action)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), departure.CreateRequestRequest{
		FacultyID:     f.faculty.ID,
		LeaveType:     "partial", // missing departure_time
		DepartureDate: "2025-03-12",
		Reason:        "x",
		Destination:   "y",
		UrgencyLevel:  "high",
	})
	require.Error(t, err)
}

var passPattern = regexp.MustCompile(`^EP-[0-9A-HJKMNP-TV-Z]{26}-[0-9a-f]{4}$`)

func TestApproveIssuesExitPass(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
	require.NoError(t, err)

	assert.Equal(t, departure.StatusApproved, view.Status)
	require.NotNil(t, view.ApprovedBy)
	assert.Equal(t, f.hod.ID, *view.ApprovedBy)
	require.NotNil(t, view.ApprovedByRole)
	assert.Equal(t, departure.CapacityHOD, *view.ApprovedByRole)
	require.NotNil(t, view.ApprovedAt)
	assert.Equal(t, testNow, view.ApprovedAt.UTC())

	require.NotNil(t, view.ExitPassNumber)
	assert.Regexp(t, passPattern, *view.ExitPassNumber)

	require.NotNil(t, view.QRCode)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(*view.QRCode), &payload))
	assert.Equal(t, *view.ExitPassNumber, payload["exit_pass_number"])
	assert.Equal(t, f.faculty.Name, payload["faculty_name"])
	assert.Equal(t, "hod", payload["approved_by_role"])
	assert.Equal(t, "14:30", payload["departure_time"])

	assert.Equal(t, 1, f.email.approved)
}

func TestApproveByDelegatedFacultyRecordsCapacity(t *testing.T) {
	f := newFixture(t)
	delegate := f.users.Seed(user.User{
		ID: "fac-2", Name: "B. Iyer", Email: "iyer@uni.edu",
		Role: user.RoleFaculty, Department: "CS", IsActive: true,
		Delegation: &delegation.Grant{
			GrantedBy:   f.hod.ID,
			StartDate:   testNow.Add(-time.Hour),
			EndDate:     testNow.Add(24 * time.Hour),
			Permissions: []delegation.Permission{delegation.PermissionApproveRequests},
		},
	})
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.Approve(context.Background(), delegate.ID, req.ID)
	require.NoError(t, err)
	require.NotNil(t, view.ApprovedByRole)
	assert.Equal(t, departure.CapacityDelegatedFaculty, *view.ApprovedByRole)
}

func TestDeanApprovesHODRequest(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.hod.ID)

	view, err := f.service.Approve(context.Background(), f.dean.ID, req.ID)
	require.NoError(t, err)
	require.NotNil(t, view.ApprovedByRole)
	assert.Equal(t, departure.CapacityDean, *view.ApprovedByRole)
}

func TestApproveDeniedForWrongDepartment(t *testing.T) {
	f := newFixture(t)
	otherHOD := f.users.Seed(user.User{ID: "hod-2", Role: user.RoleHOD, Department: "EE", IsActive: true})
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Approve(context.Background(), otherHOD.ID, req.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonWrongDepartment, denied.Reason)
}

func TestSecondDecisionConflicts(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), f.hod.ID, req.ID, departure.RejectRequestRequest{RejectionReason: "too late"})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonAlreadyProcessed, denied.Reason)
}

func TestRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.Reject(context.Background(), f.hod.ID, req.ID, departure.RejectRequestRequest{
		RejectionReason: "Coverage not arranged",
	})
	require.NoError(t, err)

	assert.Equal(t, departure.StatusRejected, view.Status)
	require.NotNil(t, view.RejectionReason)
	assert.Equal(t, "Coverage not arranged", *view.RejectionReason)
	require.NotNil(t, view.RejectedAt)
	assert.Nil(t, view.ExitPassNumber, "no exit pass on rejection")
	assert.False(t, view.CancelledBySelf)
	assert.Equal(t, 1, f.email.rejected)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Reject(context.Background(), f.hod.ID, req.ID, departure.RejectRequestRequest{})
	require.Error(t, err)

	stored, err := f.service.Get(context.Background(), f.faculty.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, departure.StatusPending, stored.Status)
}

func TestMoreInfoRoundTrip(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.RequestMoreInfo(context.Background(), f.hod.ID, req.ID, departure.MoreInfoRequest{
		HODComments: "Who covers the 3pm lab?",
	})
	require.NoError(t, err)
	assert.Equal(t, departure.StatusMoreInfoNeeded, view.Status)
	require.NotNil(t, view.HODComments)

	// approval is still reachable from more_info_needed
	view, err = f.service.Approve(context.Background(), f.hod.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, departure.StatusApproved, view.Status)
}

func TestMoreInfoOnlyFromPending(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.RequestMoreInfo(context.Background(), f.hod.ID, req.ID, departure.MoreInfoRequest{HODComments: "?"})
	require.NoError(t, err)

	_, err = f.service.RequestMoreInfo(context.Background(), f.hod.ID, req.ID, departure.MoreInfoRequest{HODComments: "again?"})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonAlreadyProcessed, denied.Reason)
}

func TestCancelTerminatesAsRejectedWithFlag(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.Cancel(context.Background(), f.faculty.ID, req.ID, departure.CancelRequestRequest{
		CancellationReason: "Plans changed",
	})
	require.NoError(t, err)

	assert.Equal(t, departure.StatusRejected, view.Status)
	assert.True(t, view.CancelledBySelf)
	require.NotNil(t, view.RejectionReason)
	assert.True(t, strings.HasPrefix(*view.RejectionReason, "Cancelled by faculty: "))
	assert.Contains(t, *view.RejectionReason, "Plans changed")
	assert.Nil(t, view.ApprovedBy, "cancellation records no approver")
}

func TestCancelRejectsShortReason(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Cancel(context.Background(), f.faculty.ID, req.ID, departure.CancelRequestRequest{
		CancellationReason: "  no  ",
	})
	require.Error(t, err)
}

func TestCancelDeniedForNonOwner(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Cancel(context.Background(), f.hod.ID, req.ID, departure.CancelRequestRequest{
		CancellationReason: "not mine",
	})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonNotOwner, denied.Reason)
}

func TestEditPendingRequest(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	newReason := "Family emergency"
	newUrgency := "critical"
	view, err := f.service.Edit(context.Background(), f.faculty.ID, req.ID, departure.EditRequestRequest{
		Reason:       &newReason,
		UrgencyLevel: &newUrgency,
	})
	require.NoError(t, err)

	assert.Equal(t, "Family emergency", view.Reason)
	assert.Equal(t, departure.Urgency("critical"), view.UrgencyLevel)
	// untouched fields survive
	assert.Equal(t, "City hospital", view.Destination)
	require.NotNil(t, view.DepartureTime)
	assert.Equal(t, "14:30", *view.DepartureTime)
}

func TestEditDeniedOnceDecided(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
	require.NoError(t, err)

	reason := "too late"
	_, err = f.service.Edit(context.Background(), f.faculty.ID, req.ID, departure.EditRequestRequest{Reason: &reason})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonAlreadyProcessed, denied.Reason)
}

// editRaceRepository lets a decision land between the editor's snapshot read
// and the edit write, the way a concurrent approval would.
type editRaceRepository struct {
	*memory.DepartureRequestRepository
	beforeEdit func()
}

func (r *editRaceRepository) Edit(ctx context.Context, update departure.Update) error {
	if r.beforeEdit != nil {
		r.beforeEdit()
	}
	return r.DepartureRequestRepository.Edit(ctx, update)
}

func TestEditLosesToConcurrentApproval(t *testing.T) {
	f := newFixture(t)
	raced := &editRaceRepository{DepartureRequestRepository: f.requests}
	svc := NewService(
		f.users, raced, f.audit, f.notifications,
		f.email, fakeEncoder{}, exitpass.NewGenerator(f.clock.Now), f.clock,
	)
	req := f.submit(t, f.faculty.ID)

	raced.beforeEdit = func() {
		_, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
		require.NoError(t, err)
	}

	reason := "Changed after approval"
	_, err := svc.Edit(context.Background(), f.faculty.ID, req.ID, departure.EditRequestRequest{Reason: &reason})
	require.ErrorIs(t, err, departure.ErrAlreadyProcessed)

	// The approved request keeps the fields the exit pass was issued against.
	view, err := f.service.Get(context.Background(), f.faculty.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, departure.StatusApproved, view.Status)
	assert.Equal(t, "Medical appointment", view.Reason)
}

func TestSideEffectFailuresDoNotRollBackApproval(t *testing.T) {
	f := newFixture(t)
	f.email.Fail = true
	f.audit.FailAppend = true
	f.notifications.FailCreate = true
	req := f.submit(t, f.faculty.ID)

	view, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, departure.StatusApproved, view.Status)
	require.NotNil(t, view.ExitPassNumber)
}

func TestInactiveActorRejected(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, f.faculty.ID)

	require.NoError(t, f.users.Deactivate(context.Background(), f.hod.ID))

	_, err := f.service.Approve(context.Background(), f.hod.ID, req.ID)
	assert.ErrorIs(t, err, user.ErrAccountInactive)
}

func TestGetEnforcesViewAccess(t *testing.T) {
	f := newFixture(t)
	outsider := f.users.Seed(user.User{ID: "fac-9", Role: user.RoleFaculty, Department: "EE", IsActive: true})
	req := f.submit(t, f.faculty.ID)

	_, err := f.service.Get(context.Background(), f.faculty.ID, req.ID)
	assert.NoError(t, err)
	_, err = f.service.Get(context.Background(), f.hod.ID, req.ID)
	assert.NoError(t, err)

	_, err = f.service.Get(context.Background(), outsider.ID, req.ID)
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonNotOwner, denied.Reason)
}

func TestQueuesSplitByOwnerRole(t *testing.T) {
	f := newFixture(t)
	facReq := f.submit(t, f.faculty.ID)
	hodReq := f.submit(t, f.hod.ID)

	dept, err := f.service.ListDepartmentQueue(context.Background(), f.hod.ID, departure.Filter{})
	require.NoError(t, err)
	require.Len(t, dept.Requests, 1)
	assert.Equal(t, facReq.ID, dept.Requests[0].ID)

	deanQueue, err := f.service.ListDeanQueue(context.Background(), f.dean.ID, departure.Filter{})
	require.NoError(t, err)
	require.Len(t, deanQueue.Requests, 1)
	assert.Equal(t, hodReq.ID, deanQueue.Requests[0].ID)
}

func TestDepartmentQueueRequiresAuthority(t *testing.T) {
	f := newFixture(t)
	f.submit(t, f.faculty.ID)

	_, err := f.service.ListDepartmentQueue(context.Background(), f.faculty.ID, departure.Filter{})
	var denied *authz.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonNoDelegation, denied.Reason)

	_, err = f.service.ListDeanQueue(context.Background(), f.hod.ID, departure.Filter{})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.ReasonRoleNotPermitted, denied.Reason)
}
