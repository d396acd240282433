package departure

import "time"

type Status string

const (
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusMoreInfoNeeded Status = "more_info_needed"
)

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type LeaveType string

const (
	LeavePartial LeaveType = "partial"
	LeaveFullDay LeaveType = "full_day"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ActingCapacity records the authority a decision was made under. A delegated
// approver has account role faculty but acts with HOD authority, so this is
// stored on the request at transition time and never re-derived from the
// (possibly since-changed) actor account.
type ActingCapacity string

const (
	CapacityHOD              ActingCapacity = "hod"
	CapacityDean             ActingCapacity = "dean"
	CapacityDelegatedFaculty ActingCapacity = "delegated_faculty"
)

// Request is an early-departure request submitted by a faculty member or an
// HOD (HOD-owned requests route to the dean).
type Request struct {
	ID        string
	FacultyID string

	LeaveType     LeaveType
	DepartureDate time.Time
	// DepartureTime is the "15:04" wall time, required iff LeaveType is partial.
	DepartureTime    *string
	Reason           string
	Destination      string
	Urgency          Urgency
	WorkloadCoverage *string
	AttachmentURL    *string

	Status          Status
	ApprovedBy      *string
	ActingCapacity  *ActingCapacity
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason *string
	HODComments     *string
	// CancelledBySelf tags the owner-cancel path, which terminates in
	// StatusRejected with a synthesized rejection reason.
	CancelledBySelf bool

	// ExitPassNumber and QRCode are set iff Status is approved.
	ExitPassNumber *string
	QRCode         *string

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joins for responses
	FacultyName       *string
	FacultyDepartment *string
}

// LeaveWindowDisplay renders the leave window the way the email templates and
// exit pass expect it: localized date plus "Full Day" or the departure time.
func (r Request) LeaveWindowDisplay() (dateStr, timeStr string) {
	dateStr = r.DepartureDate.Format("02 Jan 2006")
	if r.LeaveType == LeaveFullDay || r.DepartureTime == nil {
		timeStr = "Full Day"
	} else {
		timeStr = *r.DepartureTime
	}
	return dateStr, timeStr
}
