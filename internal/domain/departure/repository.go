package departure

import (
	"context"
	"time"
)

// Update carries the mutable-field edit of a pending request. Nil fields are
// left untouched by the store.
type Update struct {
	ID               string
	LeaveType        *LeaveType
	DepartureDate    *time.Time
	DepartureTime    *string
	Reason           *string
	Destination      *string
	Urgency          *Urgency
	WorkloadCoverage *string
	AttachmentURL    *string
}

// StatusUpdate is one lifecycle transition applied as a compare-and-swap:
// the write matches only rows whose current status is in Expected, so two
// concurrent decisions against the same request cannot both commit.
type StatusUpdate struct {
	ID       string
	Expected []Status
	Status   Status

	ApprovedBy      *string
	ActingCapacity  *ActingCapacity
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason *string
	HODComments     *string
	CancelledBySelf bool
	ExitPassNumber  *string
	QRCode          *string
}

// Repository - interface for the departure_requests table.
type Repository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	ListByFaculty(ctx context.Context, facultyID string, filter Filter) ([]Request, int64, error)
	// ListByDepartment returns requests whose owner belongs to department and
	// is not an HOD (HOD-owned requests route to the dean queue).
	ListByDepartment(ctx context.Context, department string, filter Filter) ([]Request, int64, error)
	// ListHODRequests returns requests owned by HOD accounts, the dean's queue.
	ListHODRequests(ctx context.Context, filter Filter) ([]Request, int64, error)
	Edit(ctx context.Context, update Update) error
	// ApplyStatus performs the compare-and-swap transition. applied is false
	// when no row matched the expected statuses (the request moved under us).
	ApplyStatus(ctx context.Context, update StatusUpdate) (applied bool, err error)
}
