package departure

import (
	"strings"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/pkg/validator"
)

// CreateRequestRequest is the submission payload. FacultyID is always taken
// from the access token, never from the body.
type CreateRequestRequest struct {
	FacultyID string `json:"-"`

	LeaveType        string  `json:"leave_type"`
	DepartureDate    string  `json:"departure_date"` // "2006-01-02"
	DepartureTime    *string `json:"departure_time,omitempty"`
	Reason           string  `json:"reason"`
	Destination      string  `json:"destination"`
	UrgencyLevel     string  `json:"urgency_level"`
	WorkloadCoverage *string `json:"workload_coverage,omitempty"`
	AttachmentURL    *string `json:"attachment_url,omitempty"`
}

func (r CreateRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	lt := LeaveType(r.LeaveType)
	if lt != LeavePartial && lt != LeaveFullDay {
		errs = append(errs, validator.ValidationError{Field: "leave_type", Message: "must be partial or full_day"})
	}
	if _, ok := validator.IsValidDate(r.DepartureDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "departure_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if lt == LeavePartial {
		if r.DepartureTime == nil || !validator.IsValidWallTime(*r.DepartureTime) {
			errs = append(errs, validator.ValidationError{Field: "departure_time", Message: "required for partial leave, format HH:MM"})
		}
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if validator.IsEmpty(r.Destination) {
		errs = append(errs, validator.ValidationError{Field: "destination", Message: "destination is required"})
	}
	switch Urgency(r.UrgencyLevel) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
	default:
		errs = append(errs, validator.ValidationError{Field: "urgency_level", Message: "must be one of low, medium, high, critical"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EditRequestRequest mutates the mutable fields of a pending request in
// place. Nil fields are left untouched.
type EditRequestRequest struct {
	LeaveType        *string `json:"leave_type,omitempty"`
	DepartureDate    *string `json:"departure_date,omitempty"`
	DepartureTime    *string `json:"departure_time,omitempty"`
	Reason           *string `json:"reason,omitempty"`
	Destination      *string `json:"destination,omitempty"`
	UrgencyLevel     *string `json:"urgency_level,omitempty"`
	WorkloadCoverage *string `json:"workload_coverage,omitempty"`
	AttachmentURL    *string `json:"attachment_url,omitempty"`
}

func (r EditRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.LeaveType != nil {
		lt := LeaveType(*r.LeaveType)
		if lt != LeavePartial && lt != LeaveFullDay {
			errs = append(errs, validator.ValidationError{Field: "leave_type", Message: "must be partial or full_day"})
		}
	}
	if r.DepartureDate != nil {
		if _, ok := validator.IsValidDate(*r.DepartureDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "departure_date", Message: "must be a valid date (YYYY-MM-DD)"})
		}
	}
	if r.DepartureTime != nil && !validator.IsValidWallTime(*r.DepartureTime) {
		errs = append(errs, validator.ValidationError{Field: "departure_time", Message: "format HH:MM"})
	}
	if r.Reason != nil && validator.IsEmpty(*r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason cannot be empty"})
	}
	if r.Destination != nil && validator.IsEmpty(*r.Destination) {
		errs = append(errs, validator.ValidationError{Field: "destination", Message: "destination cannot be empty"})
	}
	if r.UrgencyLevel != nil {
		switch Urgency(*r.UrgencyLevel) {
		case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		default:
			errs = append(errs, validator.ValidationError{Field: "urgency_level", Message: "must be one of low, medium, high, critical"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RejectRequestRequest carries the mandatory rejection reason.
type RejectRequestRequest struct {
	RejectionReason string  `json:"rejection_reason"`
	HODComments     *string `json:"hod_comments,omitempty"`
}

func (r RejectRequestRequest) Validate() error {
	if validator.IsEmpty(r.RejectionReason) {
		return validator.ValidationErrors{{Field: "rejection_reason", Message: "rejection reason is required"}}
	}
	return nil
}

// MoreInfoRequest carries the mandatory clarification comments.
type MoreInfoRequest struct {
	HODComments string `json:"hod_comments"`
}

func (r MoreInfoRequest) Validate() error {
	if validator.IsEmpty(r.HODComments) {
		return validator.ValidationErrors{{Field: "hod_comments", Message: "comments are required"}}
	}
	return nil
}

// CancelRequestRequest carries the owner's cancellation reason.
type CancelRequestRequest struct {
	CancellationReason string `json:"cancellation_reason"`
}

func (r CancelRequestRequest) Validate() error {
	if len(strings.TrimSpace(r.CancellationReason)) < 5 {
		return validator.ValidationErrors{{Field: "cancellation_reason", Message: "cancellation reason must be at least 5 characters"}}
	}
	return nil
}

// Filter narrows request listings.
type Filter struct {
	Status Status
	Page   int
	Limit  int
}

// Normalize clamps paging to sane defaults.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

// View is the full projected request returned by every transition endpoint.
type View struct {
	ID        string `json:"id"`
	FacultyID string `json:"faculty_id"`

	FacultyName       string `json:"faculty_name,omitempty"`
	FacultyDepartment string `json:"faculty_department,omitempty"`

	LeaveType        LeaveType `json:"leave_type"`
	DepartureDate    string    `json:"departure_date"`
	DepartureTime    *string   `json:"departure_time,omitempty"`
	Reason           string    `json:"reason"`
	Destination      string    `json:"destination"`
	UrgencyLevel     Urgency   `json:"urgency_level"`
	WorkloadCoverage *string   `json:"workload_coverage,omitempty"`
	AttachmentURL    *string   `json:"attachment_url,omitempty"`

	Status          Status          `json:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedByRole  *ActingCapacity `json:"approved_by_role,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	HODComments     *string         `json:"hod_comments,omitempty"`
	CancelledBySelf bool            `json:"cancelled_by_self,omitempty"`

	ExitPassNumber *string `json:"exit_pass_number,omitempty"`
	QRCode         *string `json:"qr_code,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToView projects r for responses.
func (r Request) ToView() View {
	v := View{
		ID:               r.ID,
		FacultyID:        r.FacultyID,
		LeaveType:        r.LeaveType,
		DepartureDate:    r.DepartureDate.Format("2006-01-02"),
		DepartureTime:    r.DepartureTime,
		Reason:           r.Reason,
		Destination:      r.Destination,
		UrgencyLevel:     r.Urgency,
		WorkloadCoverage: r.WorkloadCoverage,
		AttachmentURL:    r.AttachmentURL,
		Status:           r.Status,
		ApprovedBy:       r.ApprovedBy,
		ApprovedByRole:   r.ActingCapacity,
		ApprovedAt:       r.ApprovedAt,
		RejectedAt:       r.RejectedAt,
		RejectionReason:  r.RejectionReason,
		HODComments:      r.HODComments,
		CancelledBySelf:  r.CancelledBySelf,
		ExitPassNumber:   r.ExitPassNumber,
		QRCode:           r.QRCode,
		SubmittedAt:      r.SubmittedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.FacultyName != nil {
		v.FacultyName = *r.FacultyName
	}
	if r.FacultyDepartment != nil {
		v.FacultyDepartment = *r.FacultyDepartment
	}
	return v
}

// ListResponse pairs a page of views with the total row count.
type ListResponse struct {
	Requests []View `json:"requests"`
	Total    int64  `json:"total"`
}
