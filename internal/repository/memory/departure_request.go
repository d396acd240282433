package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
)

type DepartureRequestRepository struct {
	mu       sync.Mutex
	requests map[string]departure.Request

	// users resolves owner role and department for queue listings, the way
	// the SQL implementation joins the users table.
	users *UserRepository
}

func NewDepartureRequestRepository(users *UserRepository) *DepartureRequestRepository {
	return &DepartureRequestRepository{
		requests: make(map[string]departure.Request),
		users:    users,
	}
}

var _ departure.Repository = (*DepartureRequestRepository)(nil)

func (r *DepartureRequestRepository) Create(_ context.Context, request departure.Request) (departure.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = uuid.NewString()
	now := time.Now().UTC()
	request.SubmittedAt = now
	request.CreatedAt = now
	request.UpdatedAt = now
	r.requests[request.ID] = request
	return request, nil
}

func (r *DepartureRequestRepository) GetByID(ctx context.Context, id string) (departure.Request, error) {
	r.mu.Lock()
	request, ok := r.requests[id]
	r.mu.Unlock()
	if !ok {
		return departure.Request{}, departure.ErrRequestNotFound
	}

	if owner, err := r.users.GetByID(ctx, request.FacultyID); err == nil {
		request.FacultyName = &owner.Name
		request.FacultyDepartment = &owner.Department
	}
	return request, nil
}

func (r *DepartureRequestRepository) ListByFaculty(ctx context.Context, facultyID string, filter departure.Filter) ([]departure.Request, int64, error) {
	return r.list(ctx, filter, func(req departure.Request, _ user.User) bool {
		return req.FacultyID == facultyID
	})
}

func (r *DepartureRequestRepository) ListByDepartment(ctx context.Context, department string, filter departure.Filter) ([]departure.Request, int64, error) {
	return r.list(ctx, filter, func(_ departure.Request, owner user.User) bool {
		return owner.Department == department && owner.Role != user.RoleHOD
	})
}

func (r *DepartureRequestRepository) ListHODRequests(ctx context.Context, filter departure.Filter) ([]departure.Request, int64, error) {
	return r.list(ctx, filter, func(_ departure.Request, owner user.User) bool {
		return owner.Role == user.RoleHOD
	})
}

func (r *DepartureRequestRepository) list(ctx context.Context, filter departure.Filter, match func(departure.Request, user.User) bool) ([]departure.Request, int64, error) {
	r.mu.Lock()
	all := make([]departure.Request, 0, len(r.requests))
	for _, req := range r.requests {
		all = append(all, req)
	}
	r.mu.Unlock()

	var filtered []departure.Request
	for _, req := range all {
		owner, err := r.users.GetByID(ctx, req.FacultyID)
		if err != nil {
			continue
		}
		if !match(req, owner) {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		req.FacultyName = &owner.Name
		req.FacultyDepartment = &owner.Department
		filtered = append(filtered, req)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].SubmittedAt.After(filtered[j].SubmittedAt)
	})

	total := int64(len(filtered))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(filtered) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (r *DepartureRequestRepository) Edit(_ context.Context, update departure.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[update.ID]
	if !ok {
		return departure.ErrRequestNotFound
	}
	if req.Status != departure.StatusPending {
		return departure.ErrAlreadyProcessed
	}

	if update.LeaveType != nil {
		req.LeaveType = *update.LeaveType
	}
	if update.DepartureDate != nil {
		req.DepartureDate = *update.DepartureDate
	}
	if update.DepartureTime != nil {
		req.DepartureTime = update.DepartureTime
	}
	if update.Reason != nil {
		req.Reason = *update.Reason
	}
	if update.Destination != nil {
		req.Destination = *update.Destination
	}
	if update.Urgency != nil {
		req.Urgency = *update.Urgency
	}
	if update.WorkloadCoverage != nil {
		req.WorkloadCoverage = update.WorkloadCoverage
	}
	if update.AttachmentURL != nil {
		req.AttachmentURL = update.AttachmentURL
	}
	req.UpdatedAt = time.Now().UTC()

	r.requests[update.ID] = req
	return nil
}

func (r *DepartureRequestRepository) ApplyStatus(_ context.Context, update departure.StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[update.ID]
	if !ok {
		return false, nil
	}

	matched := false
	for _, expected := range update.Expected {
		if req.Status == expected {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	if update.ExitPassNumber != nil {
		for id, other := range r.requests {
			if id == update.ID {
				continue
			}
			if other.ExitPassNumber != nil && *other.ExitPassNumber == *update.ExitPassNumber {
				return false, departure.ErrDuplicateExitPass
			}
		}
	}

	req.Status = update.Status
	if update.ApprovedBy != nil {
		req.ApprovedBy = update.ApprovedBy
	}
	if update.ActingCapacity != nil {
		req.ActingCapacity = update.ActingCapacity
	}
	if update.ApprovedAt != nil {
		req.ApprovedAt = update.ApprovedAt
	}
	if update.RejectedAt != nil {
		req.RejectedAt = update.RejectedAt
	}
	if update.RejectionReason != nil {
		req.RejectionReason = update.RejectionReason
	}
	if update.HODComments != nil {
		req.HODComments = update.HODComments
	}
	if update.CancelledBySelf {
		req.CancelledBySelf = true
	}
	if update.ExitPassNumber != nil {
		req.ExitPassNumber = update.ExitPassNumber
	}
	if update.QRCode != nil {
		req.QRCode = update.QRCode
	}
	req.UpdatedAt = time.Now().UTC()

	r.requests[update.ID] = req
	return true, nil
}
