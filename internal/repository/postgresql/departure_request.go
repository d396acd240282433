package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/akanaz/exitpass-backend-go/internal/domain/departure"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type departureRequestRepositoryImpl struct {
	db *database.DB
}

func NewDepartureRequestRepository(db *database.DB) departure.Repository {
	return &departureRequestRepositoryImpl{db: db}
}

const requestColumns = `
	r.id, r.faculty_id, r.leave_type, r.departure_date, r.departure_time,
	r.reason, r.destination, r.urgency_level, r.workload_coverage, r.attachment_url,
	r.status, r.approved_by, r.acting_capacity, r.approved_at, r.rejected_at,
	r.rejection_reason, r.hod_comments, r.cancelled_by_self,
	r.exit_pass_number, r.qr_code,
	r.submitted_at, r.created_at, r.updated_at,
	u.name, u.department
`

func scanRequest(row pgx.Row) (departure.Request, error) {
	var req departure.Request
	err := row.Scan(
		&req.ID, &req.FacultyID, &req.LeaveType, &req.DepartureDate, &req.DepartureTime,
		&req.Reason, &req.Destination, &req.Urgency, &req.WorkloadCoverage, &req.AttachmentURL,
		&req.Status, &req.ApprovedBy, &req.ActingCapacity, &req.ApprovedAt, &req.RejectedAt,
		&req.RejectionReason, &req.HODComments, &req.CancelledBySelf,
		&req.ExitPassNumber, &req.QRCode,
		&req.SubmittedAt, &req.CreatedAt, &req.UpdatedAt,
		&req.FacultyName, &req.FacultyDepartment,
	)
	return req, err
}

// Create implements departure.Repository.
func (r *departureRequestRepositoryImpl) Create(ctx context.Context, request departure.Request) (departure.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO departure_requests (
				faculty_id, leave_type, departure_date, departure_time,
				reason, destination, urgency_level, workload_coverage, attachment_url, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING *
		)
		SELECT ` + requestColumns + `
		FROM inserted r
		JOIN users u ON u.id = r.faculty_id
	`

	created, err := scanRequest(q.QueryRow(ctx, query,
		request.FacultyID, request.LeaveType, request.DepartureDate, request.DepartureTime,
		request.Reason, request.Destination, request.Urgency, request.WorkloadCoverage,
		request.AttachmentURL, request.Status,
	))
	if err != nil {
		return departure.Request{}, fmt.Errorf("failed to insert departure request: %w", err)
	}
	return created, nil
}

// GetByID implements departure.Repository.
func (r *departureRequestRepositoryImpl) GetByID(ctx context.Context, id string) (departure.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM departure_requests r
		JOIN users u ON u.id = r.faculty_id
		WHERE r.id = $1
	`

	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return departure.Request{}, departure.ErrRequestNotFound
		}
		return departure.Request{}, fmt.Errorf("failed to get departure request: %w", err)
	}
	return req, nil
}

// ListByFaculty implements departure.Repository.
func (r *departureRequestRepositoryImpl) ListByFaculty(ctx context.Context, facultyID string, filter departure.Filter) ([]departure.Request, int64, error) {
	return r.list(ctx, "r.faculty_id = $1", []interface{}{facultyID}, filter)
}

// ListByDepartment implements departure.Repository.
func (r *departureRequestRepositoryImpl) ListByDepartment(ctx context.Context, department string, filter departure.Filter) ([]departure.Request, int64, error) {
	// HOD-owned requests are excluded; those route to the dean queue.
	return r.list(ctx, "u.department = $1 AND u.role <> 'hod'", []interface{}{department}, filter)
}

// ListHODRequests implements departure.Repository.
func (r *departureRequestRepositoryImpl) ListHODRequests(ctx context.Context, filter departure.Filter) ([]departure.Request, int64, error) {
	return r.list(ctx, "u.role = 'hod'", nil, filter)
}

func (r *departureRequestRepositoryImpl) list(ctx context.Context, where string, args []interface{}, filter departure.Filter) ([]departure.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	countQuery := `
		SELECT COUNT(*)
		FROM departure_requests r
		JOIN users u ON u.id = r.faculty_id
		WHERE ` + where

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count departure requests: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM departure_requests r
		JOIN users u ON u.id = r.faculty_id
		WHERE %s
		ORDER BY r.submitted_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list departure requests: %w", err)
	}
	defer rows.Close()

	var requests []departure.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Edit implements departure.Repository. Like ApplyStatus, the write matches
// the row only while it is still pending, so a decision committing between
// the caller's authz check and this write leaves the request untouched.
func (r *departureRequestRepositoryImpl) Edit(ctx context.Context, update departure.Update) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE departure_requests
		SET leave_type = COALESCE($1, leave_type),
			departure_date = COALESCE($2, departure_date),
			departure_time = COALESCE($3, departure_time),
			reason = COALESCE($4, reason),
			destination = COALESCE($5, destination),
			urgency_level = COALESCE($6, urgency_level),
			workload_coverage = COALESCE($7, workload_coverage),
			attachment_url = COALESCE($8, attachment_url),
			updated_at = NOW()
		WHERE id = $9 AND status = $10
	`

	tag, err := q.Exec(ctx, query,
		update.LeaveType, update.DepartureDate, update.DepartureTime,
		update.Reason, update.Destination, update.Urgency,
		update.WorkloadCoverage, update.AttachmentURL, update.ID,
		departure.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to edit departure request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM departure_requests WHERE id = $1)`,
			update.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check departure request: %w", err)
		}
		if exists {
			return departure.ErrAlreadyProcessed
		}
		return departure.ErrRequestNotFound
	}
	return nil
}

// ApplyStatus implements departure.Repository. The WHERE clause matches the
// row only while its status is still one of the expected prior statuses, so
// of two concurrent decisions exactly one observes RowsAffected() == 1.
func (r *departureRequestRepositoryImpl) ApplyStatus(ctx context.Context, update departure.StatusUpdate) (bool, error) {
	q := GetQuerier(ctx, r.db)

	expected := make([]string, 0, len(update.Expected))
	for _, s := range update.Expected {
		expected = append(expected, string(s))
	}

	query := `
		UPDATE departure_requests
		SET status = $1,
			approved_by = COALESCE($2, approved_by),
			acting_capacity = COALESCE($3, acting_capacity),
			approved_at = COALESCE($4, approved_at),
			rejected_at = COALESCE($5, rejected_at),
			rejection_reason = COALESCE($6, rejection_reason),
			hod_comments = COALESCE($7, hod_comments),
			cancelled_by_self = cancelled_by_self OR $8,
			exit_pass_number = COALESCE($9, exit_pass_number),
			qr_code = COALESCE($10, qr_code),
			updated_at = NOW()
		WHERE id = $11 AND status = ANY($12)
	`

	tag, err := q.Exec(ctx, query,
		update.Status, update.ApprovedBy, update.ActingCapacity,
		update.ApprovedAt, update.RejectedAt, update.RejectionReason,
		update.HODComments, update.CancelledBySelf,
		update.ExitPassNumber, update.QRCode,
		update.ID, expected,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, departure.ErrDuplicateExitPass
		}
		return false, fmt.Errorf("failed to apply status update: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
