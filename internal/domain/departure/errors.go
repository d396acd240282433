package departure

import "errors"

var (
	ErrRequestNotFound            = errors.New("departure request not found")
	ErrAlreadyProcessed           = errors.New("departure request already processed")
	ErrRejectionReasonMissing     = errors.New("rejection reason is required")
	ErrCommentsMissing            = errors.New("comments are required")
	ErrCancellationReasonTooShort = errors.New("cancellation reason must be at least 5 characters")
	ErrDuplicateExitPass          = errors.New("exit pass number already issued")
)
