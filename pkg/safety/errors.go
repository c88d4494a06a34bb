package safety

import "errors"

var (
	// ErrApprovalNotFound is returned by Approve/Reject for an unknown ID.
	ErrApprovalNotFound = errors.New("safety: approval not found")
	// ErrApprovalExpired is returned when the approval window has elapsed.
	ErrApprovalExpired = errors.New("safety: approval expired")
	// ErrApprovalAlreadyDecided is returned for a second decision on the
	// same approval.
	ErrApprovalAlreadyDecided = errors.New("safety: approval already decided")
)
