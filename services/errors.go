package services

import "errors"

var (
	// ErrUnsafeContent marks text rejected by the safety filter. The raw
	// match is never echoed back to the caller.
	ErrUnsafeContent = errors.New("content contains prohibited information")

	// ErrNotApprovedAdmin means the session is fine but the acting admin's
	// display name is missing from the allowlist (403, not 401).
	ErrNotApprovedAdmin = errors.New("admin name is not on the approved list")

	// ErrAlreadyDecided guards the pending -> approved/rejected transition
	// against a second decision.
	ErrAlreadyDecided = errors.New("contribution has already been decided")

	// ErrCompoundReferenced refuses compound deletion while medicines still
	// point at it.
	ErrCompoundReferenced = errors.New("compound is still referenced by medicines")
)

// ValidationError reports missing or malformed input with a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
