package domain

import "errors"

// Error taxonomy shared by stores, workflows and handlers.
var (
	ErrValidation       = errors.New("validation failed")
	ErrAuthFailure      = errors.New("invalid student id or credential")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrDuplicateIdentifier = conflict("student id already exists")
	ErrOutOfStock          = conflict("product out of stock")
	ErrInsufficientPoints  = conflict("insufficient points")
)

type conflictError struct {
	msg string
}

func conflict(msg string) error {
	return &conflictError{msg: msg}
}

func (e *conflictError) Error() string { return e.msg }

// Is lets errors.Is(err, ErrConflict) match every conflict sentinel.
func (e *conflictError) Is(target error) bool {
	return target == ErrConflict
}

// Rejection reasons reported by the purchase workflow.
const (
	ReasonNotFound           = "not_found"
	ReasonOutOfStock         = "out_of_stock"
	ReasonInsufficientPoints = "insufficient_points"
)

// RejectionReason maps a purchase error to its reason code. It returns ""
// for errors that are not purchase rejections.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrOutOfStock):
		return ReasonOutOfStock
	case errors.Is(err, ErrInsufficientPoints):
		return ReasonInsufficientPoints
	default:
		return ""
	}
}

// ValidationError carries a user-facing message for a rejected input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
