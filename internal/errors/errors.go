// Package errors provides custom error types for the ChoreBank API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Family errors.
var (
	ErrFamilyNotFound      = &AppError{Code: "FAMILY_NOT_FOUND", Message: "Family not found", StatusCode: http.StatusNotFound}
	ErrNoFamily            = &AppError{Code: "NO_FAMILY", Message: "You must be part of a family to do this", StatusCode: http.StatusForbidden}
	ErrAlreadyInFamily     = &AppError{Code: "ALREADY_IN_FAMILY", Message: "You already belong to a family", StatusCode: http.StatusConflict}
	ErrWrongFamily         = &AppError{Code: "WRONG_FAMILY", Message: "This resource belongs to another family", StatusCode: http.StatusForbidden}
	ErrNotFamilyManager    = &AppError{Code: "NOT_FAMILY_MANAGER", Message: "Only the family manager can do this", StatusCode: http.StatusForbidden}
	ErrJoinRequestNotFound = &AppError{Code: "JOIN_REQUEST_NOT_FOUND", Message: "Join request not found", StatusCode: http.StatusNotFound}
	ErrJoinRequestPending  = &AppError{Code: "JOIN_REQUEST_PENDING", Message: "A join request for this family is already pending", StatusCode: http.StatusConflict}
)

// Child errors.
var (
	ErrChildNotFound = &AppError{Code: "CHILD_NOT_FOUND", Message: "Child not found", StatusCode: http.StatusNotFound}
)

// Chore errors.
var (
	ErrChoreNotFound     = &AppError{Code: "CHORE_NOT_FOUND", Message: "Chore not found", StatusCode: http.StatusNotFound}
	ErrChoreNotPending   = &AppError{Code: "CHORE_NOT_PENDING", Message: "Chore is not awaiting completion", StatusCode: http.StatusConflict}
	ErrChoreNotSubmitted = &AppError{Code: "CHORE_NOT_SUBMITTED", Message: "Only submitted chores can be rejected", StatusCode: http.StatusConflict}
	ErrChoreCompleted    = &AppError{Code: "CHORE_COMPLETED", Message: "Chore is already completed", StatusCode: http.StatusConflict}
	ErrChoreArchived     = &AppError{Code: "CHORE_ARCHIVED", Message: "Chore has been archived", StatusCode: http.StatusConflict}
	ErrNotAssignee       = &AppError{Code: "NOT_ASSIGNEE", Message: "This chore is assigned to someone else", StatusCode: http.StatusForbidden}
)

// Ledger errors.
var (
	ErrInsufficientPoints = &AppError{Code: "INSUFFICIENT_POINTS", Message: "Insufficient family points", StatusCode: http.StatusBadRequest}
	ErrInsufficientCoins  = &AppError{Code: "INSUFFICIENT_COINS", Message: "Insufficient coins", StatusCode: http.StatusBadRequest}
)

// Store errors.
var (
	ErrItemNotFound    = &AppError{Code: "ITEM_NOT_FOUND", Message: "Store item not found", StatusCode: http.StatusNotFound}
	ErrItemUnavailable = &AppError{Code: "ITEM_UNAVAILABLE", Message: "This item is not available", StatusCode: http.StatusConflict}
	ErrItemInUse       = &AppError{Code: "ITEM_IN_USE", Message: "This item is referenced by past transactions", StatusCode: http.StatusConflict}
	ErrBelowMinimum    = &AppError{Code: "BELOW_MINIMUM", Message: "Not enough coins to earn a single point", StatusCode: http.StatusBadRequest}
)
