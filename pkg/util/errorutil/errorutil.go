package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes shared by the lending core and its adapters.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"
	CodeItemUnavailable     = "ITEM_UNAVAILABLE"
	CodeLoanLimitExceeded   = "LOAN_LIMIT_EXCEEDED"
	CodeAlreadyReturned     = "ALREADY_RETURNED"
	CodeReturnFailed        = "RETURN_FAILED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewDuplicateIdentifier reports a registration collision.
func NewDuplicateIdentifier(resource, id string) error {
	return NewDomainError(CodeDuplicateIdentifier,
		fmt.Sprintf("%s %q already registered", resource, id),
		http.StatusConflict,
		map[string]any{"id": id})
}

// NewItemUnavailable reports a borrow attempt on a loaned item.
func NewItemUnavailable(itemID, title string) error {
	return NewDomainError(CodeItemUnavailable,
		fmt.Sprintf("item %q is not available", title),
		http.StatusConflict,
		map[string]any{"item_id": itemID})
}

// NewLoanLimitExceeded reports a patron at or above the borrowing limit.
func NewLoanLimitExceeded(patronID string, limit int) error {
	return NewDomainError(CodeLoanLimitExceeded,
		fmt.Sprintf("patron reached the limit of %d loans", limit),
		http.StatusConflict,
		map[string]any{"patron_id": patronID, "limit": limit})
}

// NewAlreadyReturned reports a return attempted on a closed loan.
func NewAlreadyReturned(loanID string) error {
	return NewDomainError(CodeAlreadyReturned,
		"loan already returned",
		http.StatusConflict,
		map[string]any{"loan_id": loanID})
}

// NewReturnFailed reports that the item could not be marked as returned.
func NewReturnFailed(loanID string) error {
	return NewDomainError(CodeReturnFailed,
		"item could not be marked as returned",
		http.StatusConflict,
		map[string]any{"loan_id": loanID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError returns the DomainError carried by err. A missing pgx row
// becomes NOT_FOUND; anything else is wrapped as INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &DomainError{
			Code:       CodeNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Details:    map[string]any{},
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError normalizes err for callers that return the error interface.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
