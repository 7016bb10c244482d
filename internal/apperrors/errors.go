package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

var (
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// ErrConcurrencyConflict is returned when a unit of work lost a race on a
// locked row (serialization failure, deadlock, lock timeout). The whole
// operation was rolled back and the caller may retry it.
var ErrConcurrencyConflict = fmt.Errorf("%w: concurrent update, retry the operation", ErrConflict)

// ErrIdempotencyMismatch is returned when an Idempotency-Key is reused with a
// different request body.
var ErrIdempotencyMismatch = errors.New("idempotency key was already used with a different request")

// Money and ledger invariants.
var (
	// ErrOverpayment means a payment would push a charge's paid amount past its total.
	ErrOverpayment = errors.New("payment exceeds outstanding amount")
	// ErrNonIntegerAmount means a minor-unit amount was not a whole number of paisa.
	ErrNonIntegerAmount = fmt.Errorf("%w: amount must be a whole number of paisa", ErrValidation)
	// ErrNegativeResult means an unsigned money subtraction went below zero.
	ErrNegativeResult = errors.New("money subtraction produced a negative result")
	// ErrUnknownAccount means a journal line named an account that is not in the chart or is inactive.
	ErrUnknownAccount = errors.New("unknown or inactive account")
	// ErrJournalUnbalanced means the debit and credit totals of a journal differ.
	ErrJournalUnbalanced = errors.New("journal debits and credits do not balance")
	// ErrAllocationMismatch means allocation parts do not add up to their parent amount.
	ErrAllocationMismatch = fmt.Errorf("%w: allocation amounts do not add up", ErrValidation)
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps ErrNotFound with the name of the missing resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// NewValidationError wraps ErrValidation with a message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether the failed operation can be safely retried as a whole.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
