package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientFunds   = 4001
	CodeInvalidAmount       = 4002
	CodeInvalidUserID       = 4003
	CodeDuplicateReference  = 4004
	CodeConstraintViolation = 4005
	CodeConflictingVote     = 4006
	CodeInvalidTarget       = 4007
	CodeInvalidPaymentType  = 4008
	CodeInvalidRequest      = 4009
	CodeUnauthorized        = 4010
	CodeAmountOverflow      = 4011
	CodeRateLimited         = 4029
	CodeTargetNotFound      = 4040
	CodeWalletNotFound      = 4041
	CodeTransactionNotFound = 4042
	CodeNotFound            = 4043

	// 5xxx - Server errors
	CodeInternalServer      = 5000
	CodeTransientStorage    = 5030
	CodeNotificationFailure = 5020
)

// Base error types
var (
	// ErrInsufficientFunds is returned when a debit would drive a wallet balance negative
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount is not a positive decimal with at most two places
	ErrInvalidAmount = errors.New("amount must be a positive decimal")

	// ErrInvalidUserID is returned when the user ID is not a positive integer
	ErrInvalidUserID = errors.New("user ID must be positive")

	// ErrAmountOverflow is returned when a balance would exceed the storable maximum
	ErrAmountOverflow = errors.New("amount is too large and would cause overflow")

	// ErrInvalidPaymentType is returned when the payment type is not recharge, refund or payment
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrConflictingVote is returned when a request sets both vote directions
	ErrConflictingVote = errors.New("only one of upvote or downvote may be set")

	// ErrInvalidTargetType is returned when the votable entity kind is unknown
	ErrInvalidTargetType = errors.New("invalid vote target type")

	// ErrInvalidTargetID is returned when the votable entity ID is not positive
	ErrInvalidTargetID = errors.New("vote target ID must be positive")

	// ErrDuplicateReference is returned when a transaction reference is already used by the wallet
	ErrDuplicateReference = errors.New("transaction reference already used")

	// ErrTargetNotFound is returned when the voted entity doesn't exist
	ErrTargetNotFound = errors.New("vote target not found")

	// ErrWalletNotFound is returned when the requested wallet doesn't exist
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound is returned when the requested wallet transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrVoteNotFound is returned when the voter has no vote on the target
	ErrVoteNotFound = errors.New("vote not found")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized is returned when the caller identity is missing or not accepted
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when a client sends requests faster than allowed
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrTransientStorage is returned on lock contention, deadlocks or lost connectivity; safe to retry
	ErrTransientStorage = errors.New("transient storage error")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrNotificationFailed is returned when an outbound notification could not be queued
	ErrNotificationFailed = errors.New("notification could not be sent")

	// ErrCacheMiss is returned by cache adapters when a key is absent
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidUserID):
		return CodeInvalidUserID
	case errors.Is(err, ErrDuplicateReference):
		return CodeDuplicateReference
	case errors.Is(err, ErrConflictingVote):
		return CodeConflictingVote
	case errors.Is(err, ErrInvalidTargetType), errors.Is(err, ErrInvalidTargetID):
		return CodeInvalidTarget
	case errors.Is(err, ErrInvalidPaymentType):
		return CodeInvalidPaymentType
	case errors.Is(err, ErrAmountOverflow):
		return CodeAmountOverflow
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrTargetNotFound):
		return CodeTargetNotFound
	case errors.Is(err, ErrWalletNotFound):
		return CodeWalletNotFound
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVoteNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	case errors.Is(err, ErrNotificationFailed):
		return CodeNotificationFailure
	case errors.Is(err, ErrTransientStorage), errors.Is(err, ErrDatabaseConnection):
		return CodeTransientStorage
	default:
		return CodeInternalServer
	}
}

// ValidationError reports malformed caller input. No storage mutation is attempted.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"field":      e.Field,
		"value":      e.Value,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// InsufficientFundsError carries the shortfall of a rejected debit
type InsufficientFundsError struct {
	UserID    uint64
	Amount    string
	Balance   string
	Shortfall string
	Currency  string
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	currency := e.Currency
	if currency == "" {
		currency = "Rs"
	}
	return fmt.Sprintf("insufficient funds: need %s %s more", currency, e.Shortfall)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_funds",
		"user_id":    e.UserID,
		"amount":     e.Amount,
		"balance":    e.Balance,
		"shortfall":  e.Shortfall,
		"error_code": CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a detailed insufficient funds error
func NewInsufficientFundsError(userID uint64, amount, balance, shortfall string) error {
	return &InsufficientFundsError{
		UserID:    userID,
		Amount:    amount,
		Balance:   balance,
		Shortfall: shortfall,
	}
}

// StorageError wraps a retryable storage failure
type StorageError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransientStorage.Error(), e.Operation, e.Err)
}

// Is checks if the target error is an ErrTransientStorage
func (e *StorageError) Is(target error) bool {
	return target == ErrTransientStorage
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *StorageError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "transient_storage",
		"operation":  e.Operation,
		"error":      e.Err.Error(),
		"error_code": CodeTransientStorage,
	}
}

// NewStorageError creates a retryable storage error
func NewStorageError(operation string, err error) error {
	return &StorageError{Operation: operation, Err: err}
}

// VoteError represents an error related to vote processing
type VoteError struct {
	VoterID    uint64
	TargetType string
	TargetID   uint64
	Reason     string
	Err        error
}

// Error implements the error interface for VoteError
func (e *VoteError) Error() string {
	return fmt.Sprintf("vote error for voter %d on %s:%d: %s - %v",
		e.VoterID, e.TargetType, e.TargetID, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *VoteError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *VoteError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "vote_error",
		"voter_id":    e.VoterID,
		"target_type": e.TargetType,
		"target_id":   e.TargetID,
		"reason":      e.Reason,
		"error":       e.Err.Error(),
		"error_code":  ErrorCode(e.Err),
	}
}

// NewVoteError creates a detailed vote error
func NewVoteError(voterID uint64, targetType string, targetID uint64, reason string, err error) error {
	return &VoteError{
		VoterID:    voterID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Err:        err,
	}
}

// IsValidationError checks if the error was caused by malformed input
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountOverflow) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidPaymentType) ||
		errors.Is(err, ErrConflictingVote) ||
		errors.Is(err, ErrInvalidTargetType) ||
		errors.Is(err, ErrInvalidTargetID) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsInsufficientFundsError checks if the error is a rejected debit
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsTransientStorageError checks if the operation may be retried as a whole
func IsTransientStorageError(err error) bool {
	return errors.Is(err, ErrTransientStorage) || errors.Is(err, ErrDatabaseConnection)
}

// IsDuplicateReferenceError checks if the error is a reused transaction reference
func IsDuplicateReferenceError(err error) bool {
	return errors.Is(err, ErrDuplicateReference)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrVoteNotFound)
}

// ShortfallOf extracts the shortfall string from an insufficient funds error
func ShortfallOf(err error) (string, bool) {
	var ie *InsufficientFundsError
	if errors.As(err, &ie) {
		return ie.Shortfall, true
	}
	return "", false
}
