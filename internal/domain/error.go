package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrForbidden             = errors.New("operation not permitted")
	ErrAlreadySubscribed     = errors.New("entity already has an active subscription")
	ErrAlreadyCanceled       = errors.New("subscription is already canceled")
	ErrPaymentAlreadySettled = errors.New("payment already left the pending state")
	ErrOperationFailed       = errors.New("operation failed")
	ErrInvalidExecContext    = errors.New("invalid execution context for query")
	ErrReadDatabaseRow       = errors.New("failed to read database row")
)
