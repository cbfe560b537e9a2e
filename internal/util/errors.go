// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrValidation             = errors.New("invalid input provided")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrSameWalletTransfer     = errors.New("cannot transfer to the same wallet")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrDuplicateEntry         = errors.New("duplicate entry")
	ErrResourceLocked         = errors.New("resource is locked by another transaction")
	ErrUnbalancedEntries      = errors.New("ledger entries do not balance")
	ErrAlreadyReversed        = errors.New("ledger transaction already reversed")
	ErrInvalidStateTransition = errors.New("invalid transaction state transition")
)

// IsError reports whether err wraps target, so callers can match sentinel
// errors through fmt.Errorf("%w") chains.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
