package loan

import (
	"errors"
	"fmt"
)

var (
	// Validation failures: nothing was written.
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCurrencyMismatch = errors.New("currency does not match loan currency")
	ErrAlreadyRepaid    = errors.New("loan already repaid")

	ErrNotFound = errors.New("loan not found")

	// The unit of work could not commit; the caller may retry.
	ErrTransactionFailure = errors.New("transaction failed")
)

// WrapTxError tags store errors as ErrTransactionFailure and passes domain
// errors through unchanged.
func WrapTxError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrAlreadyRepaid),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrTransactionFailure):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}
}
