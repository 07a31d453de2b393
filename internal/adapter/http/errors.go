package http

import (
	"errors"
	"net/http"

	"loan-ledger/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

// Map domain errors → HTTP codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, loan.ErrInvalidArgument):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, loan.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, loan.ErrNotFound):
		return http.StatusNotFound, "loan not found"
	case errors.Is(err, loan.ErrAlreadyRepaid):
		return http.StatusConflict, "loan already repaid"
	case errors.Is(err, loan.ErrTransactionFailure):
		return http.StatusServiceUnavailable, "transaction failed, retry later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(c echo.Context, err error) error {
	code, msg := statusFor(err)
	return c.JSON(code, ErrorResponse{Error: msg})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
