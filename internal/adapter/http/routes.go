package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health     *HealthHandler
	Loans      *LoanHandler
	Repayments *RepaymentHandler
}

// Register mounts the API. mutating wraps POST routes (idempotency).
func Register(e *echo.Echo, h Handlers, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	e.POST("/loans", h.Loans.CreateLoan, mutating...)
	e.GET("/loans/:loan_id", h.Loans.GetLoan)
	e.GET("/owners/:owner_id/loans", h.Loans.ListOwnerLoans)

	e.POST("/loans/:loan_id/repayments", h.Repayments.Repay, mutating...)
	e.GET("/loans/:loan_id/repayments", h.Repayments.ListRepayments)
}
