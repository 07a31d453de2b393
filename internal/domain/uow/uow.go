package uow

import (
	"context"

	"loan-ledger/internal/domain/loan"
)

type Repos struct {
	Loans     loan.Repository
	Schedules loan.ScheduleRepository
	Receipts  loan.ReceiptRepository
}

// UnitOfWork commits when fn returns nil and rolls back on any error or panic.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
