package receiptmock

import (
	"context"

	domain "loan-ledger/internal/domain/loan"
)

var _ domain.ReceiptRepository = (*Repo)(nil)

type Repo struct {
	CreateBatchFn func(ctx context.Context, items []domain.ReceivedRepayment) error
	ListByLoanFn  func(ctx context.Context, loanNumericID uint64) ([]domain.ReceivedRepayment, error)
}

func (m *Repo) CreateBatch(ctx context.Context, items []domain.ReceivedRepayment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, items)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanNumericID uint64) ([]domain.ReceivedRepayment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanNumericID)
	}
	return nil, context.Canceled
}
