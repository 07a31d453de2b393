package schedulemock

import (
	"context"

	domain "loan-ledger/internal/domain/loan"
)

var _ domain.ScheduleRepository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.ScheduleRepository.
// Writes default to no-ops, reads default to context.Canceled.
type Repo struct {
	CreateBatchFn         func(ctx context.Context, items []domain.ScheduledRepayment) error
	ListByLoanFn          func(ctx context.Context, loanNumericID uint64) ([]domain.ScheduledRepayment, error)
	ListUnpaidForUpdateFn func(ctx context.Context, loanNumericID uint64) ([]domain.ScheduledRepayment, error)
	SaveFn                func(ctx context.Context, s *domain.ScheduledRepayment) error
	SumOutstandingFn      func(ctx context.Context, loanNumericID uint64) (int64, error)
}

func (m *Repo) CreateBatch(ctx context.Context, items []domain.ScheduledRepayment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, items)
	}
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanNumericID uint64) ([]domain.ScheduledRepayment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanNumericID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListUnpaidForUpdate(ctx context.Context, loanNumericID uint64) ([]domain.ScheduledRepayment, error) {
	if m.ListUnpaidForUpdateFn != nil {
		return m.ListUnpaidForUpdateFn(ctx, loanNumericID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, s *domain.ScheduledRepayment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}
	return nil
}

func (m *Repo) SumOutstanding(ctx context.Context, loanNumericID uint64) (int64, error) {
	if m.SumOutstandingFn != nil {
		return m.SumOutstandingFn(ctx, loanNumericID)
	}
	return 0, context.Canceled
}
